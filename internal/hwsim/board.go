package hwsim

import (
	"fmt"
	"sort"
	"strconv"
)

// PinKind is the electrical capability of a pin.
type PinKind string

const (
	Digital PinKind = "digital"
	PWM     PinKind = "pwm"
	Analog  PinKind = "analog"
)

// PinSpec describes one pin a board exposes.
type PinSpec struct {
	ID     string
	Number int
	Kind   PinKind
}

// Board is a simulated target: its pin layout and the FQBN passed to the
// build service when flashing.
type Board struct {
	ID         string
	Name       string
	FQBN       string
	LEDBuiltin int
	Pins       []PinSpec
	// ADC names analog inputs that are plain GPIOs on the header.
	ADC map[string]int
}

// analogAliases is how many A<n> names every board defines.
const analogAliases = 8

// AnalogNames maps A0, A1, ... to pin numbers: the board's analog pins and
// ADC aliases. Names the board lacks map to -1, an unknown pin, so sketches
// using them still load.
func (b Board) AnalogNames() map[string]int {
	out := make(map[string]int, analogAliases)
	for i := range analogAliases {
		out[fmt.Sprintf("A%d", i)] = -1
	}
	for _, p := range b.Pins {
		if p.Kind == Analog {
			out[p.ID] = p.Number
		}
	}
	for name, n := range b.ADC {
		out[name] = n
	}
	return out
}

const DefaultBoard = "esp32-devkit"

var boards = map[string]Board{
	"esp32-devkit": esp32DevKit(),
	"uno":          avrBoard("uno", "Arduino Uno", "arduino:avr:uno", 6),
	"nano":         avrBoard("nano", "Arduino Nano", "arduino:avr:nano", 8),
}

// esp32DevKit exposes the DevKit GPIO header as plain digital pins. The
// A<n> names follow the Arduino ESP32 core's ADC1 mapping.
func esp32DevKit() Board {
	gpio := []int{0, 2, 4, 5, 12, 13, 14, 15, 16, 17, 18, 19, 21, 22, 23, 25, 26, 27, 32, 33, 34, 35, 36, 39}
	b := Board{
		ID:         "esp32-devkit",
		Name:       "ESP32 DevKit",
		FQBN:       "esp32:esp32:esp32",
		LEDBuiltin: 2,
		ADC:        map[string]int{"A0": 36, "A3": 39, "A4": 32, "A5": 33, "A6": 34, "A7": 35},
	}
	for _, n := range gpio {
		b.Pins = append(b.Pins, PinSpec{ID: strconv.Itoa(n), Number: n, Kind: Digital})
	}
	return b
}

// avrBoard is the classic D0-D13 header with PWM on 3, 5, 6, 9, 10, 11 and
// analogs A0.. numbered from 14.
func avrBoard(id, name, fqbn string, analogs int) Board {
	pwm := map[int]bool{3: true, 5: true, 6: true, 9: true, 10: true, 11: true}
	b := Board{ID: id, Name: name, FQBN: fqbn, LEDBuiltin: 13}
	for n := 0; n <= 13; n++ {
		kind := Digital
		if pwm[n] {
			kind = PWM
		}
		b.Pins = append(b.Pins, PinSpec{ID: strconv.Itoa(n), Number: n, Kind: kind})
	}
	for i := 0; i < analogs; i++ {
		b.Pins = append(b.Pins, PinSpec{ID: fmt.Sprintf("A%d", i), Number: 14 + i, Kind: Analog})
	}
	return b
}

// LookupBoard finds a board by ID.
func LookupBoard(id string) (Board, bool) {
	b, ok := boards[id]
	return b, ok
}

// Boards lists the catalogue sorted by ID.
func Boards() []Board {
	out := make([]Board, 0, len(boards))
	for _, b := range boards {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
