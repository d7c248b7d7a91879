package hwsim

import (
	"strconv"
	"strings"
	"sync"

	"github.com/zjrosen/canvas/internal/hostscript"
)

// PinMode is the configured direction of a pin.
type PinMode string

const (
	Input       PinMode = "INPUT"
	Output      PinMode = "OUTPUT"
	InputPullup PinMode = "INPUT_PULLUP"
)

// Level is a digital pin value.
type Level string

const (
	High Level = "HIGH"
	Low  Level = "LOW"
)

// Pin is the simulated state of one pin. Duty holds the last analogWrite
// value (0-255).
type Pin struct {
	ID    string
	Mode  PinMode
	Value Level
	Kind  PinKind
	Duty  int
}

// PinTable holds the pins of the selected board. It is written by the run
// goroutine and read by the UI through Snapshot.
type PinTable struct {
	mu    sync.RWMutex
	order []string
	pins  map[string]*Pin
	byNum map[int]string
}

// NewPinTable builds a table with every pin of b as INPUT/LOW.
func NewPinTable(b Board) *PinTable {
	t := &PinTable{}
	t.Reset(b)
	return t
}

// Reset discards all state and rebuilds the table for b.
func (t *PinTable) Reset(b Board) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = make([]string, 0, len(b.Pins))
	t.pins = make(map[string]*Pin, len(b.Pins))
	t.byNum = make(map[int]string, len(b.Pins))
	for _, spec := range b.Pins {
		t.order = append(t.order, spec.ID)
		t.pins[spec.ID] = &Pin{ID: spec.ID, Mode: Input, Value: Low, Kind: spec.Kind}
		t.byNum[spec.Number] = spec.ID
	}
}

// resolve maps a script argument (a number such as 2 or 14, or a name such
// as "A0" or "13") to a pin ID. ok is false for pins the board lacks.
func (t *PinTable) resolve(v hostscript.Value) (string, bool) {
	var id string
	switch x := v.(type) {
	case string:
		id = strings.TrimSpace(x)
		if n, err := strconv.Atoi(id); err == nil {
			id = t.byNum[n]
		}
	case float64, bool:
		id = t.byNum[hostscript.ToInt(x)]
	default:
		return "", false
	}
	_, ok := t.pins[id]
	return id, ok
}

func (t *PinTable) update(v hostscript.Value, fn func(p *Pin)) (Pin, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.resolve(v)
	if !ok {
		return Pin{}, false
	}
	p := t.pins[id]
	fn(p)
	return *p, true
}

// Get returns a copy of the pin addressed by v.
func (t *PinTable) Get(v hostscript.Value) (Pin, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.resolve(v)
	if !ok {
		return Pin{}, false
	}
	return *t.pins[id], true
}

// Snapshot copies every pin in board order.
func (t *PinTable) Snapshot() []Pin {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Pin, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.pins[id])
	}
	return out
}

// levelOf normalizes a digitalWrite argument: "HIGH", true or any non-zero
// number is HIGH, everything else LOW.
func levelOf(v hostscript.Value) Level {
	switch x := v.(type) {
	case string:
		if strings.EqualFold(strings.TrimSpace(x), string(High)) {
			return High
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil && n != 0 {
			return High
		}
		return Low
	case bool:
		if x {
			return High
		}
	case float64:
		if x != 0 {
			return High
		}
	}
	return Low
}

func modeOf(v hostscript.Value) PinMode {
	switch strings.ToUpper(hostscript.ToString(v)) {
	case string(Output), "1":
		return Output
	case string(InputPullup), "2":
		return InputPullup
	}
	return Input
}
