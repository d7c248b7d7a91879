package console

import "strings"

// Button indices.
const (
	BtnUp = iota
	BtnDown
	BtnLeft
	BtnRight
	BtnA
	BtnB
	BtnX
	BtnY
	NumButtons
)

var buttonNames = [NumButtons]string{"up", "down", "left", "right", "a", "b", "x", "y"}

// ButtonName returns the short label for b.
func ButtonName(b int) string {
	if b < 0 || b >= NumButtons {
		return "?"
	}
	return buttonNames[b]
}

// keyAliases maps terminal key names to buttons: arrows and WASD for the
// directions, z/j x/k c/u v/i for A B X Y.
var keyAliases = map[string]int{
	"up": BtnUp, "w": BtnUp,
	"down": BtnDown, "s": BtnDown,
	"left": BtnLeft, "a": BtnLeft,
	"right": BtnRight, "d": BtnRight,
	"z": BtnA, "j": BtnA,
	"x": BtnB, "k": BtnB,
	"c": BtnX, "u": BtnX,
	"v": BtnY, "i": BtnY,
}

// KeyButton resolves a key name as reported by Bubble Tea.
func KeyButton(key string) (int, bool) {
	b, ok := keyAliases[strings.ToLower(key)]
	return b, ok
}

// FrameState is the input seen by one frame. Prev is the previous frame's
// Buttons; Held counts consecutive frames each button has been down.
type FrameState struct {
	Tick    uint64
	Buttons [NumButtons]bool
	Prev    [NumButtons]bool
	Held    [NumButtons]int
}

// Pressed reports a transition from up to down on this frame.
func (f FrameState) Pressed(b int) bool {
	if b < 0 || b >= NumButtons {
		return false
	}
	return f.Buttons[b] && !f.Prev[b]
}

// Repeat implements btnp(id, hold, period): the press edge, then every
// period frames once the button has been held for hold frames.
func (f FrameState) Repeat(b, hold, period int) bool {
	if f.Pressed(b) {
		return true
	}
	if b < 0 || b >= NumButtons || !f.Buttons[b] || hold <= 0 || period <= 0 {
		return false
	}
	d := f.Held[b] - 1
	return d >= hold && (d-hold)%period == 0
}

// Mask packs Buttons into the btn() bitfield.
func (f FrameState) Mask() int {
	m := 0
	for i, down := range f.Buttons {
		if down {
			m |= 1 << i
		}
	}
	return m
}

// inputLatch collects key events between frames. Terminals report presses
// but not releases, so a tap holds its button for a number of frames.
type inputLatch struct {
	down [NumButtons]bool
	hold [NumButtons]int
}

func (l *inputLatch) poll() [NumButtons]bool {
	var out [NumButtons]bool
	for i := range out {
		out[i] = l.down[i] || l.hold[i] > 0
		if l.hold[i] > 0 {
			l.hold[i]--
		}
	}
	return out
}
