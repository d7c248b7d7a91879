// Package ide is the EmbeddedIDE surface: a sketch editor beside the live
// pin grid of the hardware simulator.
package ide

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/canvas/internal/hwsim"
	"github.com/zjrosen/canvas/internal/keys"
	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/mode/editor"
	"github.com/zjrosen/canvas/internal/pubsub"
	"github.com/zjrosen/canvas/internal/ui/styles"
	"github.com/zjrosen/canvas/internal/workspace"
)

// GridWidth is the width of the pin pane including its border.
const GridWidth = 30

// snapshotMsg is a simulator snapshot for the IDE that subscribed to it.
// Snapshots of a torn-down IDE carry a stale owner and are dropped.
type snapshotMsg struct {
	owner *IDE
	snap  hwsim.Snapshot
}

// IDE is the surface.
type IDE struct {
	sim      *hwsim.Runtime
	port     string
	editor   *editor.Editor
	listener *pubsub.ContinuousListener[hwsim.Snapshot]
	cancel   context.CancelFunc

	snap      hwsim.Snapshot
	cursor    int
	focusPins bool

	width, height int
}

var (
	_ mode.Surface           = (*IDE)(nil)
	_ mode.Flasher           = (*IDE)(nil)
	_ mode.StatusReporter    = (*IDE)(nil)
	_ mode.Focusable         = (*IDE)(nil)
	_ workspace.TextAccessor = (*IDE)(nil)
	_ workspace.TextSetter   = (*IDE)(nil)
	_ workspace.Teardowner   = (*IDE)(nil)
)

// New subscribes to sim. port is where Flash uploads.
func New(sim *hwsim.Runtime, port string) *IDE {
	ctx, cancel := context.WithCancel(context.Background())
	i := &IDE{
		sim:      sim,
		port:     port,
		editor:   editor.New(editor.Options{Language: "arduino", LineNumbers: true}),
		listener: pubsub.NewContinuousListener(ctx, sim.Events()),
		cancel:   cancel,
	}
	i.snap = hwsim.Snapshot{Board: sim.Board().ID, State: hwsim.Idle, Pins: sim.Pins()}
	if sim.Running() {
		i.snap.State = hwsim.Running
	}
	return i
}

func (i *IDE) Init() tea.Cmd {
	return tea.Batch(i.editor.Focus(), i.listen())
}

func (i *IDE) listen() tea.Cmd {
	next := i.listener.Listen()
	return func() tea.Msg {
		ev, ok := next().(pubsub.Event[hwsim.Snapshot])
		if !ok {
			return nil
		}
		return snapshotMsg{owner: i, snap: ev.Payload}
	}
}

// Teardown ends the subscription.
func (i *IDE) Teardown() { i.cancel() }

func (i *IDE) SetText(text string) { i.editor.SetText(text) }

func (i *IDE) Text() string { return i.editor.Text() }

func (i *IDE) Focus() tea.Cmd {
	if i.focusPins {
		return nil
	}
	return i.editor.Focus()
}

func (i *IDE) Blur() { i.editor.Blur() }

// Snapshot is the last simulator state seen.
func (i *IDE) Snapshot() hwsim.Snapshot { return i.snap }

// Cursor is the selected pin row.
func (i *IDE) Cursor() int { return i.cursor }

// Flash uploads text to the board on the configured port.
func (i *IDE) Flash(ctx context.Context, text string) tea.Cmd {
	sim, port := i.sim, i.port
	return func() tea.Msg {
		err := sim.Flash(ctx, text, port)
		res := mode.ResultMsg{Source: "flash", Err: err}
		if err == nil {
			res.Text = "Flash finished"
		}
		return res
	}
}

func (i *IDE) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case snapshotMsg:
		if msg.owner != i {
			return nil
		}
		i.snap = msg.snap
		i.cursor = min(i.cursor, max(len(i.snap.Pins)-1, 0))
		return i.listen()
	case tea.KeyMsg:
		if key.Matches(msg, keys.IDE.Focus) {
			i.focusPins = !i.focusPins
			if i.focusPins {
				i.editor.Blur()
				return nil
			}
			return i.editor.Focus()
		}
		if i.focusPins {
			return i.handlePinKey(msg)
		}
	}
	return i.editor.Update(msg)
}

func (i *IDE) handlePinKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.IDE.Up):
		i.cursor = max(i.cursor-1, 0)
	case key.Matches(msg, keys.IDE.Down):
		i.cursor = min(i.cursor+1, max(len(i.snap.Pins)-1, 0))
	case key.Matches(msg, keys.IDE.Toggle):
		return i.toggle()
	case key.Matches(msg, keys.IDE.NextBoard):
		return i.nextBoard()
	}
	return nil
}

// toggle flips the selected pin when it is an input.
func (i *IDE) toggle() tea.Cmd {
	if i.cursor >= len(i.snap.Pins) {
		return nil
	}
	p := i.snap.Pins[i.cursor]
	if p.Mode == hwsim.Output {
		return result("ide", fmt.Errorf("pin %s is an output", p.ID))
	}
	level := hwsim.High
	if p.Value == hwsim.High {
		level = hwsim.Low
	}
	i.sim.SetInput(p.ID, level)
	// The snapshot arrives through the listener; reflect it now so a quick
	// second toggle reads the new level.
	i.snap.Pins[i.cursor].Value = level
	return nil
}

// nextBoard selects the board after the current one in the catalogue.
func (i *IDE) nextBoard() tea.Cmd {
	boards := hwsim.Boards()
	next := boards[0]
	for n, b := range boards {
		if b.ID == i.snap.Board {
			next = boards[(n+1)%len(boards)]
			break
		}
	}
	if err := i.sim.SetBoard(next.ID); err != nil {
		if errors.Is(err, hwsim.ErrBusy) {
			err = errors.New("stop the simulation before changing boards")
		}
		return result("ide", err)
	}
	i.snap = hwsim.Snapshot{Board: next.ID, State: hwsim.Idle, Pins: i.sim.Pins()}
	i.cursor = 0
	log.Debug(log.CatUI, "board switched", "board", next.ID)
	return result("ide", nil, next.Name)
}

func result(source string, err error, text ...string) tea.Cmd {
	res := mode.ResultMsg{Source: source, Err: err, Text: strings.Join(text, " ")}
	return func() tea.Msg { return res }
}

// Status is board, run state, loop count and simulated time.
func (i *IDE) Status() string {
	s := fmt.Sprintf("%s · %s", i.snap.Board, i.snap.State)
	if i.snap.State == hwsim.Running || i.snap.Iteration > 0 {
		d := time.Duration(i.snap.Millis) * time.Millisecond
		s += fmt.Sprintf(" · loop %d · %s", i.snap.Iteration, d.Truncate(100*time.Millisecond))
	}
	return s
}

func (i *IDE) SetSize(width, height int) {
	i.width, i.height = width, height
	i.editor.SetSize(max(width-GridWidth, 10), height)
}

func (i *IDE) View() string {
	grid := styles.Pane(styles.PaneConfig{
		Content: RenderPins(i.snap.Pins, i.cursor, i.focusPins, max(i.height-2, 1)),
		Width:   GridWidth,
		Height:  i.height,
		Title:   "Pins",
		Status:  string(i.snap.State),
		Footer:  i.snap.Board,
		Focused: i.focusPins,
	})
	return lipgloss.JoinHorizontal(lipgloss.Top, i.editor.View(), grid)
}

// RenderPins draws one row per pin, scrolled so the cursor row is visible:
//
//	> ● 13   OUTPUT  HIGH
func RenderPins(pins []hwsim.Pin, cursor int, showCursor bool, height int) string {
	if len(pins) == 0 {
		return styles.HintStyle.Render("No pins")
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(pins))

	rows := make([]string, 0, end-start)
	for n := start; n < end; n++ {
		p := pins[n]
		marker := "  "
		if showCursor && n == cursor {
			marker = styles.SelectionIndicatorStyle.Render(">") + " "
		}
		led := styles.PinLowStyle.Render("○")
		if p.Value == hwsim.High {
			led = styles.PinHighStyle.Render("●")
		}
		dir := lipgloss.NewStyle().Foreground(styles.PinInputColor)
		if p.Mode == hwsim.Output {
			dir = lipgloss.NewStyle().Foreground(styles.PinOutputColor)
		}
		value := string(p.Value)
		if p.Kind == hwsim.PWM && p.Duty > 0 {
			value = fmt.Sprintf("PWM %d", p.Duty)
		}
		rows = append(rows, fmt.Sprintf("%s%s %-4s %s %s", marker, led, p.ID, dir.Render(fmt.Sprintf("%-7s", modeLabel(p.Mode))), value))
	}
	return strings.Join(rows, "\n")
}

func modeLabel(m hwsim.PinMode) string {
	switch m {
	case hwsim.InputPullup:
		return "PULLUP"
	case "":
		return "-"
	}
	return string(m)
}
