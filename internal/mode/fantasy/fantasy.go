// Package fantasy is the FantasyConsole surface: a cartridge editor beside
// the console screen, which takes the keyboard while focused.
package fantasy

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zjrosen/canvas/internal/console"
	"github.com/zjrosen/canvas/internal/keys"
	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/mode/editor"
	"github.com/zjrosen/canvas/internal/pubsub"
	"github.com/zjrosen/canvas/internal/ui/styles"
	"github.com/zjrosen/canvas/internal/workspace"
)

type frameMsg struct {
	owner *Fantasy
	frame console.Frame
}

// stepMsg reports a single-stepped frame.
type stepMsg struct {
	owner *Fantasy
	err   error
}

// Options configures the surface.
type Options struct {
	// PixelScale is the smallest sampling step; the screen shrinks further
	// to fit its pane.
	PixelScale int
	// Profile selects the colour escapes. Zero uses lipgloss's detection.
	Profile *termenv.Profile
}

// Fantasy is the surface.
type Fantasy struct {
	rt       *console.Runtime
	opts     Options
	profile  termenv.Profile
	editor   *editor.Editor
	listener *pubsub.ContinuousListener[console.Frame]
	cancel   context.CancelFunc

	pixels      []uint8
	frame       console.Frame
	focusScreen bool
	stepping    bool

	width, height int
}

var (
	_ mode.Surface           = (*Fantasy)(nil)
	_ mode.StatusReporter    = (*Fantasy)(nil)
	_ mode.Focusable         = (*Fantasy)(nil)
	_ workspace.TextAccessor = (*Fantasy)(nil)
	_ workspace.TextSetter   = (*Fantasy)(nil)
	_ workspace.Teardowner   = (*Fantasy)(nil)
)

// New subscribes to rt's frames.
func New(rt *console.Runtime, opts Options) *Fantasy {
	ctx, cancel := context.WithCancel(context.Background())
	profile := lipgloss.ColorProfile()
	if opts.Profile != nil {
		profile = *opts.Profile
	}
	return &Fantasy{
		rt:       rt,
		opts:     opts,
		profile:  profile,
		editor:   editor.New(editor.Options{Language: "lua", LineNumbers: true}),
		listener: pubsub.NewContinuousListener(ctx, rt.Events()),
		cancel:   cancel,
		pixels:   rt.Pixels(),
		frame:    console.Frame{State: rt.State(), FPS: rt.FPS(), Tick: rt.Frame().Tick},
	}
}

func (f *Fantasy) Init() tea.Cmd { return tea.Batch(f.editor.Focus(), f.listen()) }

func (f *Fantasy) listen() tea.Cmd {
	next := f.listener.Listen()
	return func() tea.Msg {
		ev, ok := next().(pubsub.Event[console.Frame])
		if !ok {
			return nil
		}
		return frameMsg{owner: f, frame: ev.Payload}
	}
}

func (f *Fantasy) Teardown() { f.cancel() }

func (f *Fantasy) SetText(text string) { f.editor.SetText(text) }

func (f *Fantasy) Text() string { return f.editor.Text() }

func (f *Fantasy) Focus() tea.Cmd {
	if f.focusScreen {
		return nil
	}
	return f.editor.Focus()
}

func (f *Fantasy) Blur() { f.editor.Blur() }

// ScreenFocused reports whether keys go to the console.
func (f *Fantasy) ScreenFocused() bool { return f.focusScreen }

// Frame is the last frame shown.
func (f *Fantasy) Frame() console.Frame { return f.frame }

func (f *Fantasy) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case frameMsg:
		if msg.owner != f {
			return nil
		}
		f.frame = msg.frame
		f.pixels = msg.frame.Pixels
		return f.listen()
	case stepMsg:
		if msg.owner != f {
			return nil
		}
		f.stepping = false
		if msg.err == nil {
			return nil
		}
		err := msg.err
		switch {
		case errors.Is(err, console.ErrNotLoaded):
			err = errors.New("run the cartridge once before stepping")
		case errors.Is(err, console.ErrBusy):
			err = errStopFirst
		}
		res := mode.ResultMsg{Source: "console", Err: err}
		return func() tea.Msg { return res }
	case tea.KeyMsg:
		if key.Matches(msg, keys.Console.Focus) {
			f.focusScreen = !f.focusScreen
			if f.focusScreen {
				f.editor.Blur()
				return nil
			}
			return f.editor.Focus()
		}
		if key.Matches(msg, keys.Console.Step) {
			return f.step()
		}
		if f.focusScreen {
			f.rt.Key(msg.String())
			return nil
		}
	}
	return f.editor.Update(msg)
}

var errStopFirst = errors.New("stop the console before stepping")

// step advances a stopped console by one frame. The runtime refuses a step
// while its frame loop runs; one step command is in flight at a time.
func (f *Fantasy) step() tea.Cmd {
	if f.stepping {
		return nil
	}
	if f.rt.Running() {
		res := mode.ResultMsg{Source: "console", Err: errStopFirst}
		return func() tea.Msg { return res }
	}
	f.stepping = true
	rt := f.rt
	return func() tea.Msg {
		return stepMsg{owner: f, err: rt.Step(context.Background())}
	}
}

// Status is the state, frame counter and measured rate.
func (f *Fantasy) Status() string {
	switch f.frame.State {
	case console.Running:
		return fmt.Sprintf("running · frame %d · %.0f fps", f.frame.Tick, f.frame.FPS)
	case console.Halted:
		return fmt.Sprintf("halted at frame %d", f.frame.Tick)
	}
	if f.frame.Tick > 0 {
		return fmt.Sprintf("idle · frame %d", f.frame.Tick)
	}
	return "idle"
}

// screenSize is the pane holding the screen, borders included.
func (f *Fantasy) screenSize() (int, int, int) {
	maxCols := max(f.width/2-2, 1)
	step := Step(maxCols, max(f.height-2, 1), f.opts.PixelScale)
	cols := console.Width / step
	rows := (console.Height/step + 1) / 2
	return cols + 2, min(rows+2, max(f.height, 3)), step
}

func (f *Fantasy) SetSize(width, height int) {
	f.width, f.height = width, height
	w, _, _ := f.screenSize()
	f.editor.SetSize(max(width-w, 10), height)
}

func (f *Fantasy) View() string {
	w, h, step := f.screenSize()
	footer := "ctrl+w: play"
	if f.focusScreen {
		footer = "arrows/wasd z x c v"
	}
	screen := styles.Pane(styles.PaneConfig{
		Content: RenderScreen(f.pixels, step, f.profile),
		Width:   w,
		Height:  h,
		Title:   "Screen",
		Status:  f.Status(),
		Footer:  footer,
		Focused: f.focusScreen,
	})
	return lipgloss.JoinHorizontal(lipgloss.Top, f.editor.View(), screen)
}
