// Package execute is the Execute surface: an editor whose buffer is sent to
// the execution service, with the streamed stdout and stderr shown below.
package execute

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/canvas/internal/keys"
	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/mode/editor"
	"github.com/zjrosen/canvas/internal/mode/shared"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/services"
	"github.com/zjrosen/canvas/internal/ui/logpane"
	"github.com/zjrosen/canvas/internal/ui/styles"
	"github.com/zjrosen/canvas/internal/workspace"
)

// DefaultLanguage is sent when neither the buffer nor the options name one.
const DefaultLanguage = "python"

// Options configures the surface.
type Options struct {
	Exec      *services.ExecClient
	Log       *runlog.Broker
	Clock     clock.Clock
	Language  string
	UseDocker bool
	// BufferLanguage reads the workspace buffer's declared language, which
	// wins over Language when it names a runnable one.
	BufferLanguage func() string
}

// outputMsg is one stdout/stderr event of the running job.
type outputMsg struct{ ev services.StreamEvent }

// doneMsg ends a job with its complete event or failure.
type doneMsg struct {
	ev  services.StreamEvent
	err error
}

// Execute is the surface.
type Execute struct {
	opts   Options
	sink   *runlog.Sink
	clock  clock.Clock
	editor *editor.Editor
	out    logpane.Model

	job      *shared.Job
	exitCode int
	ran      bool
	focusOut bool

	width, height int
}

var (
	_ mode.Surface           = (*Execute)(nil)
	_ mode.Runner            = (*Execute)(nil)
	_ mode.Stopper           = (*Execute)(nil)
	_ mode.StatusReporter    = (*Execute)(nil)
	_ mode.Focusable         = (*Execute)(nil)
	_ workspace.TextAccessor = (*Execute)(nil)
	_ workspace.TextSetter   = (*Execute)(nil)
	_ workspace.Teardowner   = (*Execute)(nil)
)

func New(opts Options) *Execute {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Execute{
		opts:   opts,
		clock:  clk,
		sink:   runlog.NewSink(opts.Log, "execute", log.CatService, clk),
		editor: editor.New(editor.Options{Language: opts.Language, LineNumbers: true}),
		out:    logpane.New(0),
	}
}

func (e *Execute) Init() tea.Cmd { return e.editor.Focus() }

func (e *Execute) Focus() tea.Cmd {
	if e.focusOut {
		return nil
	}
	return e.editor.Focus()
}

func (e *Execute) Blur() { e.editor.Blur() }

// SetText seeds the editor and clears the previous run's output.
func (e *Execute) SetText(text string) {
	e.editor.SetText(text)
	e.out = e.out.Clear()
	e.ran = false
}

func (e *Execute) Text() string { return e.editor.Text() }

// Running reports whether a job is in flight.
func (e *Execute) Running() bool { return e.job != nil }

// Output is the captured run output.
func (e *Execute) Output() []runlog.Line { return e.out.Lines() }

// Language is what Run will send.
func (e *Execute) Language() string {
	if e.opts.BufferLanguage != nil {
		switch lang := e.opts.BufferLanguage(); lang {
		case "", "text", "markdown", "json", "csv", "mermaid":
		default:
			return lang
		}
	}
	if e.opts.Language != "" {
		return e.opts.Language
	}
	return DefaultLanguage
}

// Run sends text to the execution service and streams its output.
func (e *Execute) Run(ctx context.Context, text string) tea.Cmd {
	if e.job != nil {
		e.sink.Warnf("Execution already running")
		return nil
	}
	if e.opts.Exec == nil {
		e.sink.Infof("No execution service configured")
		return nil
	}
	req := services.ExecRequest{Code: text, Language: e.Language(), UseDocker: e.opts.UseDocker}
	e.out = e.out.Clear()
	e.ran = true
	e.sink.Infof("Executing %s (%d bytes)", req.Language, len(text))

	exec := e.opts.Exec
	job, cmd := shared.StartJob(ctx, func(ctx context.Context, send func(tea.Msg)) tea.Msg {
		ev, err := exec.Stream(ctx, req, func(ev services.StreamEvent) error {
			if ev.Type != services.StreamComplete {
				send(outputMsg{ev: ev})
			}
			return nil
		})
		return doneMsg{ev: ev, err: err}
	})
	e.job = job
	return cmd
}

// StopRun cancels the job. Its completion still arrives and is reported.
func (e *Execute) StopRun() {
	if e.job == nil {
		return
	}
	e.job.Cancel()
}

// Teardown abandons a running job.
func (e *Execute) Teardown() {
	e.job.Release()
	e.job = nil
}

func (e *Execute) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case shared.JobMsg:
		if e.job == nil || msg.ID != e.job.ID() {
			return nil
		}
		return e.handleJob(msg.Msg)
	case tea.KeyMsg:
		if key.Matches(msg, keys.Output.Focus) {
			e.focusOut = !e.focusOut
			if e.focusOut {
				e.editor.Blur()
				return nil
			}
			return e.editor.Focus()
		}
		if e.focusOut {
			var cmd tea.Cmd
			e.out, cmd = e.out.Update(msg)
			return cmd
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		e.out, cmd = e.out.Update(msg)
		return cmd
	}
	return e.editor.Update(msg)
}

func (e *Execute) handleJob(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case outputMsg:
		level := runlog.Info
		if msg.ev.Type == services.StreamStderr {
			level = runlog.Warning
		}
		e.out = e.out.Append(runlog.Line{Time: e.clock.Now(), Level: level, Source: string(msg.ev.Type), Text: msg.ev.Text})
		return e.job.Next()
	case doneMsg:
		cancelled := e.job.Done()
		e.job = nil
		return e.finish(msg, cancelled)
	}
	return nil
}

func (e *Execute) finish(msg doneMsg, cancelled bool) tea.Cmd {
	var res mode.ResultMsg
	res.Source = "execute"
	switch {
	case msg.err != nil && (cancelled || errors.Is(msg.err, context.Canceled)):
		e.sink.Warnf("Execution cancelled")
		res.Text = "Execution cancelled"
	case msg.err != nil:
		e.sink.Errorf("%v", msg.err)
		res.Err = msg.err
	case msg.ev.Error != "":
		e.sink.Errorf("%s", msg.ev.Error)
		res.Err = errors.New(msg.ev.Error)
	default:
		e.exitCode = msg.ev.ExitCode
		if e.exitCode == 0 {
			e.sink.Successf("Exited with code 0")
		} else {
			e.sink.Warnf("Exited with code %d", e.exitCode)
		}
		res.Text = fmt.Sprintf("Exited with code %d", e.exitCode)
	}
	return func() tea.Msg { return res }
}

// Status is the pane title: run state and last exit code.
func (e *Execute) Status() string {
	switch {
	case e.job != nil:
		return "running " + e.Language()
	case e.ran:
		return fmt.Sprintf("exit %d", e.exitCode)
	}
	return e.Language()
}

// SetSize gives the editor three fifths of the height and the output pane
// the rest.
func (e *Execute) SetSize(width, height int) {
	e.width, e.height = width, height
	edH := max(height*3/5, 1)
	outH := max(height-edH, 3)
	e.editor.SetSize(width, edH)
	e.out = e.out.SetSize(max(width-2, 1), max(outH-2, 1))
}

func (e *Execute) View() string {
	edH := max(e.height*3/5, 1)
	outH := max(e.height-edH, 3)
	out := styles.Pane(styles.PaneConfig{
		Content: e.out.View(),
		Width:   e.width,
		Height:  outH,
		Title:   "Output",
		Status:  e.Status(),
		Focused: e.focusOut,
	})
	return lipgloss.JoinVertical(lipgloss.Left, e.editor.View(), out)
}
