// Package terminal is the Terminal surface: a shell prompt whose commands,
// and the buffer itself on Run, execute through the execution service.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/mode/shared"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/services"
	"github.com/zjrosen/canvas/internal/ui/styles"
	"github.com/zjrosen/canvas/internal/workspace"
)

const (
	DefaultShell  = "bash"
	maxScrollback = 2000
	historyLimit  = 100
	defaultPrompt = "$ "
	scriptBanner  = "# running buffer"
	noService     = "no execution service configured"
)

// Kind of a scrollback entry.
type Kind int

const (
	Command Kind = iota
	Stdout
	Stderr
	Notice
)

// Entry is one scrollback item.
type Entry struct {
	Kind Kind
	Text string
}

type outputMsg struct{ ev services.StreamEvent }

type doneMsg struct {
	ev  services.StreamEvent
	err error
}

// Options configures a terminal.
type Options struct {
	Exec      *services.ExecClient
	Log       *runlog.Broker
	Clock     clock.Clock
	Shell     string
	UseDocker bool
}

// Terminal is the surface.
type Terminal struct {
	opts   Options
	sink   *runlog.Sink
	input  textinput.Model
	scroll viewport.Model

	entries []Entry
	history []string
	histPos int
	script  string

	job *shared.Job
	ctx context.Context

	width, height int
}

var (
	_ mode.Surface         = (*Terminal)(nil)
	_ mode.Runner          = (*Terminal)(nil)
	_ mode.Stopper         = (*Terminal)(nil)
	_ mode.StatusReporter  = (*Terminal)(nil)
	_ mode.Focusable       = (*Terminal)(nil)
	_ workspace.Renderer   = (*Terminal)(nil)
	_ workspace.Teardowner = (*Terminal)(nil)
)

var (
	commandStyle = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)
	stderrStyle  = lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
	noticeStyle  = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
)

func New(opts Options) *Terminal {
	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	in := textinput.New()
	in.Prompt = defaultPrompt
	in.Placeholder = "command"
	in.CharLimit = 0
	return &Terminal{
		opts:   opts,
		sink:   runlog.NewSink(opts.Log, "terminal", log.CatService, opts.Clock),
		input:  in,
		scroll: viewport.New(0, 0),
		ctx:    context.Background(),
	}
}

func (t *Terminal) Init() tea.Cmd { return t.input.Focus() }

func (t *Terminal) Focus() tea.Cmd { return t.input.Focus() }

func (t *Terminal) Blur() { t.input.Blur() }

// Render keeps the buffer as the script Run executes.
func (t *Terminal) Render(buf workspace.Buffer) {
	t.script = buf.Text
	if strings.TrimSpace(buf.Text) == "" {
		return
	}
	n := strings.Count(strings.TrimRight(buf.Text, "\n"), "\n") + 1
	t.add(Entry{Kind: Notice, Text: fmt.Sprintf("# buffer holds a %d-line script; run it with ctrl+r", n)})
}

// Script is the buffer as last rendered.
func (t *Terminal) Script() string { return t.script }

// Entries is the scrollback.
func (t *Terminal) Entries() []Entry { return t.entries }

// Running reports whether a command is in flight.
func (t *Terminal) Running() bool { return t.job != nil }

// Run executes text, the saved buffer, as a script.
func (t *Terminal) Run(ctx context.Context, text string) tea.Cmd {
	t.ctx = ctx
	t.add(Entry{Kind: Notice, Text: scriptBanner})
	return t.start(ctx, text)
}

// StopRun cancels the command in flight.
func (t *Terminal) StopRun() { t.job.Cancel() }

func (t *Terminal) Teardown() {
	t.job.Release()
	t.job = nil
}

func (t *Terminal) start(ctx context.Context, code string) tea.Cmd {
	if t.job != nil {
		t.sink.Warnf("A command is already running")
		return nil
	}
	if t.opts.Exec == nil {
		t.add(Entry{Kind: Notice, Text: noService})
		t.sink.Infof("No execution service configured")
		return nil
	}
	req := services.ExecRequest{Code: code, Language: t.opts.Shell, UseDocker: t.opts.UseDocker}
	exec := t.opts.Exec
	job, cmd := shared.StartJob(ctx, func(ctx context.Context, send func(tea.Msg)) tea.Msg {
		ev, err := exec.Stream(ctx, req, func(ev services.StreamEvent) error {
			if ev.Type != services.StreamComplete {
				send(outputMsg{ev: ev})
			}
			return nil
		})
		return doneMsg{ev: ev, err: err}
	})
	t.job = job
	return cmd
}

func (t *Terminal) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case shared.JobMsg:
		if t.job == nil || msg.ID != t.job.ID() {
			return nil
		}
		return t.handleJob(msg.Msg)
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			return t.submit()
		case tea.KeyUp:
			t.recall(-1)
			return nil
		case tea.KeyDown:
			t.recall(1)
			return nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			t.scroll, cmd = t.scroll.Update(msg)
			return cmd
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		t.scroll, cmd = t.scroll.Update(msg)
		return cmd
	}
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return cmd
}

// submit runs the prompt line. "clear" and "history" are handled locally.
func (t *Terminal) submit() tea.Cmd {
	line := strings.TrimSpace(t.input.Value())
	t.input.SetValue("")
	if line == "" {
		return nil
	}
	t.remember(line)
	t.add(Entry{Kind: Command, Text: defaultPrompt + line})
	switch line {
	case "clear":
		t.entries = nil
		t.refresh()
		return nil
	case "history":
		for i, h := range t.history {
			t.add(Entry{Kind: Stdout, Text: fmt.Sprintf("%4d  %s", i+1, h)})
		}
		return nil
	}
	return t.start(t.ctx, line)
}

func (t *Terminal) remember(line string) {
	if n := len(t.history); n == 0 || t.history[n-1] != line {
		t.history = append(t.history, line)
	}
	if len(t.history) > historyLimit {
		t.history = t.history[len(t.history)-historyLimit:]
	}
	t.histPos = len(t.history)
}

// recall moves through history; past the newest entry the prompt clears.
func (t *Terminal) recall(delta int) {
	if len(t.history) == 0 {
		return
	}
	t.histPos = min(max(t.histPos+delta, 0), len(t.history))
	if t.histPos == len(t.history) {
		t.input.SetValue("")
		return
	}
	t.input.SetValue(t.history[t.histPos])
	t.input.CursorEnd()
}

func (t *Terminal) handleJob(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case outputMsg:
		kind := Stdout
		if msg.ev.Type == services.StreamStderr {
			kind = Stderr
		}
		t.add(Entry{Kind: kind, Text: strings.TrimRight(msg.ev.Text, "\n")})
		return t.job.Next()
	case doneMsg:
		cancelled := t.job.Done()
		t.job = nil
		res := mode.ResultMsg{Source: "terminal"}
		switch {
		case msg.err != nil && (cancelled || errors.Is(msg.err, context.Canceled)):
			t.add(Entry{Kind: Notice, Text: "^C"})
			return nil
		case msg.err != nil:
			t.add(Entry{Kind: Stderr, Text: msg.err.Error()})
			t.sink.Errorf("%v", msg.err)
			res.Err = msg.err
		case msg.ev.Error != "":
			t.add(Entry{Kind: Stderr, Text: msg.ev.Error})
			t.sink.Errorf("%s", msg.ev.Error)
			res.Err = errors.New(msg.ev.Error)
		case msg.ev.ExitCode != 0:
			t.add(Entry{Kind: Notice, Text: fmt.Sprintf("[exit %d]", msg.ev.ExitCode)})
			return nil
		default:
			return nil
		}
		return func() tea.Msg { return res }
	}
	return nil
}

func (t *Terminal) add(e Entry) {
	t.entries = append(t.entries, e)
	if len(t.entries) > maxScrollback {
		t.entries = t.entries[len(t.entries)-maxScrollback:]
	}
	t.refresh()
}

func (t *Terminal) refresh() {
	var b strings.Builder
	for i, e := range t.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		switch e.Kind {
		case Command:
			b.WriteString(commandStyle.Render(e.Text))
		case Stderr:
			b.WriteString(stderrStyle.Render(e.Text))
		case Notice:
			b.WriteString(noticeStyle.Render(e.Text))
		default:
			b.WriteString(e.Text)
		}
	}
	t.scroll.SetContent(b.String())
	t.scroll.GotoBottom()
}

// Status names the shell and whether a command runs.
func (t *Terminal) Status() string {
	if t.job != nil {
		return t.opts.Shell + " · running"
	}
	return t.opts.Shell
}

func (t *Terminal) SetSize(width, height int) {
	t.width, t.height = width, height
	t.scroll.Width = width
	t.scroll.Height = max(height-1, 1)
	t.input.Width = max(width-len(defaultPrompt)-1, 1)
	t.refresh()
}

func (t *Terminal) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, t.scroll.View(), t.input.View())
}
