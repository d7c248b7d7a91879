// Package mode defines the contract between the app and the per-mode
// surfaces, and the services injected into them.
package mode

import (
	"context"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/canvas/internal/config"
	"github.com/zjrosen/canvas/internal/console"
	"github.com/zjrosen/canvas/internal/hwsim"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/services"
	"github.com/zjrosen/canvas/internal/ui/highlight"
	"github.com/zjrosen/canvas/internal/ui/markdown"
)

// Surface is a workspace surface that takes part in the Bubble Tea loop.
// The controller owns the surface and calls SetText or Render on restore,
// so surfaces are pointers mutated in place rather than values returned
// from Update.
type Surface interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
}

// Focusable surfaces hold keyboard focus in one of several panes.
type Focusable interface {
	Focus() tea.Cmd
	Blur()
}

// Runner is implemented by surfaces that run the buffer themselves instead
// of through a workspace runtime host (the execution service, the
// terminal). text is the saved buffer.
type Runner interface {
	Run(ctx context.Context, text string) tea.Cmd
}

// Stopper cancels what a Runner started.
type Stopper interface {
	StopRun()
}

// Flasher is implemented by the embedded IDE.
type Flasher interface {
	Flash(ctx context.Context, text string) tea.Cmd
}

// StatusReporter supplies the right-hand title of the surface's pane.
type StatusReporter interface {
	Status() string
}

// Services contains shared dependencies injected into surfaces.
type Services struct {
	Config    *config.Config
	Log       *runlog.Broker
	Clock     clock.Clock
	Sim       *hwsim.Runtime
	Console   *console.Runtime
	Exec      *services.ExecClient
	Markdown  *markdown.Renderer
	Highlight *highlight.Highlighter
}

// ResultMsg reports the end of a surface-started job (execution, flash).
// The app turns it into a toast.
type ResultMsg struct {
	Source string
	Err    error
	Text   string
}
