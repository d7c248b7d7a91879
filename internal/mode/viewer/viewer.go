// Package viewer is the read-only surface used by Preview, JSONView, Diff
// and NotebookView: the buffer rendered by a mode-specific function into a
// scrollable viewport. Viewers never write the buffer back.
package viewer

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/workspace"
)

// RenderFunc turns the buffer into the view at width. status is shown in
// the pane title.
type RenderFunc func(buf workspace.Buffer, width int) (view string, status string)

// Viewer displays a rendered buffer.
type Viewer struct {
	name     string
	render   RenderFunc
	buf      workspace.Buffer
	viewport viewport.Model
	status   string
	width    int
}

var (
	_ mode.Surface        = (*Viewer)(nil)
	_ mode.StatusReporter = (*Viewer)(nil)
	_ workspace.Renderer  = (*Viewer)(nil)
)

// New creates a viewer. name appears in debug logs.
func New(name string, render RenderFunc) *Viewer {
	return &Viewer{name: name, render: render, viewport: viewport.New(0, 0)}
}

func (v *Viewer) Init() tea.Cmd { return nil }

// Update scrolls.
func (v *Viewer) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return cmd
}

// Render shows buf.
func (v *Viewer) Render(buf workspace.Buffer) {
	v.buf = buf
	v.refresh()
	v.viewport.GotoTop()
}

func (v *Viewer) SetSize(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = height
	if width != v.width {
		v.width = width
		v.refresh()
	}
}

func (v *Viewer) View() string { return v.viewport.View() }

// Status is the render function's summary, e.g. "+3 -1".
func (v *Viewer) Status() string { return v.status }

// Content is the full rendered text, for tests and export of views.
func (v *Viewer) Content() string {
	view, _ := v.render(v.buf, max(v.width, 1))
	return view
}

func (v *Viewer) refresh() {
	if v.width <= 0 {
		return
	}
	view, status := v.render(v.buf, v.width)
	v.status = status
	v.viewport.SetContent(view)
	log.Debug(log.CatUI, "viewer rendered", "viewer", v.name, "bytes", len(v.buf.Text), "width", v.width)
}
