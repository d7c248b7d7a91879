// Package logpane shows the workspace run log: runtime output, transpile
// warnings and service results, newest at the bottom.
package logpane

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/ui/styles"
)

// DefaultCapacity is how many lines the pane keeps.
const DefaultCapacity = 1000

// stampWidth is len("15:04:05.000 ").
const stampWidth = 13

// Model is the log pane component state.
type Model struct {
	lines    []runlog.Line
	capacity int
	minLevel runlog.Level
	viewport viewport.Model
	width    int
	height   int
	// follow keeps the view pinned to the newest line until the user
	// scrolls up.
	follow bool
}

// New creates an empty log pane.
func New(capacity int) Model {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return Model{
		capacity: capacity,
		minLevel: runlog.Info,
		viewport: viewport.New(0, 0),
		follow:   true,
	}
}

// Append adds a line, dropping the oldest past capacity.
func (m Model) Append(line runlog.Line) Model {
	m.lines = append(m.lines, line)
	if over := len(m.lines) - m.capacity; over > 0 {
		m.lines = append([]runlog.Line(nil), m.lines[over:]...)
	}
	m.refresh()
	return m
}

// Clear empties the pane.
func (m Model) Clear() Model {
	m.lines = nil
	m.follow = true
	m.refresh()
	return m
}

// Lines returns the retained lines, oldest first.
func (m Model) Lines() []runlog.Line { return m.lines }

// SetSize sets the content area, excluding any border the caller draws.
func (m Model) SetSize(width, height int) Model {
	m.width, m.height = width, height
	m.viewport.Width = width
	m.viewport.Height = height
	m.refresh()
	return m
}

// SetMinLevel hides lines below level. Success counts as info.
func (m Model) SetMinLevel(level runlog.Level) Model {
	m.minLevel = level
	m.refresh()
	return m
}

// Update scrolls the pane. Callers route keys here only while it has focus.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "c":
			return m.Clear(), nil
		case "e":
			return m.SetMinLevel(runlog.Error), nil
		case "w":
			return m.SetMinLevel(runlog.Warning), nil
		case "i":
			return m.SetMinLevel(runlog.Info), nil
		case "G", "end":
			m.viewport.GotoBottom()
			m.follow = true
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.follow = m.viewport.AtBottom()
	return m, cmd
}

// View renders the visible window of the log.
func (m Model) View() string {
	if len(m.lines) == 0 {
		return styles.HintStyle.Italic(true).Render("No output yet")
	}
	return m.viewport.View()
}

func (m *Model) refresh() {
	if m.width <= 0 {
		return
	}
	var rows []string
	for _, l := range m.lines {
		if rank(l.Level) < rank(m.minLevel) {
			continue
		}
		rows = append(rows, Format(l, m.width))
	}
	m.viewport.SetContent(strings.Join(rows, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// Format renders one line wrapped to width, continuation lines indented
// under the text so timestamps stay in their own column.
func Format(l runlog.Line, width int) string {
	stamp := styles.HintStyle.Render(l.Time.Format("15:04:05.000"))
	tag := lipgloss.NewStyle().Foreground(styles.LevelColor(string(l.Level))).Render(l.Level.Tag())

	textWidth := max(width-stampWidth, 10)
	body := wordwrap.String(l.Level.Tag()+" "+l.Text, textWidth)
	first, rest, wrapped := strings.Cut(body, "\n")
	first = tag + strings.TrimPrefix(first, l.Level.Tag())

	out := stamp + " " + first
	if wrapped {
		out += "\n" + indent.String(rest, stampWidth)
	}
	return out
}

func rank(l runlog.Level) int {
	switch l {
	case runlog.Error:
		return 2
	case runlog.Warning:
		return 1
	default:
		return 0
	}
}
