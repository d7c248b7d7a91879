// Package editor is the text surface used by Code, Markdown and Diagram
// modes: a textarea, optionally beside a live preview of what is typed.
package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/ui/styles"
)

// PreviewFunc renders text for the side pane at width.
type PreviewFunc func(text string, width int) string

// Options configures an Editor.
type Options struct {
	Language    string
	LineNumbers bool
	Placeholder string
	Preview     PreviewFunc
}

// Editor is a textarea surface. It hands back exactly the text it was given
// until the user edits it, since the textarea normalises tabs and control
// characters on input.
type Editor struct {
	opts   Options
	area   textarea.Model
	seeded string
	edited bool
	width  int
	height int
}

var (
	_ mode.Surface   = (*Editor)(nil)
	_ mode.Focusable = (*Editor)(nil)
)

// New creates an editor.
func New(opts Options) *Editor {
	ta := textarea.New()
	ta.ShowLineNumbers = opts.LineNumbers
	ta.Placeholder = opts.Placeholder
	// Unlimited: buffers must round-trip whatever was loaded.
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.MaxWidth = 0
	ta.Prompt = ""
	return &Editor{opts: opts, area: ta}
}

// Language is the source language shown in the pane title.
func (e *Editor) Language() string { return e.opts.Language }

func (e *Editor) Init() tea.Cmd { return textarea.Blink }

// Update forwards input to the textarea and notes whether it changed.
func (e *Editor) Update(msg tea.Msg) tea.Cmd {
	before := e.area.Value()
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	if !e.edited && e.area.Value() != before {
		e.edited = true
	}
	return cmd
}

// SetText replaces the content and resets the edit state.
func (e *Editor) SetText(text string) {
	e.area.SetValue(text)
	e.seeded = text
	e.edited = false
}

// Text returns the editor content.
func (e *Editor) Text() string {
	if !e.edited {
		return e.seeded
	}
	return e.area.Value()
}

// Edited reports whether the user changed the text since SetText.
func (e *Editor) Edited() bool { return e.edited }

func (e *Editor) Focus() tea.Cmd { return e.area.Focus() }

func (e *Editor) Blur() { e.area.Blur() }

// Focused reports whether the textarea takes keys.
func (e *Editor) Focused() bool { return e.area.Focused() }

// SetSize splits the area evenly with the preview when there is one.
func (e *Editor) SetSize(width, height int) {
	e.width, e.height = width, height
	if e.opts.Preview != nil {
		width = width / 2
	}
	e.area.SetWidth(max(width, 1))
	e.area.SetHeight(max(height, 1))
}

func (e *Editor) View() string {
	if e.opts.Preview == nil {
		return e.area.View()
	}
	left := e.width / 2
	right := max(e.width-left-1, 1)
	sep := lipgloss.NewStyle().Foreground(styles.BorderDefaultColor).
		Render(strings.TrimSuffix(strings.Repeat("│\n", max(e.height, 1)), "\n"))
	preview := lipgloss.NewStyle().Width(right).MaxWidth(right).Height(e.height).MaxHeight(e.height).
		Render(e.opts.Preview(e.Text(), right))
	return lipgloss.JoinHorizontal(lipgloss.Top, e.area.View(), sep, preview)
}
