package viewer

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/ui/highlight"
	"github.com/zjrosen/canvas/internal/ui/markdown"
	"github.com/zjrosen/canvas/internal/workspace"
)

func newMarkdown(t *testing.T) *markdown.Renderer {
	t.Helper()
	md, err := markdown.New(60, "notty")
	require.NoError(t, err)
	return md
}

func TestViewer_RendersOnlyOnceSized(t *testing.T) {
	calls := 0
	v := New("test", func(buf workspace.Buffer, width int) (string, string) {
		calls++
		return buf.Text, "ok"
	})
	v.Render(workspace.Buffer{Text: "hello"})
	require.Zero(t, calls)

	v.SetSize(20, 5)
	require.Equal(t, 1, calls)
	require.Equal(t, "ok", v.Status())
	require.Contains(t, v.View(), "hello")

	v.SetSize(20, 8)
	require.Equal(t, 1, calls, "height changes do not re-render")
	v.SetSize(30, 8)
	require.Equal(t, 2, calls)
}

func TestViewer_RenderReplacesContent(t *testing.T) {
	v := New("test", func(buf workspace.Buffer, _ int) (string, string) { return buf.Text, "" })
	v.SetSize(20, 5)
	v.Render(workspace.Buffer{Text: "first"})
	v.Render(workspace.Buffer{Text: "second"})
	require.Contains(t, v.View(), "second")
	require.NotContains(t, v.View(), "first")
	require.Equal(t, "second", v.Content())
}

func TestPreview(t *testing.T) {
	render := Preview(newMarkdown(t))

	view, status := render(workspace.Buffer{Text: "# Title\n\nSome text."}, 60)
	require.Equal(t, "markdown", status)
	require.Contains(t, view, "Title")
	require.Contains(t, view, "Some text.")

	view, status = render(workspace.Buffer{Text: "  \n"}, 60)
	require.Empty(t, status)
	require.Contains(t, ansi.Strip(view), "Nothing to preview")
}

func TestJSON(t *testing.T) {
	render := JSON(highlight.New(""))

	tests := []struct {
		name   string
		text   string
		status string
		want   string
	}{
		{name: "object", text: `{"a":1,"b":[1,2]}`, status: "2 keys", want: "  \"a\": 1,"},
		{name: "array", text: `[1,2,3]`, status: "3 items", want: "  1,"},
		{name: "scalar", text: `42`, status: "json", want: "42"},
		{name: "invalid", text: `{"a":`, status: "invalid JSON", want: "invalid JSON: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, status := render(workspace.Buffer{Text: tt.text}, 80)
			require.Equal(t, tt.status, status)
			require.Contains(t, ansi.Strip(view), tt.want)
		})
	}
}

func TestDiff(t *testing.T) {
	buf := workspace.Buffer{Original: "a\nb\n", Text: "a\nc\n"}
	render := Diff()

	view, status := render(buf, 80)
	require.Equal(t, "+1 -1", status)
	rows := strings.Split(ansi.Strip(view), "\n")
	require.Equal(t, "1 1   a", rows[0])

	buf.Text = buf.Original
	view, status = render(buf, 80)
	require.Equal(t, "clean", status)
	require.Contains(t, ansi.Strip(view), "No changes since load")
}

func TestDiff_AppendOnly(t *testing.T) {
	_, status := Diff()(workspace.Buffer{Original: "a\n", Text: "a\nb\n"}, 80)
	require.Equal(t, "+1 -0", status)
}

func TestNotebook_Ipynb(t *testing.T) {
	const nb = `{
  "metadata": {"language_info": {"name": "python"}},
  "cells": [
    {"cell_type": "markdown", "source": ["# Analysis\n", "Loads data."]},
    {"cell_type": "code", "source": "print(1 + 1)", "outputs": [{"text": ["2\n"]}]},
    {"cell_type": "code", "source": ["x = 3"], "outputs": [{"data": {"text/plain": "3"}}]}
  ]
}`
	view, status := Notebook(newMarkdown(t), highlight.New(""))(workspace.Buffer{Text: nb}, 60)
	require.Equal(t, "3 cells", status)

	plain := ansi.Strip(view)
	require.Contains(t, plain, "Analysis")
	require.Contains(t, plain, "In [1]:\nprint(1 + 1)\n2\n")
	require.Contains(t, plain, "In [2]:\nx = 3\n3\n")
}

func TestNotebook_MarkdownFallback(t *testing.T) {
	text := "# Notes\n\n```python\nprint(1)\n```\n\ntext\n\n```python\nprint(2)\n```\n"
	view, status := Notebook(newMarkdown(t), highlight.New(""))(workspace.Buffer{Text: text}, 60)
	require.Equal(t, "2 code cells", status)
	require.Contains(t, ansi.Strip(view), "print(2)")
}
