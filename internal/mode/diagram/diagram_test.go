package diagram

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/ui/highlight"
)

const doc = "```mermaid\nflowchart LR\n  A --> B\n  B -.-> C\n```\n\nsequenceDiagram\n  A->>B: hi\n  B-->>A: ok\n"

func TestSummarize(t *testing.T) {
	sums := Summarize(doc)
	require.Len(t, sums, 2)

	require.Equal(t, "flowchart 1", sums[0].Name)
	require.Equal(t, 3, sums[0].Lines)
	require.Equal(t, 2, sums[0].Edges)

	require.Equal(t, "sequenceDiagram 1", sums[1].Name)
	require.Equal(t, 2, sums[1].Edges)
}

func TestSummarize_NoDiagram(t *testing.T) {
	require.Empty(t, Summarize("just text\n"))
}

func TestOutline(t *testing.T) {
	view := ansi.Strip(Outline(highlight.New(""))(doc, 60))
	require.Contains(t, view, "flowchart 1  3 lines · 2 edges")
	require.Contains(t, view, "sequenceDiagram 1  3 lines · 2 edges")
	require.Contains(t, view, "A->>B: hi")

	empty := ansi.Strip(Outline(nil)("", 60))
	require.Contains(t, empty, "No diagram found")
}

func TestNew_RoundTripsText(t *testing.T) {
	e := New(nil)
	e.SetSize(80, 10)
	e.SetText(doc)
	require.Equal(t, doc, e.Text())
	require.Contains(t, ansi.Strip(e.View()), "flowchart 1")
}
