// Package diagram is the Diagram surface: a diagram source editor beside an
// outline of the diagrams it contains.
package diagram

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zjrosen/canvas/internal/decompose"
	"github.com/zjrosen/canvas/internal/mode/editor"
	"github.com/zjrosen/canvas/internal/ui/highlight"
	"github.com/zjrosen/canvas/internal/ui/styles"
)

// Longest arrows first so "-->>" is one edge.
var edgeRe = regexp.MustCompile(`-->>|-->|->>|==>|-\.->|---|--x|--o`)

// Summary describes one diagram of the buffer.
type Summary struct {
	Name  string
	Lines int
	Edges int
	Body  string
}

// Summarize splits text into its diagrams.
func Summarize(text string) []Summary {
	var out []Summary
	for _, inst := range decompose.Decompose(text, decompose.Diagram) {
		if inst.Kind != decompose.KindDiagram {
			continue
		}
		s := Summary{Name: inst.Name, Body: inst.Content}
		for _, line := range strings.Split(inst.Content, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			s.Lines++
			s.Edges += len(edgeRe.FindAllString(line, -1))
		}
		out = append(out, s)
	}
	return out
}

// Outline renders a heading per diagram followed by its highlighted source.
func Outline(h *highlight.Highlighter) editor.PreviewFunc {
	return func(text string, _ int) string {
		sums := Summarize(text)
		if len(sums) == 0 {
			return styles.HintStyle.Render("No diagram found. Start a line with graph, flowchart or sequenceDiagram.")
		}
		var b strings.Builder
		for i, s := range sums {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(styles.TabActiveStyle.Render(s.Name))
			b.WriteString(styles.HintStyle.Render(fmt.Sprintf("  %d lines · %s", s.Lines, plural(s.Edges, "edge"))))
			b.WriteString("\n")
			body := s.Body
			if h != nil {
				body = h.Highlight(body, "mermaid")
			}
			b.WriteString(body)
		}
		return b.String()
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// New creates the surface.
func New(h *highlight.Highlighter) *editor.Editor {
	return editor.New(editor.Options{
		Language:    "mermaid",
		LineNumbers: true,
		Placeholder: "flowchart LR",
		Preview:     Outline(h),
	})
}
