package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Border characters (rounded)
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// PaneConfig describes a bordered pane with titles embedded in its border:
//
//	╭─ Title ───────── Status ─╮
//	│content                   │
//	╰─ Footer ─────────────────╯
type PaneConfig struct {
	Content string
	Width   int // including borders
	Height  int // including borders

	Title  string
	Status string
	Footer string

	Focused bool
}

// Pane renders cfg. Content is clipped to the inner box; titles are
// truncated when the pane is too narrow for them.
func Pane(cfg PaneConfig) string {
	borderColor := lipgloss.TerminalColor(BorderDefaultColor)
	if cfg.Focused {
		borderColor = BorderFocusColor
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(TextSecondaryColor)
	if cfg.Focused {
		titleStyle = titleStyle.Bold(true)
	}

	inner := max(cfg.Width-2, 1)
	height := max(cfg.Height-2, 1)

	lines := strings.Split(cfg.Content, "\n")
	body := make([]string, height)
	for i := range height {
		var line string
		if i < len(lines) {
			line = ansi.Truncate(lines[i], inner, "")
		}
		if w := ansi.StringWidth(line); w < inner {
			line += strings.Repeat(" ", inner-w)
		}
		body[i] = borderStyle.Render(borderVertical) + line + borderStyle.Render(borderVertical)
	}

	var b strings.Builder
	b.WriteString(titledEdge(borderTopLeft, borderTopRight, cfg.Title, cfg.Status, inner, borderStyle, titleStyle))
	b.WriteString("\n")
	b.WriteString(strings.Join(body, "\n"))
	b.WriteString("\n")
	b.WriteString(titledEdge(borderBottomLeft, borderBottomRight, cfg.Footer, "", inner, borderStyle, HintStyle))
	return b.String()
}

// titledEdge builds a horizontal border "╭─ left ──── right ─╮". The right
// title is dropped first when space runs out, then the left is truncated.
func titledEdge(open, close, left, right string, inner int, borderStyle, titleStyle lipgloss.Style) string {
	if (left == "" && right == "") || inner < 4 {
		return borderStyle.Render(open + strings.Repeat(borderHorizontal, inner) + close)
	}

	// "─ left " takes 3 + w(left); " right ─" takes 3 + w(right).
	lw, rw := 0, 0
	if left != "" {
		lw = ansi.StringWidth(left) + 3
	}
	if right != "" {
		rw = ansi.StringWidth(right) + 3
	}
	if lw+rw > inner {
		right, rw = "", 0
	}
	if lw > inner {
		left = ansi.Truncate(left, inner-3, "…")
		lw = ansi.StringWidth(left) + 3
	}

	var b strings.Builder
	b.WriteString(borderStyle.Render(open))
	if left != "" {
		b.WriteString(borderStyle.Render(borderHorizontal + " "))
		b.WriteString(titleStyle.Render(left))
		b.WriteString(" ")
	}
	b.WriteString(borderStyle.Render(strings.Repeat(borderHorizontal, inner-lw-rw)))
	if right != "" {
		b.WriteString(" ")
		b.WriteString(titleStyle.Render(right))
		b.WriteString(borderStyle.Render(" " + borderHorizontal))
	}
	b.WriteString(borderStyle.Render(close))
	return b.String()
}
