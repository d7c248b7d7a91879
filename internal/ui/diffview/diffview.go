// Package diffview renders the Diff mode: the buffer as last loaded against
// the buffer as edited, line by line with word-level emphasis inside
// changed line pairs.
package diffview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/canvas/internal/ui/styles"
)

// Op is the kind of a diff line.
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Line is one rendered row. OldNo and NewNo are 1-based; 0 means the line
// does not exist on that side.
type Line struct {
	Op    Op
	Text  string
	OldNo int
	NewNo int
}

// Stats counts changed lines.
type Stats struct {
	Added   int
	Removed int
}

func (s Stats) String() string {
	return fmt.Sprintf("+%d -%d", s.Added, s.Removed)
}

// Compute diffs old against new by whole lines.
func Compute(old, new string) ([]Line, Stats) {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	var (
		out        []Line
		st         Stats
		oldN, newN int
	)
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldN++
				newN++
				out = append(out, Line{Op: Equal, Text: text, OldNo: oldN, NewNo: newN})
			case diffmatchpatch.DiffDelete:
				oldN++
				st.Removed++
				out = append(out, Line{Op: Delete, Text: text, OldNo: oldN})
			case diffmatchpatch.DiffInsert:
				newN++
				st.Added++
				out = append(out, Line{Op: Insert, Text: text, NewNo: newN})
			}
		}
	}
	return out, st
}

// splitLines splits a diff chunk into lines, dropping the empty tail after
// a final newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Render formats lines with a gutter of line numbers and +/- markers.
// A run of deletes directly followed by inserts is paired row by row and
// the changed words inside each pair are emphasised.
func Render(lines []Line) string {
	width := len(fmt.Sprint(maxLineNo(lines)))
	gutter := func(l Line) string {
		num := func(n int) string {
			if n == 0 {
				return strings.Repeat(" ", width)
			}
			return fmt.Sprintf("%*d", width, n)
		}
		return styles.HintStyle.Render(num(l.OldNo) + " " + num(l.NewNo) + " ")
	}

	rows := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if lines[i].Op != Delete {
			rows = append(rows, gutter(lines[i])+renderLine(lines[i], lines[i].Text))
			i++
			continue
		}
		delEnd := i
		for delEnd < len(lines) && lines[delEnd].Op == Delete {
			delEnd++
		}
		insEnd := delEnd
		for insEnd < len(lines) && lines[insEnd].Op == Insert {
			insEnd++
		}
		dels, ins := lines[i:delEnd], lines[delEnd:insEnd]
		for j, d := range dels {
			text := d.Text
			if j < len(ins) {
				text, _ = wordDiff(d.Text, ins[j].Text)
			}
			rows = append(rows, gutter(d)+renderLine(d, text))
		}
		for j, n := range ins {
			text := n.Text
			if j < len(dels) {
				_, text = wordDiff(dels[j].Text, n.Text)
			}
			rows = append(rows, gutter(n)+renderLine(n, text))
		}
		i = insEnd
	}
	return strings.Join(rows, "\n")
}

func renderLine(l Line, text string) string {
	switch l.Op {
	case Insert:
		return styles.DiffAddStyle.Render("+ ") + text
	case Delete:
		return styles.DiffDeleteStyle.Render("- ") + text
	default:
		return styles.DiffEqualStyle.Render("  " + text)
	}
}

// wordDiff styles the two sides of a changed line pair: shared text in
// the side's color, differing text additionally reversed.
func wordDiff(old, new string) (string, string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(old, new, false))

	var a, b strings.Builder
	emph := func(s lipgloss.Style) lipgloss.Style { return s.Reverse(true) }
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			a.WriteString(styles.DiffDeleteStyle.Render(d.Text))
			b.WriteString(styles.DiffAddStyle.Render(d.Text))
		case diffmatchpatch.DiffDelete:
			a.WriteString(emph(styles.DiffDeleteStyle).Render(d.Text))
		case diffmatchpatch.DiffInsert:
			b.WriteString(emph(styles.DiffAddStyle).Render(d.Text))
		}
	}
	return a.String(), b.String()
}

func maxLineNo(lines []Line) int {
	n := 1
	for _, l := range lines {
		n = max(n, l.OldNo, l.NewNo)
	}
	return n
}
