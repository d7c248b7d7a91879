package diffview

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		old   string
		new   string
		ops   []Op
		stats Stats
	}{
		{name: "identical", old: "a\nb\n", new: "a\nb\n", ops: []Op{Equal, Equal}},
		{name: "append", old: "a\n", new: "a\nb\n", ops: []Op{Equal, Insert}, stats: Stats{Added: 1}},
		{name: "remove", old: "a\nb\nc", new: "a\nc", ops: []Op{Equal, Delete, Equal}, stats: Stats{Removed: 1}},
		{name: "change", old: "x = 1\n", new: "x = 2\n", ops: []Op{Delete, Insert}, stats: Stats{Added: 1, Removed: 1}},
		{name: "empty", old: "", new: "", ops: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, st := Compute(tt.old, tt.new)
			var ops []Op
			for _, l := range lines {
				ops = append(ops, l.Op)
			}
			require.Equal(t, tt.ops, ops)
			require.Equal(t, tt.stats, st)
		})
	}
}

func TestCompute_LineNumbers(t *testing.T) {
	lines, _ := Compute("a\nb\nc\n", "a\nB\nc\n")
	require.Equal(t, []Line{
		{Op: Equal, Text: "a", OldNo: 1, NewNo: 1},
		{Op: Delete, Text: "b", OldNo: 2},
		{Op: Insert, Text: "B", NewNo: 2},
		{Op: Equal, Text: "c", OldNo: 3, NewNo: 3},
	}, lines)
}

func TestRender(t *testing.T) {
	lines, st := Compute("digitalWrite(13, HIGH);\ndelay(500);\n", "digitalWrite(13, LOW);\ndelay(500);\n")
	require.Equal(t, "+1 -1", st.String())

	rows := strings.Split(ansi.Strip(Render(lines)), "\n")
	require.Equal(t, []string{
		"1   - digitalWrite(13, HIGH);",
		"  1 + digitalWrite(13, LOW);",
		"2 2   delay(500);",
	}, rows)
}
