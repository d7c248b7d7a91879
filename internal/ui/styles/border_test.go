package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestPane_Dimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		content       string
	}{
		{name: "fits", width: 20, height: 5, content: "hello"},
		{name: "clips long lines", width: 10, height: 4, content: strings.Repeat("x", 40)},
		{name: "clips extra lines", width: 12, height: 3, content: "a\nb\nc\nd\ne"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Pane(PaneConfig{Content: tt.content, Width: tt.width, Height: tt.height, Title: "Code"})
			lines := strings.Split(out, "\n")
			require.Len(t, lines, tt.height)
			for _, l := range lines {
				require.Equal(t, tt.width, ansi.StringWidth(l), "line %q", ansi.Strip(l))
			}
		})
	}
}

func TestPane_Titles(t *testing.T) {
	out := ansi.Strip(Pane(PaneConfig{Content: "x", Width: 30, Height: 3, Title: "Console", Status: "60 fps", Footer: "idle"}))
	lines := strings.Split(out, "\n")
	require.True(t, strings.HasPrefix(lines[0], "╭─ Console "))
	require.True(t, strings.HasSuffix(lines[0], " 60 fps ─╮"))
	require.True(t, strings.HasPrefix(lines[2], "╰─ idle "))
}

func TestPane_NarrowDropsStatus(t *testing.T) {
	out := ansi.Strip(Pane(PaneConfig{Width: 14, Height: 3, Title: "Embedded", Status: "running"}))
	top := strings.Split(out, "\n")[0]
	require.Contains(t, top, "Embedded")
	require.NotContains(t, top, "running")
	require.Equal(t, 14, ansi.StringWidth(top))
}
