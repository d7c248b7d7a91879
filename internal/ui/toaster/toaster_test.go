package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	require.False(t, m.Visible())
	require.Empty(t, m.View())
}

func TestShow(t *testing.T) {
	m, cmd := New().Show("Copied", StyleSuccess, time.Millisecond)

	require.True(t, m.Visible())
	require.NotNil(t, cmd)
	require.Contains(t, m.View(), "✓ Copied")
}

func TestView_Styles(t *testing.T) {
	tests := []struct {
		style  Style
		prefix string
	}{
		{StyleSuccess, "✓"},
		{StyleError, "✗"},
		{StyleInfo, "•"},
		{StyleWarn, "!"},
	}
	for _, tt := range tests {
		m, _ := New().Show("msg", tt.style, time.Second)
		require.Contains(t, ansi.Strip(m.View()), tt.prefix+" msg")
	}
}

func TestDismiss_OnlyHidesItsOwnToast(t *testing.T) {
	m, first := New().Show("First", StyleSuccess, time.Millisecond)
	stale := first()

	m, second := m.Show("Second", StyleError, time.Millisecond)
	m = m.Update(stale)
	require.True(t, m.Visible(), "stale dismiss must not hide the newer toast")
	require.Contains(t, m.View(), "Second")

	m = m.Update(second())
	require.False(t, m.Visible())
}

func TestOverlay(t *testing.T) {
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", 30)+"\n", 8), "\n")

	hidden := New()
	require.Equal(t, bg, hidden.Overlay(bg, 30, 8))

	m, _ := New().Show("Saved", StyleInfo, time.Second)
	out := ansi.Strip(m.Overlay(bg, 30, 8))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 8)
	require.Contains(t, lines[5], "Saved")
	require.True(t, strings.HasSuffix(lines[5], "│ "), "toast sits one column from the right edge")
}
