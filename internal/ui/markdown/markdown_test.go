package markdown

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New(80, "")
	require.NoError(t, err)
	require.Equal(t, 80, r.Width())
}

func TestRender_Heading(t *testing.T) {
	r, err := New(60, "notty")
	require.NoError(t, err)

	out, err := r.Render("# Blink\n\nToggle the **LED**.")
	require.NoError(t, err)
	plain := ansi.Strip(out)
	require.Contains(t, plain, "Blink")
	require.Contains(t, plain, "LED")
}

func TestRender_Caches(t *testing.T) {
	r, err := New(60, "notty")
	require.NoError(t, err)

	first, err := r.Render("hello")
	require.NoError(t, err)
	second, err := r.Render("hello")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, r.Cached())

	require.NoError(t, r.SetWidth(30))
	_, err = r.Render("hello")
	require.NoError(t, err)
	require.Equal(t, 2, r.Cached(), "width is part of the key")
}

func TestSetWidth_Wraps(t *testing.T) {
	r, err := New(20, "notty")
	require.NoError(t, err)

	out, err := r.Render("one two three four five six seven eight nine ten")
	require.NoError(t, err)
	for _, line := range strings.Split(ansi.Strip(out), "\n") {
		require.LessOrEqual(t, ansi.StringWidth(strings.TrimRight(line, " ")), 20)
	}
}
