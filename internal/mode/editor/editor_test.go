package editor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func typeRunes(e *Editor, s string) {
	for _, r := range s {
		e.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestText_RoundTripsUntilEdited(t *testing.T) {
	tests := []string{
		"",
		"void setup() {\n\tpinMode(13, OUTPUT);\n}\n",
		"line with trailing spaces   \n\n\n",
		strings.Repeat("x\n", 500),
	}
	for _, text := range tests {
		e := New(Options{})
		e.SetSize(40, 10)
		e.SetText(text)
		require.Equal(t, text, e.Text())
		require.False(t, e.Edited())
	}
}

func TestUpdate_EditChangesText(t *testing.T) {
	e := New(Options{Language: "arduino"})
	e.SetSize(40, 5)
	e.SetText("abc")
	e.Focus()

	typeRunes(e, "d")
	require.True(t, e.Edited())
	require.Equal(t, "abcd", e.Text())

	e.SetText("fresh")
	require.False(t, e.Edited())
	require.Equal(t, "fresh", e.Text())
}

func TestUpdate_BlurredIgnoresKeys(t *testing.T) {
	e := New(Options{})
	e.SetText("abc")
	e.Blur()
	typeRunes(e, "zzz")
	require.False(t, e.Edited())
}

func TestView_Preview(t *testing.T) {
	e := New(Options{Preview: func(text string, width int) string {
		return "PREVIEW:" + strings.ToUpper(text)
	}})
	e.SetSize(60, 4)
	e.SetText("hi")

	view := ansi.Strip(e.View())
	require.Contains(t, view, "PREVIEW:HI")
	require.Contains(t, view, "│")
}
