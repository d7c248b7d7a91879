package highlight

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestHighlight_PreservesText(t *testing.T) {
	h := New("monokai")
	tests := []struct {
		name string
		text string
		lang string
	}{
		{name: "json", text: `{"a": [1, 2]}`, lang: "json"},
		{name: "lua", text: "function TIC()\n  cls(0)\nend", lang: "lua"},
		{name: "arduino alias", text: "void setup() {}", lang: "ino"},
		{name: "mermaid falls back", text: "graph TD\n  A-->B", lang: "mermaid"},
		{name: "guessed", text: `{"x": true}`, lang: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := h.Highlight(tt.text, tt.lang)
			require.Equal(t, tt.text, ansi.Strip(out))
		})
	}
}

func TestHighlight_AddsColor(t *testing.T) {
	out := New("monokai").Highlight(`{"key": "value"}`, "json")
	require.NotEqual(t, `{"key": "value"}`, out)
	require.Contains(t, out, "\x1b[")
}

func TestNew_UnknownStyleFallsBack(t *testing.T) {
	h := New("no-such-style")
	require.Equal(t, DefaultStyle, h.style.Name)
}

func TestLexer(t *testing.T) {
	require.Equal(t, "JSON", Lexer("", "json").Config().Name)
	require.Equal(t, "Lua", Lexer("", "LUA").Config().Name)
	require.NotNil(t, Lexer("plain words", "mermaid"))
}
