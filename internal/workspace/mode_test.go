package workspace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/decompose"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"code", Code},
		{"Execute", Execute},
		{"ide", EmbeddedIDE},
		{"arduino", EmbeddedIDE},
		{"Embedded-IDE", EmbeddedIDE},
		{"tic", FantasyConsole},
		{"fantasy_console", FantasyConsole},
		{"md", Markdown},
		{"notebook", NotebookView},
		{" shell ", Terminal},
		{"preview", Preview},
		{"JSON", JSONView},
		{"mermaid", Diagram},
		{"csv", Table},
		{"diff", Diff},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMode("spreadsheet")
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestMode_StringParsesBack(t *testing.T) {
	require.Len(t, Modes(), 12)
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
		require.NotEmpty(t, m.Title())
	}
	require.Equal(t, "mode(99)", Mode(99).String())
}

func TestMode_NextPrevWrap(t *testing.T) {
	require.Equal(t, Execute, Code.Next())
	require.Equal(t, Code, Diff.Next())
	require.Equal(t, Diff, Code.Prev())
	for _, m := range Modes() {
		require.Equal(t, m, m.Next().Prev())
	}
}

func TestInferMode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Mode
	}{
		{"sketch", "int led = 2;\nvoid setup() {\n}\n", EmbeddedIDE},
		{"cartridge", "-- title: x\nfunction TIC()\n  cls(0)\nend", FantasyConsole},
		{"json object", ` {"a": 1} `, JSONView},
		{"json array", "[1, 2]", JSONView},
		{"broken json", "{a: 1}", Code},
		{"diagram", "graph TD\n  A --> B", Diagram},
		{"fenced diagram", "```mermaid\nsequenceDiagram\n  A->>B: hi\n```", Diagram},
		{"markdown", "intro\n\n## Usage\ntext", Markdown},
		{"include is not a heading", "#include <stdio.h>\nint main() {}", Code},
		{"plain", "print('hi')", Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, InferMode(tt.in))
		})
	}
}

func TestKindFor(t *testing.T) {
	require.Equal(t, decompose.Code, KindFor(EmbeddedIDE))
	require.Equal(t, decompose.Code, KindFor(Terminal))
	require.Equal(t, decompose.Script, KindFor(FantasyConsole))
	require.Equal(t, decompose.JSON, KindFor(JSONView))
	require.Equal(t, decompose.Diagram, KindFor(Diagram))
	require.Equal(t, decompose.Markdown, KindFor(Preview))
	require.Equal(t, decompose.Full, KindFor(Table))
	require.Equal(t, decompose.Full, KindFor(Diff))
}

func TestExtension(t *testing.T) {
	require.Equal(t, ".ino", Extension(DefaultLanguage(EmbeddedIDE)))
	require.Equal(t, ".lua", Extension(DefaultLanguage(FantasyConsole)))
	require.Equal(t, ".mmd", Extension(DefaultLanguage(Diagram)))
	require.Equal(t, ".py", Extension("Python"))
	require.Equal(t, ".txt", Extension(""))
}
