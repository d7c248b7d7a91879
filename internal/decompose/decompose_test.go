package decompose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func names(insts []Instance) []string {
	out := make([]string, len(insts))
	for i, inst := range insts {
		out[i] = inst.Name
	}
	return out
}

func TestDecompose_JSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		content []string
	}{
		{"array", "[1,2,3]", []string{"Item 1", "Item 2", "Item 3"}, []string{"1", "2", "3"}},
		{"object", `{"a":1,"b":2}`, []string{"a", "b"}, []string{"1", "2"}},
		{"nested values", "{\n  \"user\": {\"id\": 1},\n  \"tags\": [\"x\", \"y\"]\n}", []string{"user", "tags"}, []string{`{"id": 1}`, `["x", "y"]`}},
		{"invalid falls back to blocks", `{"a":1} {"b": "}"} trailing`, []string{"Block 1", "Block 2"}, []string{`{"a":1}`, `{"b": "}"}`}},
		{"scalar", "42", []string{FullName}, []string{"42"}},
		{"empty", "", []string{FullName}, []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decompose(tt.in, JSON)
			require.Equal(t, tt.want, names(got))
			for i, inst := range got {
				require.Equal(t, tt.content[i], inst.Content)
				require.Equal(t, inst.Content, tt.in[inst.Span[0]:inst.Span[1]])
			}
		})
	}
}

func TestDecompose_CodeFunctions(t *testing.T) {
	src := `#include <Servo.h>
int led = 2;

void setup() {
  pinMode(led, OUTPUT);
}

  void loop() {
  if (x) { y("}"); } // }
  /* { */
  delay(100);
}

func (s *Server) Start(ctx context.Context) error {
	return nil
}
`
	got := Decompose(src, Code)
	require.Equal(t, []string{"setup", "loop", "Start"}, names(got))
	require.Equal(t, "void setup() {\n  pinMode(led, OUTPUT);\n}", got[0].Content)
	require.True(t, strings.HasPrefix(got[1].Content, "void loop() {"))
	require.True(t, strings.HasSuffix(got[1].Content, "delay(100);\n}"))
	for _, inst := range got {
		require.Equal(t, KindFunction, inst.Kind)
	}
}

func TestDecompose_ControlBlocksAreNotFunctions(t *testing.T) {
	got := Decompose("if (x) {\n  y();\n}\nwhile (true) {\n}\n", Code)
	require.Equal(t, []string{FullName}, names(got))
}

func TestDecompose_Sections(t *testing.T) {
	src := "x = 1\n// ===== part two\ny = 2\n// =====\n\n// =====\nz = 3\n"
	got := Decompose(src, Code)
	require.Equal(t, []string{"Section 1", "Section 2", "Section 3"}, names(got))
	require.Equal(t, "x = 1\n", got[0].Content)
	require.Equal(t, "y = 2\n", got[1].Content)
	require.Equal(t, "z = 3\n", got[2].Content)

	got = Decompose("x = 1\n// =====\n", Code)
	require.Equal(t, []string{FullName}, names(got))
}

func TestDecompose_Script(t *testing.T) {
	src := `-- title: demo
x = 1
function TIC()
  for i = 1, 3 do
    if i > 1 then trace("end") end
  end
  repeat x = x + 1 until x > 5
end

local function helper(a) --[[ end end ]]
  while a do a = false end
  return a
end
function p:draw() end
`
	got := Decompose(src, Script)
	require.Equal(t, []string{"TIC", "helper", "p:draw"}, names(got))
	require.True(t, strings.HasSuffix(got[0].Content, "until x > 5\nend"))
	require.True(t, strings.HasPrefix(got[1].Content, "local function helper(a)"))
	require.True(t, strings.HasSuffix(got[1].Content, "return a\nend"))
	require.Equal(t, "function p:draw() end", got[2].Content)

	// Brace-style code still splits under script rules.
	got = Decompose("function TIC() {\n  cls(0)\n}\n", Script)
	require.Equal(t, []string{"TIC"}, names(got))
}

func TestDecompose_Diagram(t *testing.T) {
	src := "```mermaid\ngraph TD\n  A --> B\n```\n\nsequenceDiagram\n  A->>B: hi\n\ngraph LR\n  C --> D\n"
	got := Decompose(src, Diagram)
	require.Equal(t, []string{"graph 1", "sequenceDiagram 1", "graph 2"}, names(got))
	require.Equal(t, "graph TD\n  A --> B", got[0].Content)
	require.Equal(t, "sequenceDiagram\n  A->>B: hi", got[1].Content)
	require.Equal(t, "graph LR\n  C --> D", got[2].Content)

	require.Equal(t, []string{FullName}, names(Decompose("just text", Diagram)))
}

func TestDecompose_Markdown(t *testing.T) {
	src := "intro\n\n# One\ntext\n```\n# not a heading\n```\n## Two ##\nmore\n### deeper\n"
	got := Decompose(src, Markdown)
	require.Equal(t, []string{"Preamble", "One", "Two"}, names(got))
	require.Equal(t, KindPreamble, got[0].Kind)
	require.Equal(t, "# One\ntext\n```\n# not a heading\n```\n## Two ##\nmore\n### deeper\n", got[1].Content)
	require.Equal(t, "## Two ##\nmore\n### deeper\n", got[2].Content)

	got = Decompose("# A\na\n## A1\nx\n## A2\ny\n# B\nb\n", Markdown)
	require.Equal(t, []string{"A", "A1", "A2", "B"}, names(got))
	require.Equal(t, "# A\na\n## A1\nx\n## A2\ny\n", got[0].Content)
	require.Equal(t, "## A1\nx\n", got[1].Content)
	require.Equal(t, "## A2\ny\n", got[2].Content)
	require.Equal(t, "# B\nb\n", got[3].Content)

	got = Decompose("\n\n# Only\n", Markdown)
	require.Equal(t, []string{"Only"}, names(got))
}

func TestDecompose_FullRules(t *testing.T) {
	got := Decompose("void setup() {}", Full)
	require.Equal(t, []Instance{{Name: FullName, Content: "void setup() {}", Kind: KindFull, Span: &[2]int{0, 15}}}, got)
}

func TestSplice(t *testing.T) {
	src := "void setup() {\n}\nvoid loop() {\n  delay(1);\n}\n"
	got := Decompose(src, Code)
	require.Len(t, got, 2)

	out := Splice(src, got[1], "void loop() {\n  delay(2);\n}")
	require.Equal(t, "void setup() {\n}\nvoid loop() {\n  delay(2);\n}\n", out)

	require.Equal(t, "new", Splice(src, Instance{Name: "x"}, "new"))
	require.Equal(t, src, Splice(src, Instance{Span: &[2]int{5, 1000}}, "x"))
}

var fragments = []string{
	"void setup() {", "}", "{", "int x = 1;", "// =====", "# Heading", "## Sub",
	"```", "graph TD", "pie", `"a": 1,`, "[", "]", "function f()", "end",
	"if x then", "--[[", "]]", `"`, "'", "/*", "*/", "", "text",
}

// Every rule set yields at least one instance whose span matches its
// content, and the full instance is the whole input.
func TestDecompose_Total(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		src := strings.Join(rapid.SliceOfN(rapid.SampledFrom(fragments), 0, 25).Draw(t, "lines"), "\n")
		rules := Rules(rapid.IntRange(int(Full), int(Markdown)).Draw(t, "rules"))
		got := Decompose(src, rules)
		if len(got) == 0 {
			t.Fatalf("no instances for %s", rules)
		}
		for _, inst := range got {
			if inst.Span == nil || inst.Span[0] > inst.Span[1] || inst.Span[1] > len(src) {
				t.Fatalf("bad span %v for %q", inst.Span, inst.Name)
			}
			if src[inst.Span[0]:inst.Span[1]] != inst.Content {
				t.Fatalf("span of %q does not match its content", inst.Name)
			}
			if inst.Kind == KindFull && inst.Content != src {
				t.Fatalf("full instance is not the whole content")
			}
		}
	})
}
