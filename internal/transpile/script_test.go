package transpile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/canvas/internal/hostscript"
)

func TestScript_CartridgeProgram(t *testing.T) {
	src := "-- title: demo\n" +
		"-- author: me\n" +
		"x=96\n" +
		"function TIC()\n" +
		"  if btn(0) then y=y-1 end\n" +
		"  cls(13)\n" +
		"  for i=1,3 do\n" +
		"    pix(i,i,12)\n" +
		"  end\n" +
		"  print(\"HELLO \" .. x, 84, 84)\n" +
		"end"

	prog, err := NewScript().Transpile(src)
	require.NoError(t, err)
	require.Equal(t,
		"// title: demo\n"+
			"// author: me\n"+
			"x=96\n"+
			"function TIC() {\n"+
			"  if (btn(0)) { y=y-1 }\n"+
			"  cls(13)\n"+
			"  for (let i = 1; i <= 3; i++) {\n"+
			"    pix(i,i,12)\n"+
			"  }\n"+
			"  print(\"HELLO \" + x, 84, 84)\n"+
			"}",
		body(t, prog))
	require.Equal(t, map[string]string{"title": "demo", "author": "me"}, prog.Metadata)
	require.True(t, prog.EntryPoints.Tic)
	require.False(t, prog.EntryPoints.Boot)
	require.Empty(t, prog.Warnings)
}

func TestScript_Rewrites(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"local", "local a = 1", "let a = 1"},
		{"local const attrib", "local a <const> = 1", "const a = 1"},
		{"local list", "local x, y = 1, 2", "let x = 1, y = 2"},
		{"local without values", "local x, y", "let x, y"},
		{"operators", "if a ~= b and not c then d = nil end", "if (a != b && !c) { d = null }"},
		{"concat", `s = "a" .. "b"`, `s = "a" + "b"`},
		{"or", "v = a or b", "v = a || b"},
		{"length", "n = #list", "n = ilen(list)"},
		{"power", "y = 2 ^ 10", "y = 2 ** 10"},
		{"length of member", "n = #self.items + 1", "n = ilen(self.items) + 1"},
		{"array table", "t = {1, 2, 3}", `t = {"1": 1, "2": 2, "3": 3}`},
		{"object table", "p = {x = 1, y = 2}", "p = {x: 1, y: 2}"},
		{"bracket keys", `p = {["a b"] = 1, [2] = 3}`, `p = {"a b": 1, "2": 3}`},
		{"nested tables", "m = {pos = {1, 2}, tag = \"x\"}", `m = {pos: {"1": 1, "2": 2}, tag: "x"}`},
		{"empty table", "e = {}", "e = {}"},
		{"while", "while i < 10 do i = i + 1 end", "while (i < 10) { i = i + 1 }"},
		{"repeat until", "repeat i = i - 1 until i <= 0", "do { i = i - 1 } while (!(i <= 0))"},
		{"descending for", "for i = 10, 1, -1 do x = i end", "for (let i = 10; i >= 1; i--) { x = i }"},
		{"stepped for", "for i = 0, 20, 5 do end", "for (let i = 0; i <= 20; i += 5) { }"},
		{"negative stepped for", "for i = 20, 0, -5 do end", "for (let i = 20; i >= 0; i -= 5) { }"},
		{"dynamic step", "for i = a, b, s do end", "for (let i = a, __step1 = s; __step1 > 0 ? i <= b : i >= b; i += __step1) { }"},
		{"elseif", "if a then b() elseif c then d() else e() end", "if (a) { b() } else if (c) { d() } else { e() }"},
		{"plain do", "do x = 1 end", "{ x = 1 }"},
		{"method call", "obj:move(1)", "obj.move(obj, 1)"},
		{"method call no args", "p.body:reset()", "p.body.reset(p.body)"},
		{"dotted function", "function p.draw() end", "p.draw = function() { }"},
		{"method function", "function p:hit(d) end", "p.hit = function(self, d) { }"},
		{"local function", "local function f(a, b) return a end", "function f(a, b) { return a }"},
		{"anonymous function", "cb = function(v) return v end", "cb = function(v) { return v }"},
		{"block comment", "--[[ block ]] x = 1", "/* block */ x = 1"},
		{"line comment", "x = 1 -- note", "x = 1 // note"},
		{"long string", "s = [[a`b]]", "s = `a\\`b`"},
		{"ipairs", "for i, v in ipairs(list) do end", "for (let __i1 = 0, __list2 = ivalues(list); __i1 < len(__list2); __i1++) { let i = __i1 + 1; let v = __list2[__i1]; }"},
		{"pairs", "for k, v in pairs(t) do end", "for (let __i1 = 0, __list2 = keys(t); __i1 < len(__list2); __i1++) { let k = __list2[__i1]; let v = (t)[k]; }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := NewScript().Transpile(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, body(t, prog))
		})
	}
}

func TestScript_NestedBlocksBalanceAndRun(t *testing.T) {
	src := `
function f(x)
  if x > 0 then
    for i=1,x do
      if i % 2 == 0 then trace(i) end
    end
  elseif x < 0 then
    return -1
  else
    return 0
  end
  local n = 0
  repeat n = n + 1 until n >= 3
  return n
end
`
	prog, err := NewScript().Transpile(src)
	require.NoError(t, err)
	require.Empty(t, prog.Warnings)

	in := hostscript.New()
	var traced []hostscript.Value
	in.DefineFunc("trace", func(args []hostscript.Value) (hostscript.Value, error) {
		traced = append(traced, hostscript.Arg(args, 0))
		return nil, nil
	})
	ctx := context.Background()
	require.NoError(t, in.Exec(ctx, prog.Source))

	got, err := in.Call(ctx, "f", 4.0)
	require.NoError(t, err)
	require.Equal(t, 3.0, got)
	require.Equal(t, []hostscript.Value{2.0, 4.0}, traced)

	got, err = in.Call(ctx, "f", -2.0)
	require.NoError(t, err)
	require.Equal(t, -1.0, got)
}

func TestScript_TablesRunOnHostScript(t *testing.T) {
	src := `
local player = {x = 10, y = 20, hits = {1, 2, 3}}
total = 0
for i, v in ipairs(player.hits) do total = total + v * i end
count = 0
for k, v in pairs(player) do count = count + 1 end
size = #player.hits
`
	prog, err := NewScript().Transpile(src)
	require.NoError(t, err)
	require.Empty(t, prog.Warnings)

	in := hostscript.New()
	require.NoError(t, in.Exec(context.Background(), prog.Source))
	total, _ := in.Lookup("total")
	count, _ := in.Lookup("count")
	size, _ := in.Lookup("size")
	require.Equal(t, 14.0, total) // 1*1 + 2*2 + 3*3
	require.Equal(t, 3.0, count)
	require.Equal(t, 3.0, size)
}

func TestScript_StrayEndWarns(t *testing.T) {
	prog, err := NewScript().Transpile("x = 1\nend")
	require.NoError(t, err)
	require.Len(t, prog.Warnings, 1)
	require.Equal(t, "x = 1\n/* end */", body(t, prog))

	_, err = hostscript.Parse(prog.Source)
	require.NoError(t, err)
}

func TestScript_UnclosedBlockIsClosedWithWarning(t *testing.T) {
	prog, err := NewScript().Transpile("if x then\n  y = 1")
	require.NoError(t, err)
	require.Len(t, prog.Warnings, 1)
	require.Contains(t, prog.Warnings[0], "unclosed if")
	require.Equal(t, "if (x) {\n  y = 1\n}", body(t, prog))
}

func TestScript_TilesAndMetadata(t *testing.T) {
	hex := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	src := "-- title: tiles\n" +
		"function TIC() end\n" +
		"-- late: ignored\n" +
		"-- <TILES>\n" +
		"-- 001:" + strings.ToUpper(hex) + "\n" +
		"-- </TILES>\n" +
		"-- <SPRITES>\n" +
		"-- 002:" + hex + "\n" +
		"-- </SPRITES>\n"

	prog, err := NewScript().Transpile(src)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"title": "tiles"}, prog.Metadata)
	require.Equal(t, map[int]string{1: hex, 258: hex}, prog.Sprites)
}

func TestScript_RetranspileIsUnchanged(t *testing.T) {
	first, err := NewScript().Transpile("function TIC()\n  cls(0)\nend\n")
	require.NoError(t, err)
	second, err := NewScript().Transpile(first.Source)
	require.NoError(t, err)
	require.Equal(t, first.Source, second.Source)
	require.True(t, second.EntryPoints.Tic)
}

func TestFor(t *testing.T) {
	tr, err := For(DialectScript)
	require.NoError(t, err)
	require.Equal(t, DialectScript, tr.Dialect())

	tr, err = For(DialectEmbedded)
	require.NoError(t, err)
	require.Equal(t, DialectEmbedded, tr.Dialect())

	_, err = For("cobol")
	require.ErrorIs(t, err, ErrUnknownDialect)
}

func genBlock(t *rapid.T, depth int) string {
	n := rapid.IntRange(0, 3).Draw(t, "n")
	stmts := make([]string, n)
	for i := range stmts {
		stmts[i] = genStmt(t, depth)
	}
	return strings.Join(stmts, "\n")
}

func genStmt(t *rapid.T, depth int) string {
	kinds := 1
	if depth < 3 {
		kinds = 7
	}
	switch rapid.IntRange(0, kinds).Draw(t, "kind") {
	case 0:
		return "x = x + 1"
	case 1:
		return `trace(x .. "!")`
	case 2:
		return "if x > 2 then\n" + genBlock(t, depth+1) + "\nend"
	case 3:
		return "if x then\n" + genBlock(t, depth+1) + "\nelse\n" + genBlock(t, depth+1) + "\nend"
	case 4:
		return "while x < 3 do\n" + genBlock(t, depth+1) + "\nend"
	case 5:
		return "for i=1,3 do\n" + genBlock(t, depth+1) + "\nend"
	case 6:
		return "repeat\n" + genBlock(t, depth+1) + "\nuntil x > 5"
	default:
		return "do\n" + genBlock(t, depth+1) + "\nend"
	}
}

// Balanced input always produces output the host parser accepts, with no
// warnings, and the translation is deterministic.
func TestScript_BalancedInputParses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		src := "function TIC()\n" + genBlock(t, 0) + "\nend"
		a, _ := NewScript().Transpile(src)
		b, _ := NewScript().Transpile(src)
		if a.Source != b.Source {
			t.Fatalf("non-deterministic output")
		}
		if len(a.Warnings) != 0 {
			t.Fatalf("warnings for balanced input %q: %v", src, a.Warnings)
		}
		if _, err := hostscript.Parse(a.Source); err != nil {
			t.Fatalf("output does not parse: %v\n%s", err, a.Source)
		}
	})
}
