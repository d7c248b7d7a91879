package hostscript

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func run(t *testing.T, src string) *Interp {
	t.Helper()
	in := New()
	require.NoError(t, in.Exec(context.Background(), src))
	return in
}

func global(t *testing.T, in *Interp, name string) Value {
	t.Helper()
	v, ok := in.Lookup(name)
	require.True(t, ok, "global %s not bound", name)
	return v
}

func TestExec_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Value
	}{
		{"precedence", "x = 1 + 2 * 3", 7.0},
		{"parens", "x = (1 + 2) * 3", 9.0},
		{"modulo", "x = 7 % 3", 1.0},
		{"string concat", `x = "a" + 1`, "a1"},
		{"bitwise", "x = (6 & 3) | 8", 10.0},
		{"shift", "x = 1 << 4", 16.0},
		{"ternary", "x = 2 > 1 ? 'yes' : 'no'", "yes"},
		{"logical value", "x = null || 5", 5.0},
		{"loose equality", `x = 1 == "1"`, true},
		{"strict equality", `x = 1 === "1"`, false},
		{"unary", "x = -(3) + !0", -2.0},
		{"compound assign", "let y = 2; y *= 5; x = y", 10.0},
		{"postfix", "let y = 1; x = y++ + y", 3.0},
		{"hex literal", "x = 0xFF", 255.0},
		{"c suffix", "x = 1000UL", 1000.0},
		{"power", "x = 2 ** 10", 1024.0},
		{"power right assoc", "x = 2 ** 3 ** 2", 512.0},
		{"power over unary", "x = -2 ** 2", -4.0},
		{"power negative exponent", "x = 2 ** -1", 0.5},
		{"sequence length", `x = ilen({"1": "a", "2": "b", "4": "d", k: 1})`, 2.0},
		{"sequence length of array", "x = ilen([1, 2, 3])", 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := run(t, tt.src)
			require.Equal(t, tt.want, global(t, in, "x"))
		})
	}
}

func TestExec_ControlFlow(t *testing.T) {
	src := `
let total = 0
for (let i = 0; i < 10; i++) {
  if (i == 3) continue
  if (i == 6) break
  total += i
}
let n = 0
while (true) { n++; if (n >= 4) { break } }
let d = 0
do { d += 2 } while (d < 5)
let s = ""
switch (2) {
  case 1: s = "one"; break
  case 2: s = "two"
  case 3: s += "+three"; break
  default: s = "other"
}
`
	in := run(t, src)
	require.Equal(t, 12.0, global(t, in, "total")) // 0+1+2+4+5
	require.Equal(t, 4.0, global(t, in, "n"))
	require.Equal(t, 6.0, global(t, in, "d"))
	require.Equal(t, "two+three", global(t, in, "s"))
}

func TestExec_FunctionsAndHoisting(t *testing.T) {
	src := `
let r = fib(10)
function fib(n) {
  if (n < 2) return n
  return fib(n - 1) + fib(n - 2)
}
const add = function(a, b) { return a + b }
let sum = add(2, 3)
function counter() {
  let c = 0
  return function() { c++; return c }
}
const next = counter()
next(); next()
let third = next()
`
	in := run(t, src)
	require.Equal(t, 55.0, global(t, in, "r"))
	require.Equal(t, 5.0, global(t, in, "sum"))
	require.Equal(t, 3.0, global(t, in, "third"))
}

func TestExec_ArraysObjectsAndStrings(t *testing.T) {
	src := `
let a = [1, 2]
a.push(3)
a[5] = 9
let o = {x: 1, "y": 2}
o.z = o.x + o.y
let s = "Hello"
let parts = "a,b,c".split(",")
let info = [a.length, len(a), o.z, s.length, s.toUpperCase(), parts.join("-"), s[1]]
`
	in := run(t, src)
	info := global(t, in, "info").(*Array)
	require.Equal(t, []Value{6.0, 6.0, 3.0, 5.0, "HELLO", "a-b-c", "e"}, info.Elems)

	o := global(t, in, "o").(*Object)
	require.Equal(t, []string{"x", "y", "z"}, o.Keys())
}

func TestExec_AsyncAwaitRunsSynchronously(t *testing.T) {
	in := New()
	var calls []float64
	in.DefineFunc("delay", func(args []Value) (Value, error) {
		calls = append(calls, ArgNumber(args, 0))
		return nil, nil
	})
	src := `
async function setup() { await delay(10) }
async function loop() { await delay(20); await delay(30) }
`
	require.NoError(t, in.Exec(context.Background(), src))
	require.True(t, in.HasFunc("setup"))
	require.True(t, in.HasFunc("loop"))

	_, err := in.Call(context.Background(), "setup")
	require.NoError(t, err)
	_, err = in.Call(context.Background(), "loop")
	require.NoError(t, err)
	require.Equal(t, []float64{10, 20, 30}, calls)
}

func TestExec_Errors(t *testing.T) {
	t.Run("undefined name", func(t *testing.T) {
		err := New().Exec(context.Background(), "let x = missing + 1")
		var rte *RuntimeError
		require.ErrorAs(t, err, &rte)
		require.Equal(t, 1, rte.Line)
		require.ErrorIs(t, err, ErrUndefined)
	})

	t.Run("const reassignment", func(t *testing.T) {
		err := New().Exec(context.Background(), "const k = 1\nk = 2")
		var rte *RuntimeError
		require.ErrorAs(t, err, &rte)
		require.Equal(t, 2, rte.Line)
	})

	t.Run("not a function", func(t *testing.T) {
		err := New().Exec(context.Background(), "let v = 3\nv()")
		require.ErrorIs(t, err, ErrNotFunction)
	})

	t.Run("syntax error", func(t *testing.T) {
		err := New().Exec(context.Background(), "let = 3")
		var se *SyntaxError
		require.ErrorAs(t, err, &se)
	})

	t.Run("native error is wrapped with line", func(t *testing.T) {
		in := New()
		boom := errors.New("boom")
		in.DefineFunc("fail", func([]Value) (Value, error) { return nil, boom })
		err := in.Exec(context.Background(), "\n\nfail()")
		require.ErrorIs(t, err, boom)
		var rte *RuntimeError
		require.ErrorAs(t, err, &rte)
		require.Equal(t, 3, rte.Line)
	})

	t.Run("recursion depth", func(t *testing.T) {
		err := New().Exec(context.Background(), "function f() { return f() }\nf()")
		require.ErrorIs(t, err, ErrCallDepth)
	})
}

func TestExec_StepBudget(t *testing.T) {
	in := New()
	in.SetStepBudget(1000)
	err := in.Exec(context.Background(), "while (true) {}")
	require.ErrorIs(t, err, ErrStepBudget)
}

func TestExec_ContextCancellationStopsLoop(t *testing.T) {
	in := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := in.Exec(ctx, "let i = 0\nwhile (true) { i++ }")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCall_Undefined(t *testing.T) {
	_, err := New().Call(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUndefined)
}

func TestMathRandomSeeded(t *testing.T) {
	a, b := New(), New()
	a.Seed(42)
	b.Seed(42)
	require.NoError(t, a.Exec(context.Background(), "r = Math.random()"))
	require.NoError(t, b.Exec(context.Background(), "r = Math.random()"))
	require.Equal(t, global(t, a, "r"), global(t, b, "r"))
}

// Integer arithmetic through the interpreter must agree with Go.
func TestExec_IntegerArithmeticProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(-10000, 10000).Draw(t, "a")
		b := rapid.IntRange(-10000, 10000).Draw(t, "b")
		in := New()
		in.Define("a", float64(a))
		in.Define("b", float64(b))
		if err := in.Exec(context.Background(), "r = a * 3 + b - (a & 0xff)"); err != nil {
			t.Fatalf("exec: %v", err)
		}
		got, _ := in.Lookup("r")
		want := float64(a*3 + b - int(int32(a)&0xff))
		if got != want {
			t.Fatalf("got %v want %v", got, want)
		}
	})
}

func TestToString(t *testing.T) {
	require.Equal(t, "3", ToString(3.0))
	require.Equal(t, "2.5", ToString(2.5))
	require.Equal(t, "null", ToString(nil))
	require.Equal(t, "1,2", ToString(NewArray(1.0, 2.0)))
}
