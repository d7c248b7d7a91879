package console

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zjrosen/canvas/internal/hostscript"
)

type args = []hostscript.Value

func intArg(a args, i, def int) int { return hostscript.ArgIntOr(a, i, def) }

// install exposes the console API and the small Lua-flavoured standard
// library cartridges expect (math, table, string, tostring, tonumber).
func (r *Runtime) install(in *hostscript.Interp) {
	s := &r.back

	in.DefineFunc("cls", func(a args) (hostscript.Value, error) {
		s.Clear(intArg(a, 0, 0))
		return nil, nil
	})
	in.DefineFunc("pix", func(a args) (hostscript.Value, error) {
		x, y := intArg(a, 0, 0), intArg(a, 1, 0)
		if hostscript.Arg(a, 2) == nil {
			return float64(s.At(x, y)), nil
		}
		s.Set(x, y, intArg(a, 2, 0))
		return nil, nil
	})
	in.DefineFunc("line", func(a args) (hostscript.Value, error) {
		s.Line(intArg(a, 0, 0), intArg(a, 1, 0), intArg(a, 2, 0), intArg(a, 3, 0), intArg(a, 4, 0))
		return nil, nil
	})
	in.DefineFunc("rect", func(a args) (hostscript.Value, error) {
		s.Rect(intArg(a, 0, 0), intArg(a, 1, 0), intArg(a, 2, 0), intArg(a, 3, 0), intArg(a, 4, 0))
		return nil, nil
	})
	in.DefineFunc("rectb", func(a args) (hostscript.Value, error) {
		s.RectB(intArg(a, 0, 0), intArg(a, 1, 0), intArg(a, 2, 0), intArg(a, 3, 0), intArg(a, 4, 0))
		return nil, nil
	})
	in.DefineFunc("circ", func(a args) (hostscript.Value, error) {
		s.Circ(intArg(a, 0, 0), intArg(a, 1, 0), intArg(a, 2, 0), intArg(a, 3, 0))
		return nil, nil
	})
	in.DefineFunc("circb", func(a args) (hostscript.Value, error) {
		s.CircB(intArg(a, 0, 0), intArg(a, 1, 0), intArg(a, 2, 0), intArg(a, 3, 0))
		return nil, nil
	})
	in.DefineFunc("spr", func(a args) (hostscript.Value, error) {
		s.Sprite(r.sheet, intArg(a, 0, 0), intArg(a, 1, 0), intArg(a, 2, 0), SpriteOpts{
			ColorKey: intArg(a, 3, -1),
			Scale:    intArg(a, 4, 1),
			Flip:     intArg(a, 5, 0),
			Rotate:   intArg(a, 6, 0),
			W:        intArg(a, 7, 1),
			H:        intArg(a, 8, 1),
		})
		return nil, nil
	})
	in.DefineFunc("print", func(a args) (hostscript.Value, error) {
		text := hostscript.ToString(hostscript.Arg(a, 0))
		w := s.Print(text, intArg(a, 1, 0), intArg(a, 2, 0), intArg(a, 3, 15), intArg(a, 5, 1))
		return float64(w), nil
	})

	in.DefineFunc("btn", func(a args) (hostscript.Value, error) {
		if hostscript.Arg(a, 0) == nil {
			return float64(r.cur.Mask()), nil
		}
		b := intArg(a, 0, 0)
		return b >= 0 && b < NumButtons && r.cur.Buttons[b], nil
	})
	in.DefineFunc("btnp", func(a args) (hostscript.Value, error) {
		if hostscript.Arg(a, 0) == nil {
			m := 0
			for b := 0; b < NumButtons; b++ {
				if r.cur.Pressed(b) {
					m |= 1 << b
				}
			}
			return float64(m), nil
		}
		return r.cur.Repeat(intArg(a, 0, 0), intArg(a, 1, -1), intArg(a, 2, -1)), nil
	})

	in.DefineFunc("time", func(args) (hostscript.Value, error) {
		return float64(r.clock.Since(r.start).Microseconds()) / 1000, nil
	})
	in.DefineFunc("tstamp", func(args) (hostscript.Value, error) {
		return float64(r.clock.Now().Unix()), nil
	})
	in.DefineFunc("trace", func(a args) (hostscript.Value, error) {
		r.sink.Infof("%s", hostscript.ToString(hostscript.Arg(a, 0)))
		return nil, nil
	})
	in.DefineFunc("exit", func(args) (hostscript.Value, error) {
		r.Stop()
		return nil, nil
	})
	noop := func(args) (hostscript.Value, error) { return nil, nil }
	for _, name := range []string{"sfx", "music"} {
		in.DefineFunc(name, noop)
	}

	in.Define("math", luaMath(in))
	in.Define("table", luaTable())
	in.Define("string", luaString())
	in.DefineFunc("tostring", func(a args) (hostscript.Value, error) {
		if hostscript.Arg(a, 0) == nil {
			return "nil", nil
		}
		return hostscript.ToString(hostscript.Arg(a, 0)), nil
	})
	in.DefineFunc("tonumber", func(a args) (hostscript.Value, error) {
		f := hostscript.ToNumber(hostscript.Arg(a, 0))
		if math.IsNaN(f) {
			return nil, nil
		}
		return f, nil
	})
	in.DefineFunc("type", func(a args) (hostscript.Value, error) {
		switch t := hostscript.TypeOf(hostscript.Arg(a, 0)); t {
		case "null":
			return "nil", nil
		case "array", "object":
			return "table", nil
		default:
			return t, nil
		}
	})
}

func native(name string, fn hostscript.NativeFunc) *hostscript.Native {
	return hostscript.NewNative(name, fn)
}

func luaMath(in *hostscript.Interp) *hostscript.Object {
	m := hostscript.NewObject()
	m.Set("pi", math.Pi)
	m.Set("huge", math.Inf(1))
	for name, fn := range map[string]func(float64) float64{
		"floor": math.Floor, "ceil": math.Ceil, "abs": math.Abs, "sqrt": math.Sqrt,
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan, "exp": math.Exp, "log": math.Log,
	} {
		m.Set(name, native("math."+name, func(a args) (hostscript.Value, error) {
			return fn(hostscript.ArgNumber(a, 0)), nil
		}))
	}
	m.Set("atan", native("math.atan", func(a args) (hostscript.Value, error) {
		if len(a) > 1 {
			return math.Atan2(hostscript.ArgNumber(a, 0), hostscript.ArgNumber(a, 1)), nil
		}
		return math.Atan(hostscript.ArgNumber(a, 0)), nil
	}))
	m.Set("fmod", native("math.fmod", func(a args) (hostscript.Value, error) {
		return math.Mod(hostscript.ArgNumber(a, 0), hostscript.ArgNumber(a, 1)), nil
	}))
	m.Set("max", native("math.max", func(a args) (hostscript.Value, error) {
		out := math.Inf(-1)
		for _, v := range a {
			out = math.Max(out, hostscript.ToNumber(v))
		}
		return out, nil
	}))
	m.Set("min", native("math.min", func(a args) (hostscript.Value, error) {
		out := math.Inf(1)
		for _, v := range a {
			out = math.Min(out, hostscript.ToNumber(v))
		}
		return out, nil
	}))
	// random() is [0,1); random(m) is 1..m; random(m, n) is m..n.
	m.Set("random", native("math.random", func(a args) (hostscript.Value, error) {
		switch len(a) {
		case 0:
			return in.Rand().Float64(), nil
		case 1:
			hi := hostscript.ToInt(a[0])
			if hi < 1 {
				return nil, fmt.Errorf("interval is empty")
			}
			return float64(1 + in.Rand().IntN(hi)), nil
		}
		lo, hi := hostscript.ToInt(a[0]), hostscript.ToInt(a[1])
		if hi < lo {
			return nil, fmt.Errorf("interval is empty")
		}
		return float64(lo + in.Rand().IntN(hi-lo+1)), nil
	}))
	return m
}

// sequence views an array, or an object keyed "1".."n" as built by an
// empty table constructor, as a Lua sequence.
type sequence struct {
	arr *hostscript.Array
	obj *hostscript.Object
}

func asSequence(v hostscript.Value) (sequence, bool) {
	switch t := v.(type) {
	case *hostscript.Array:
		return sequence{arr: t}, true
	case *hostscript.Object:
		return sequence{obj: t}, true
	}
	return sequence{}, false
}

func (s sequence) items() []hostscript.Value {
	if s.arr != nil {
		return s.arr.Elems
	}
	var out []hostscript.Value
	for i := 1; ; i++ {
		v, ok := s.obj.Get(strconv.Itoa(i))
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func (s sequence) store(old int, items []hostscript.Value) {
	if s.arr != nil {
		s.arr.Elems = items
		return
	}
	for i := 1; i <= old; i++ {
		s.obj.Delete(strconv.Itoa(i))
	}
	for i, v := range items {
		s.obj.Set(strconv.Itoa(i+1), v)
	}
}

// luaTable positions are 1-based as in the source dialect.
func luaTable() *hostscript.Object {
	t := hostscript.NewObject()
	t.Set("insert", native("table.insert", func(a args) (hostscript.Value, error) {
		sq, ok := asSequence(hostscript.Arg(a, 0))
		if !ok {
			return nil, fmt.Errorf("bad argument #1 (table expected)")
		}
		items := sq.items()
		n := len(items)
		if len(a) < 3 {
			sq.store(n, append(items, hostscript.Arg(a, 1)))
			return nil, nil
		}
		pos := hostscript.ToInt(a[1]) - 1
		if pos < 0 || pos > n {
			return nil, fmt.Errorf("bad argument #2 (position out of bounds)")
		}
		items = append(items, nil)
		copy(items[pos+1:], items[pos:])
		items[pos] = a[2]
		sq.store(n, items)
		return nil, nil
	}))
	t.Set("remove", native("table.remove", func(a args) (hostscript.Value, error) {
		sq, ok := asSequence(hostscript.Arg(a, 0))
		if !ok {
			return nil, fmt.Errorf("bad argument #1 (table expected)")
		}
		items := sq.items()
		n := len(items)
		if n == 0 {
			return nil, nil
		}
		pos := n - 1
		if len(a) > 1 {
			pos = hostscript.ToInt(a[1]) - 1
		}
		if pos < 0 || pos >= n {
			return nil, nil
		}
		v := items[pos]
		sq.store(n, append(items[:pos], items[pos+1:]...))
		return v, nil
	}))
	t.Set("concat", native("table.concat", func(a args) (hostscript.Value, error) {
		sq, ok := asSequence(hostscript.Arg(a, 0))
		if !ok {
			return "", nil
		}
		items := sq.items()
		parts := make([]string, len(items))
		for i, e := range items {
			parts[i] = hostscript.ToString(e)
		}
		sep := ""
		if v := hostscript.Arg(a, 1); v != nil {
			sep = hostscript.ToString(v)
		}
		return strings.Join(parts, sep), nil
	}))
	return t
}

func luaString() *hostscript.Object {
	s := hostscript.NewObject()
	s.Set("format", native("string.format", func(a args) (hostscript.Value, error) {
		return luaFormat(hostscript.ToString(hostscript.Arg(a, 0)), a[min(1, len(a)):])
	}))
	s.Set("len", native("string.len", func(a args) (hostscript.Value, error) {
		return float64(len(hostscript.ToString(hostscript.Arg(a, 0)))), nil
	}))
	s.Set("upper", native("string.upper", func(a args) (hostscript.Value, error) {
		return strings.ToUpper(hostscript.ToString(hostscript.Arg(a, 0))), nil
	}))
	s.Set("lower", native("string.lower", func(a args) (hostscript.Value, error) {
		return strings.ToLower(hostscript.ToString(hostscript.Arg(a, 0))), nil
	}))
	s.Set("rep", native("string.rep", func(a args) (hostscript.Value, error) {
		return strings.Repeat(hostscript.ToString(hostscript.Arg(a, 0)), max(0, hostscript.ArgInt(a, 1))), nil
	}))
	// sub uses 1-based inclusive bounds; negatives count from the end.
	s.Set("sub", native("string.sub", func(a args) (hostscript.Value, error) {
		str := hostscript.ToString(hostscript.Arg(a, 0))
		n := len(str)
		norm := func(i int) int {
			if i < 0 {
				i = n + i + 1
			}
			return i
		}
		i, j := max(1, norm(intArg(a, 1, 1))), min(n, norm(intArg(a, 2, -1)))
		if i > j {
			return "", nil
		}
		return str[i-1 : j], nil
	}))
	return s
}

// luaFormat supports the %d %i %s %f %g %e %x %X %c %q %% verbs with Go
// compatible flags, width and precision.
func luaFormat(format string, a args) (hostscript.Value, error) {
	var b strings.Builder
	next := 0
	arg := func() hostscript.Value {
		v := hostscript.Arg(a, next)
		next++
		return v
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(format) && strings.IndexByte("-+ #0123456789.", format[j]) >= 0 {
			j++
		}
		if j >= len(format) {
			return nil, fmt.Errorf("invalid conversion '%s' to 'format'", format[i:])
		}
		spec, verb := format[i+1:j], format[j]
		if !validFormatSpec(spec) {
			return nil, fmt.Errorf("invalid conversion '%%%s%c' to 'format'", spec, verb)
		}
		switch verb {
		case '%':
			b.WriteByte('%')
		case 'd', 'i':
			fmt.Fprintf(&b, "%"+spec+"d", int64(hostscript.ToNumber(arg())))
		case 'x', 'X', 'o':
			fmt.Fprintf(&b, "%"+spec+string(verb), int64(hostscript.ToNumber(arg())))
		case 'c':
			b.WriteRune(rune(hostscript.ToInt(arg())))
		case 'f', 'g', 'e', 'G', 'E':
			fmt.Fprintf(&b, "%"+spec+string(verb), hostscript.ToNumber(arg()))
		case 's':
			fmt.Fprintf(&b, "%"+spec+"s", luaToString(arg()))
		case 'q':
			b.WriteString(strconv.Quote(luaToString(arg())))
		default:
			return nil, fmt.Errorf("invalid conversion '%%%s%c' to 'format'", spec, verb)
		}
		i = j
	}
	return b.String(), nil
}

func luaToString(v hostscript.Value) string {
	if v == nil {
		return "nil"
	}
	return hostscript.ToString(v)
}

// validFormatSpec accepts flags, then a width and a precision of at most two
// digits each.
func validFormatSpec(spec string) bool {
	spec = strings.TrimLeft(spec, "-+ #0")
	width, prec, _ := strings.Cut(spec, ".")
	if len(width) > 2 || len(prec) > 2 {
		return false
	}
	return strings.Trim(width, "0123456789") == "" && strings.Trim(prec, "0123456789") == ""
}

