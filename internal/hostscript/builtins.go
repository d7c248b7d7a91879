package hostscript

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Arg returns args[i], or nil when the caller passed fewer arguments.
func Arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// ArgNumber is ToNumber(Arg(args, i)).
func ArgNumber(args []Value, i int) float64 { return ToNumber(Arg(args, i)) }

// ArgInt is ToInt(Arg(args, i)).
func ArgInt(args []Value, i int) int { return ToInt(Arg(args, i)) }

// ArgIntOr returns def when argument i is absent or null.
func ArgIntOr(args []Value, i, def int) int {
	if v := Arg(args, i); v != nil {
		return ToInt(v)
	}
	return def
}

func (in *Interp) installBuiltins() {
	m := NewObject()
	m.Set("PI", math.Pi)
	m.Set("E", math.E)
	unary := map[string]func(float64) float64{
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"abs":   math.Abs,
		"sqrt":  math.Sqrt,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"trunc": math.Trunc,
		"log":   math.Log,
		"exp":   math.Exp,
		"round": func(x float64) float64 { return math.Floor(x + 0.5) },
		"sign": func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return x
		},
	}
	for _, name := range []string{"floor", "ceil", "abs", "sqrt", "sin", "cos", "tan", "trunc", "log", "exp", "round", "sign"} {
		f := unary[name]
		m.Set(name, NewNative("Math."+name, func(args []Value) (Value, error) {
			return f(ArgNumber(args, 0)), nil
		}))
	}
	m.Set("atan2", NewNative("Math.atan2", func(args []Value) (Value, error) {
		return math.Atan2(ArgNumber(args, 0), ArgNumber(args, 1)), nil
	}))
	m.Set("pow", NewNative("Math.pow", func(args []Value) (Value, error) {
		return math.Pow(ArgNumber(args, 0), ArgNumber(args, 1)), nil
	}))
	m.Set("min", NewNative("Math.min", func(args []Value) (Value, error) {
		out := math.Inf(1)
		for _, a := range args {
			out = math.Min(out, ToNumber(a))
		}
		return out, nil
	}))
	m.Set("max", NewNative("Math.max", func(args []Value) (Value, error) {
		out := math.Inf(-1)
		for _, a := range args {
			out = math.Max(out, ToNumber(a))
		}
		return out, nil
	}))
	m.Set("random", NewNative("Math.random", func([]Value) (Value, error) {
		return in.rng.Float64(), nil
	}))
	in.Define("Math", m)

	in.DefineFunc("len", func(args []Value) (Value, error) { return length(Arg(args, 0)) })
	// keys lists object keys in insertion order, or array indices.
	in.DefineFunc("keys", func(args []Value) (Value, error) {
		switch v := Arg(args, 0).(type) {
		case *Object:
			ks := v.Keys()
			out := make([]Value, len(ks))
			for i, k := range ks {
				out[i] = k
			}
			return NewArray(out...), nil
		case *Array:
			out := make([]Value, len(v.Elems))
			for i := range v.Elems {
				out[i] = float64(i)
			}
			return NewArray(out...), nil
		}
		return NewArray(), nil
	})
	// ilen is the length of the sequence part: an array's length, or how
	// many of an object's keys "1", "2", ... exist before the first gap.
	in.DefineFunc("ilen", func(args []Value) (Value, error) {
		o, ok := Arg(args, 0).(*Object)
		if !ok {
			return length(Arg(args, 0))
		}
		n := 0
		for {
			if _, ok := o.Get(strconv.Itoa(n + 1)); !ok {
				return float64(n), nil
			}
			n++
		}
	})
	// ivalues returns the sequence part of a value: an array's elements, or
	// an object's values under "1", "2", ... up to the first gap.
	in.DefineFunc("ivalues", func(args []Value) (Value, error) {
		switch v := Arg(args, 0).(type) {
		case *Array:
			return NewArray(append([]Value(nil), v.Elems...)...), nil
		case *Object:
			var out []Value
			for i := 1; ; i++ {
				e, ok := v.Get(strconv.Itoa(i))
				if !ok {
					break
				}
				out = append(out, e)
			}
			return NewArray(out...), nil
		}
		return NewArray(), nil
	})
	in.DefineFunc("String", func(args []Value) (Value, error) {
		return ToString(Arg(args, 0)), nil
	})
	in.DefineFunc("Number", func(args []Value) (Value, error) {
		return ToNumber(Arg(args, 0)), nil
	})
	in.DefineFunc("isNaN", func(args []Value) (Value, error) {
		return math.IsNaN(ArgNumber(args, 0)), nil
	})
	in.DefineFunc("parseFloat", func(args []Value) (Value, error) {
		return ToNumber(leadingNumber(ToString(Arg(args, 0)))), nil
	})
	in.DefineFunc("parseInt", func(args []Value) (Value, error) {
		s := strings.TrimSpace(ToString(Arg(args, 0)))
		radix := ArgIntOr(args, 1, 10)
		end := 0
		if end < len(s) && (s[end] == '-' || s[end] == '+') {
			end++
		}
		for end < len(s) {
			if _, err := strconv.ParseInt(s[end:end+1], radix, 64); err != nil {
				break
			}
			end++
		}
		n, err := strconv.ParseInt(s[:end], radix, 64)
		if err != nil {
			return math.NaN(), nil
		}
		return float64(n), nil
	})
}

func leadingNumber(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && strings.IndexByte("+-0123456789.eE", s[end]) >= 0 {
		end++
	}
	return s[:end]
}

func (in *Interp) getMember(obj Value, name string, line int) (Value, error) {
	switch o := obj.(type) {
	case nil:
		return nil, rtErr(line, nil, "cannot read property %s of null", name)
	case *Object:
		v, _ := o.Get(name)
		return v, nil
	case *Array:
		if name == "length" {
			return float64(len(o.Elems)), nil
		}
		if fn := arrayMethod(o, name); fn != nil {
			return fn, nil
		}
		return nil, nil
	case string:
		if name == "length" {
			return float64(len([]rune(o))), nil
		}
		if fn := stringMethod(o, name); fn != nil {
			return fn, nil
		}
		return nil, nil
	case float64:
		if name == "toFixed" {
			return NewNative("toFixed", func(args []Value) (Value, error) {
				return strconv.FormatFloat(o, 'f', ArgIntOr(args, 0, 0), 64), nil
			}), nil
		}
		return nil, nil
	}
	return nil, nil
}

func length(v Value) (Value, error) {
	switch v := v.(type) {
	case *Array:
		return float64(len(v.Elems)), nil
	case string:
		return float64(len([]rune(v))), nil
	case *Object:
		return float64(v.Len()), nil
	case nil:
		return nil, errors.New("attempt to get length of a null value")
	}
	return nil, fmt.Errorf("attempt to get length of a %s value", TypeOf(v))
}

func (in *Interp) getIndex(obj Value, idx Value, line int) (Value, error) {
	if s, ok := idx.(string); ok {
		if _, isObj := obj.(*Object); !isObj {
			return in.getMember(obj, s, line)
		}
	}
	switch o := obj.(type) {
	case nil:
		return nil, rtErr(line, nil, "cannot index null")
	case *Array:
		f := ToNumber(idx)
		if f < 0 || f != math.Trunc(f) || int(f) >= len(o.Elems) {
			return nil, nil
		}
		return o.Elems[int(f)], nil
	case *Object:
		v, _ := o.Get(ToString(idx))
		return v, nil
	case string:
		r := []rune(o)
		f := ToNumber(idx)
		if f < 0 || f != math.Trunc(f) || int(f) >= len(r) {
			return nil, nil
		}
		return string(r[int(f)]), nil
	}
	return nil, nil
}

func arrayMethod(a *Array, name string) *Native {
	var fn NativeFunc
	switch name {
	case "push":
		fn = func(args []Value) (Value, error) {
			a.Elems = append(a.Elems, args...)
			return float64(len(a.Elems)), nil
		}
	case "pop":
		fn = func([]Value) (Value, error) {
			if len(a.Elems) == 0 {
				return nil, nil
			}
			v := a.Elems[len(a.Elems)-1]
			a.Elems = a.Elems[:len(a.Elems)-1]
			return v, nil
		}
	case "shift":
		fn = func([]Value) (Value, error) {
			if len(a.Elems) == 0 {
				return nil, nil
			}
			v := a.Elems[0]
			a.Elems = a.Elems[1:]
			return v, nil
		}
	case "indexOf":
		fn = func(args []Value) (Value, error) {
			for i, e := range a.Elems {
				if strictEqual(e, Arg(args, 0)) {
					return float64(i), nil
				}
			}
			return float64(-1), nil
		}
	case "includes":
		fn = func(args []Value) (Value, error) {
			for _, e := range a.Elems {
				if strictEqual(e, Arg(args, 0)) {
					return true, nil
				}
			}
			return false, nil
		}
	case "join":
		fn = func(args []Value) (Value, error) {
			sep := ","
			if v := Arg(args, 0); v != nil {
				sep = ToString(v)
			}
			parts := make([]string, len(a.Elems))
			for i, e := range a.Elems {
				if e != nil {
					parts[i] = ToString(e)
				}
			}
			return strings.Join(parts, sep), nil
		}
	case "slice":
		fn = func(args []Value) (Value, error) {
			start, end := sliceBounds(len(a.Elems), args)
			return NewArray(append([]Value(nil), a.Elems[start:end]...)...), nil
		}
	default:
		return nil
	}
	return NewNative(name, fn)
}

func stringMethod(s string, name string) *Native {
	r := []rune(s)
	var fn NativeFunc
	switch name {
	case "charAt":
		fn = func(args []Value) (Value, error) {
			i := ArgInt(args, 0)
			if i < 0 || i >= len(r) {
				return "", nil
			}
			return string(r[i]), nil
		}
	case "charCodeAt":
		fn = func(args []Value) (Value, error) {
			i := ArgInt(args, 0)
			if i < 0 || i >= len(r) {
				return math.NaN(), nil
			}
			return float64(r[i]), nil
		}
	case "indexOf":
		fn = func(args []Value) (Value, error) {
			i := strings.Index(s, ToString(Arg(args, 0)))
			if i < 0 {
				return float64(-1), nil
			}
			return float64(len([]rune(s[:i]))), nil
		}
	case "includes":
		fn = func(args []Value) (Value, error) {
			return strings.Contains(s, ToString(Arg(args, 0))), nil
		}
	case "startsWith":
		fn = func(args []Value) (Value, error) {
			return strings.HasPrefix(s, ToString(Arg(args, 0))), nil
		}
	case "endsWith":
		fn = func(args []Value) (Value, error) {
			return strings.HasSuffix(s, ToString(Arg(args, 0))), nil
		}
	case "substring", "slice":
		fn = func(args []Value) (Value, error) {
			start, end := sliceBounds(len(r), args)
			return string(r[start:end]), nil
		}
	case "toUpperCase":
		fn = func([]Value) (Value, error) { return strings.ToUpper(s), nil }
	case "toLowerCase":
		fn = func([]Value) (Value, error) { return strings.ToLower(s), nil }
	case "trim":
		fn = func([]Value) (Value, error) { return strings.TrimSpace(s), nil }
	case "repeat":
		fn = func(args []Value) (Value, error) {
			n := ArgInt(args, 0)
			if n < 0 {
				return nil, errors.New("invalid repeat count")
			}
			return strings.Repeat(s, n), nil
		}
	case "split":
		fn = func(args []Value) (Value, error) {
			parts := strings.Split(s, ToString(Arg(args, 0)))
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return NewArray(out...), nil
		}
	default:
		return nil
	}
	return NewNative(name, fn)
}

// sliceBounds resolves optional (start, end) arguments with negative
// offsets counting from the end.
func sliceBounds(n int, args []Value) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			i += n
		}
		return max(0, min(i, n))
	}
	start := clamp(ArgIntOr(args, 0, 0))
	end := clamp(ArgIntOr(args, 1, n))
	if end < start {
		end = start
	}
	return start, end
}
