package hostscript

import (
	"math"
	"strconv"
	"strings"
)

// Value is a script value: nil, bool, float64, string, *Array, *Object,
// *Closure or *Native.
type Value = any

// Array is a mutable, reference-typed list.
type Array struct {
	Elems []Value
}

// NewArray returns an array holding elems.
func NewArray(elems ...Value) *Array {
	return &Array{Elems: elems}
}

// Object is a reference-typed map that remembers key insertion order.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Get returns the property value, or nil when absent.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Set assigns a property, appending new keys to the order.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes a property.
func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the property names in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of properties.
func (o *Object) Len() int { return len(o.keys) }

// NativeFunc is the Go signature of a function callable from scripts.
type NativeFunc func(args []Value) (Value, error)

// Native wraps a Go function as a script value.
type Native struct {
	Name string
	Fn   NativeFunc
}

// NewNative wraps fn under name.
func NewNative(name string, fn NativeFunc) *Native {
	return &Native{Name: name, Fn: fn}
}

// Closure is a script-defined function bound to its defining scope.
type Closure struct {
	Name   string
	Params []string
	Body   *Block
	env    *scope
}

// Truthy applies the usual loose truthiness rules.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// ToNumber converts v to a float64. Non-numeric strings become NaN.
func ToNumber(v Value) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			n, err := strconv.ParseInt(s[2:], 16, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case *Array:
		if len(x.Elems) == 0 {
			return 0
		}
		if len(x.Elems) == 1 {
			return ToNumber(x.Elems[0])
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

// ToInt truncates v toward zero. NaN and infinities become 0.
func ToInt(v Value) int {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func toInt32(v Value) int32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(f))))
}

// ToString renders v the way string concatenation does.
func ToString(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(x)
	case string:
		return x
	case *Array:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			if e != nil {
				parts[i] = ToString(e)
			}
		}
		return strings.Join(parts, ",")
	case *Object:
		return "[object Object]"
	case *Closure:
		return "function " + x.Name + "() { ... }"
	case *Native:
		return "function " + x.Name + "() { [native code] }"
	default:
		return "?"
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// TypeOf returns the script-level type name.
func TypeOf(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Closure, *Native:
		return "function"
	case *Array:
		return "array"
	default:
		return "object"
	}
}

// IsCallable reports whether v can be invoked.
func IsCallable(v Value) bool {
	switch v.(type) {
	case *Closure, *Native:
		return true
	}
	return false
}

func strictEqual(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	default:
		return a == b
	}
}

func looseEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if aStr && bStr {
		return a.(string) == b.(string)
	}
	if isPrimitive(a) && isPrimitive(b) {
		return ToNumber(a) == ToNumber(b)
	}
	return a == b
}

func isPrimitive(v Value) bool {
	switch v.(type) {
	case bool, float64, string:
		return true
	}
	return false
}
