package hostscript

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

var (
	// ErrStepBudget is returned when a single Exec or Call runs more
	// statements than the configured budget.
	ErrStepBudget = errors.New("step budget exceeded")

	// ErrUndefined is returned when a script reads a name that was never bound.
	ErrUndefined = errors.New("undefined name")

	// ErrNotFunction is returned when a non-callable value is invoked.
	ErrNotFunction = errors.New("not a function")

	// ErrCallDepth is returned when recursion exceeds the frame limit.
	ErrCallDepth = errors.New("call depth exceeded")
)

// RuntimeError is an evaluation failure tied to a source line.
type RuntimeError struct {
	Line int
	Msg  string
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at line %d: %s", e.Line, e.Msg)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

const (
	maxCallDepth     = 256
	ctxCheckInterval = 64
)

type control int

const (
	ctlNormal control = iota
	ctlBreak
	ctlContinue
	ctlReturn
)

// Interp evaluates programs against a global scope. An Interp is not safe
// for concurrent use; runtimes own one per run.
type Interp struct {
	globals *scope
	budget  int
	steps   int
	depth   int
	ctx     context.Context
	rng     *rand.Rand
}

// New returns an interpreter with the builtin library installed.
func New() *Interp {
	seed := uint64(time.Now().UnixNano())
	in := &Interp{
		globals: newScope(nil),
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	in.installBuiltins()
	return in
}

// SetStepBudget limits the statements one Exec or Call may run.
// Zero disables the limit.
func (in *Interp) SetStepBudget(n int) { in.budget = n }

// Seed makes Math.random deterministic.
func (in *Interp) Seed(seed uint64) {
	in.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
}

// Rand exposes the interpreter's random source to natives.
func (in *Interp) Rand() *rand.Rand { return in.rng }

// Define binds a global name. Natives are usually installed this way.
func (in *Interp) Define(name string, v Value) {
	in.globals.declare(name, v, false)
}

// DefineFunc binds a global native function.
func (in *Interp) DefineFunc(name string, fn NativeFunc) {
	in.Define(name, NewNative(name, fn))
}

// Lookup returns the global bound to name.
func (in *Interp) Lookup(name string) (Value, bool) {
	b, ok := in.globals.vars[name]
	if !ok {
		return nil, false
	}
	return b.value, true
}

// HasFunc reports whether name is bound to a callable global.
func (in *Interp) HasFunc(name string) bool {
	v, ok := in.Lookup(name)
	return ok && IsCallable(v)
}

// Exec parses and runs src at global scope.
func (in *Interp) Exec(ctx context.Context, src string) error {
	prog, err := Parse(src)
	if err != nil {
		return err
	}
	return in.Run(ctx, prog)
}

// Run executes an already parsed program at global scope.
func (in *Interp) Run(ctx context.Context, prog *Program) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in.reset(ctx)
	in.hoist(prog.Body, in.globals)
	_, _, err := in.execList(prog.Body, in.globals)
	return err
}

// Call invokes the global function name with args.
func (in *Interp) Call(ctx context.Context, name string, args ...Value) (Value, error) {
	fn, ok := in.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, name)
	}
	return in.CallValue(ctx, fn, args...)
}

// CallValue invokes fn with args.
func (in *Interp) CallValue(ctx context.Context, fn Value, args ...Value) (Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !IsCallable(fn) {
		return nil, fmt.Errorf("%w: %s", ErrNotFunction, TypeOf(fn))
	}
	in.reset(ctx)
	return in.invoke(fn, args, 0)
}

// Steps reports the statements run by the most recent Exec or Call.
func (in *Interp) Steps() int { return in.steps }

func (in *Interp) reset(ctx context.Context) {
	in.ctx = ctx
	in.steps = 0
	in.depth = 0
}

func (in *Interp) step(line int) error {
	in.steps++
	if in.budget > 0 && in.steps > in.budget {
		return &RuntimeError{Line: line, Msg: ErrStepBudget.Error(), Err: ErrStepBudget}
	}
	if in.ctx != nil && in.steps%ctxCheckInterval == 0 {
		if err := in.ctx.Err(); err != nil {
			return &RuntimeError{Line: line, Msg: err.Error(), Err: err}
		}
	}
	return nil
}

func rtErr(line int, sentinel error, format string, args ...any) error {
	return &RuntimeError{Line: line, Msg: fmt.Sprintf(format, args...), Err: sentinel}
}

func (in *Interp) hoist(stmts []Stmt, sc *scope) {
	for _, st := range stmts {
		if fd, ok := st.(*FuncDecl); ok {
			sc.declare(fd.Name, &Closure{Name: fd.Name, Params: fd.Params, Body: fd.Body, env: sc}, false)
		}
	}
}

func (in *Interp) execList(stmts []Stmt, sc *scope) (control, Value, error) {
	for _, st := range stmts {
		ctl, v, err := in.exec(st, sc)
		if err != nil || ctl != ctlNormal {
			return ctl, v, err
		}
	}
	return ctlNormal, nil, nil
}

func (in *Interp) exec(st Stmt, sc *scope) (control, Value, error) {
	if err := in.step(st.Line()); err != nil {
		return ctlNormal, nil, err
	}

	switch s := st.(type) {
	case *VarDecl:
		for i, name := range s.Names {
			var v Value
			if s.Inits[i] != nil {
				var err error
				if v, err = in.eval(s.Inits[i], sc); err != nil {
					return ctlNormal, nil, err
				}
			}
			sc.declare(name, v, s.Kind == "const")
		}
		return ctlNormal, nil, nil

	case *FuncDecl:
		return ctlNormal, nil, nil

	case *Block:
		inner := newScope(sc)
		in.hoist(s.Stmts, inner)
		return in.execList(s.Stmts, inner)

	case *IfStmt:
		cond, err := in.eval(s.Cond, sc)
		if err != nil {
			return ctlNormal, nil, err
		}
		if Truthy(cond) {
			return in.exec(s.Then, sc)
		}
		if s.Else != nil {
			return in.exec(s.Else, sc)
		}
		return ctlNormal, nil, nil

	case *WhileStmt:
		for {
			cond, err := in.eval(s.Cond, sc)
			if err != nil {
				return ctlNormal, nil, err
			}
			if !Truthy(cond) {
				return ctlNormal, nil, nil
			}
			ctl, v, err := in.exec(s.Body, sc)
			if err != nil || ctl == ctlReturn {
				return ctl, v, err
			}
			if ctl == ctlBreak {
				return ctlNormal, nil, nil
			}
		}

	case *DoWhileStmt:
		for {
			ctl, v, err := in.exec(s.Body, sc)
			if err != nil || ctl == ctlReturn {
				return ctl, v, err
			}
			if ctl == ctlBreak {
				return ctlNormal, nil, nil
			}
			cond, err := in.eval(s.Cond, sc)
			if err != nil {
				return ctlNormal, nil, err
			}
			if !Truthy(cond) {
				return ctlNormal, nil, nil
			}
		}

	case *ForStmt:
		loop := newScope(sc)
		if s.Init != nil {
			if _, _, err := in.exec(s.Init, loop); err != nil {
				return ctlNormal, nil, err
			}
		}
		for {
			if s.Cond != nil {
				cond, err := in.eval(s.Cond, loop)
				if err != nil {
					return ctlNormal, nil, err
				}
				if !Truthy(cond) {
					return ctlNormal, nil, nil
				}
			}
			ctl, v, err := in.exec(s.Body, loop)
			if err != nil || ctl == ctlReturn {
				return ctl, v, err
			}
			if ctl == ctlBreak {
				return ctlNormal, nil, nil
			}
			if s.Post != nil {
				if _, err := in.eval(s.Post, loop); err != nil {
					return ctlNormal, nil, err
				}
			}
		}

	case *SwitchStmt:
		return in.execSwitch(s, sc)

	case *ReturnStmt:
		if s.Value == nil {
			return ctlReturn, nil, nil
		}
		v, err := in.eval(s.Value, sc)
		return ctlReturn, v, err

	case *BreakStmt:
		return ctlBreak, nil, nil

	case *ContinueStmt:
		return ctlContinue, nil, nil

	case *ExprStmt:
		_, err := in.eval(s.X, sc)
		return ctlNormal, nil, err

	case *EmptyStmt:
		return ctlNormal, nil, nil
	}
	return ctlNormal, nil, rtErr(st.Line(), nil, "unsupported statement %T", st)
}

func (in *Interp) execSwitch(s *SwitchStmt, sc *scope) (control, Value, error) {
	disc, err := in.eval(s.Disc, sc)
	if err != nil {
		return ctlNormal, nil, err
	}
	start := -1
	for i, c := range s.Cases {
		if c.Test == nil {
			continue
		}
		v, err := in.eval(c.Test, sc)
		if err != nil {
			return ctlNormal, nil, err
		}
		if strictEqual(disc, v) {
			start = i
			break
		}
	}
	if start < 0 {
		for i, c := range s.Cases {
			if c.Test == nil {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return ctlNormal, nil, nil
	}
	inner := newScope(sc)
	for _, c := range s.Cases[start:] {
		ctl, v, err := in.execList(c.Body, inner)
		if err != nil {
			return ctlNormal, nil, err
		}
		switch ctl {
		case ctlBreak:
			return ctlNormal, nil, nil
		case ctlContinue, ctlReturn:
			return ctl, v, nil
		}
	}
	return ctlNormal, nil, nil
}

func (in *Interp) eval(x Expr, sc *scope) (Value, error) {
	switch e := x.(type) {
	case *NumberLit:
		return e.Value, nil
	case *StringLit:
		return e.Value, nil
	case *BoolLit:
		return e.Value, nil
	case *NullLit:
		return nil, nil

	case *Ident:
		b := sc.lookup(e.Name)
		if b == nil {
			return nil, rtErr(e.Line(), ErrUndefined, "%s is not defined", e.Name)
		}
		return b.value, nil

	case *ArrayLit:
		arr := &Array{Elems: make([]Value, 0, len(e.Elems))}
		for _, el := range e.Elems {
			v, err := in.eval(el, sc)
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, v)
		}
		return arr, nil

	case *ObjectLit:
		obj := NewObject()
		for i, k := range e.Keys {
			v, err := in.eval(e.Values[i], sc)
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil

	case *FuncLit:
		return &Closure{Name: "anonymous", Params: e.Params, Body: e.Body, env: sc}, nil

	case *MemberExpr:
		obj, err := in.eval(e.X, sc)
		if err != nil {
			return nil, err
		}
		return in.getMember(obj, e.Name, e.Line())

	case *IndexExpr:
		obj, err := in.eval(e.X, sc)
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(e.Index, sc)
		if err != nil {
			return nil, err
		}
		return in.getIndex(obj, idx, e.Line())

	case *CallExpr:
		fn, err := in.eval(e.Fn, sc)
		if err != nil {
			return nil, err
		}
		args := make([]Value, 0, len(e.Args))
		for _, a := range e.Args {
			v, err := in.eval(a, sc)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		if !IsCallable(fn) {
			return nil, rtErr(e.Line(), ErrNotFunction, "%s is not a function", calleeName(e.Fn))
		}
		return in.invoke(fn, args, e.Line())

	case *UnaryExpr:
		v, err := in.eval(e.X, sc)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case "!":
			return !Truthy(v), nil
		case "-":
			return -ToNumber(v), nil
		case "+":
			return ToNumber(v), nil
		case "~":
			return float64(^toInt32(v)), nil
		}
		return nil, rtErr(e.Line(), nil, "unknown unary operator %s", e.Op)

	case *UpdateExpr:
		cur, err := in.eval(e.Target, sc)
		if err != nil {
			return nil, err
		}
		old := ToNumber(cur)
		next := old + 1
		if e.Op == "--" {
			next = old - 1
		}
		if err := in.assign(e.Target, next, sc); err != nil {
			return nil, err
		}
		if e.Prefix {
			return next, nil
		}
		return old, nil

	case *BinaryExpr:
		l, err := in.eval(e.L, sc)
		if err != nil {
			return nil, err
		}
		r, err := in.eval(e.R, sc)
		if err != nil {
			return nil, err
		}
		return binaryOp(e.Op, l, r, e.Line())

	case *LogicalExpr:
		l, err := in.eval(e.L, sc)
		if err != nil {
			return nil, err
		}
		if e.Op == "&&" {
			if !Truthy(l) {
				return l, nil
			}
		} else if Truthy(l) {
			return l, nil
		}
		return in.eval(e.R, sc)

	case *CondExpr:
		t, err := in.eval(e.Test, sc)
		if err != nil {
			return nil, err
		}
		if Truthy(t) {
			return in.eval(e.A, sc)
		}
		return in.eval(e.B, sc)

	case *AssignExpr:
		v, err := in.eval(e.Value, sc)
		if err != nil {
			return nil, err
		}
		if e.Op != "=" {
			cur, err := in.eval(e.Target, sc)
			if err != nil {
				return nil, err
			}
			if v, err = binaryOp(e.Op[:len(e.Op)-1], cur, v, e.Line()); err != nil {
				return nil, err
			}
		}
		if err := in.assign(e.Target, v, sc); err != nil {
			return nil, err
		}
		return v, nil

	case *AwaitExpr:
		// Natives block until done, so awaiting is plain evaluation.
		return in.eval(e.X, sc)
	}
	return nil, rtErr(x.Line(), nil, "unsupported expression %T", x)
}

func calleeName(x Expr) string {
	switch e := x.(type) {
	case *Ident:
		return e.Name
	case *MemberExpr:
		return calleeName(e.X) + "." + e.Name
	default:
		return "expression"
	}
}

func (in *Interp) assign(target Expr, v Value, sc *scope) error {
	switch t := target.(type) {
	case *Ident:
		b := sc.lookup(t.Name)
		if b == nil {
			in.globals.declare(t.Name, v, false)
			return nil
		}
		if b.konst {
			return rtErr(t.Line(), nil, "assignment to constant %s", t.Name)
		}
		b.value = v
		return nil

	case *MemberExpr:
		obj, err := in.eval(t.X, sc)
		if err != nil {
			return err
		}
		o, ok := obj.(*Object)
		if !ok {
			return rtErr(t.Line(), nil, "cannot set property %s of %s", t.Name, TypeOf(obj))
		}
		o.Set(t.Name, v)
		return nil

	case *IndexExpr:
		obj, err := in.eval(t.X, sc)
		if err != nil {
			return err
		}
		idx, err := in.eval(t.Index, sc)
		if err != nil {
			return err
		}
		switch o := obj.(type) {
		case *Array:
			f := ToNumber(idx)
			if f < 0 || f != math.Trunc(f) || f > 1<<24 {
				return rtErr(t.Line(), nil, "invalid array index %s", ToString(idx))
			}
			i := int(f)
			for len(o.Elems) <= i {
				o.Elems = append(o.Elems, nil)
			}
			o.Elems[i] = v
			return nil
		case *Object:
			o.Set(ToString(idx), v)
			return nil
		}
		return rtErr(t.Line(), nil, "cannot index %s", TypeOf(obj))
	}
	return rtErr(target.Line(), nil, "invalid assignment target")
}

func (in *Interp) invoke(fn Value, args []Value, line int) (Value, error) {
	switch f := fn.(type) {
	case *Native:
		v, err := f.Fn(args)
		if err != nil {
			var rte *RuntimeError
			if errors.As(err, &rte) {
				return nil, err
			}
			return nil, &RuntimeError{Line: line, Msg: f.Name + ": " + err.Error(), Err: err}
		}
		return v, nil

	case *Closure:
		if in.depth >= maxCallDepth {
			return nil, rtErr(line, ErrCallDepth, "call depth exceeded in %s", f.Name)
		}
		in.depth++
		defer func() { in.depth-- }()

		sc := newScope(f.env)
		for i, p := range f.Params {
			var v Value
			if i < len(args) {
				v = args[i]
			}
			sc.declare(p, v, false)
		}
		in.hoist(f.Body.Stmts, sc)
		ctl, v, err := in.execList(f.Body.Stmts, sc)
		if err != nil {
			return nil, err
		}
		if ctl == ctlReturn {
			return v, nil
		}
		return nil, nil
	}
	return nil, rtErr(line, ErrNotFunction, "%s is not a function", TypeOf(fn))
}

func binaryOp(op string, l, r Value, line int) (Value, error) {
	switch op {
	case "+":
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs || isCompound(l) || isCompound(r) {
			return ToString(l) + ToString(r), nil
		}
		return ToNumber(l) + ToNumber(r), nil
	case "-":
		return ToNumber(l) - ToNumber(r), nil
	case "*":
		return ToNumber(l) * ToNumber(r), nil
	case "/":
		return ToNumber(l) / ToNumber(r), nil
	case "%":
		return math.Mod(ToNumber(l), ToNumber(r)), nil
	case "**":
		return math.Pow(ToNumber(l), ToNumber(r)), nil
	case "==":
		return looseEqual(l, r), nil
	case "!=":
		return !looseEqual(l, r), nil
	case "===":
		return strictEqual(l, r), nil
	case "!==":
		return !strictEqual(l, r), nil
	case "<", "<=", ">", ">=":
		return compare(op, l, r), nil
	case "&":
		return float64(toInt32(l) & toInt32(r)), nil
	case "|":
		return float64(toInt32(l) | toInt32(r)), nil
	case "^":
		return float64(toInt32(l) ^ toInt32(r)), nil
	case "<<":
		return float64(toInt32(l) << (uint32(toInt32(r)) & 31)), nil
	case ">>":
		return float64(toInt32(l) >> (uint32(toInt32(r)) & 31)), nil
	}
	return nil, rtErr(line, nil, "unknown operator %s", op)
}

func isCompound(v Value) bool {
	switch v.(type) {
	case *Array, *Object:
		return true
	}
	return false
}

func compare(op string, l, r Value) bool {
	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case "<=":
			return ls <= rs
		case ">":
			return ls > rs
		default:
			return ls >= rs
		}
	}
	a, b := ToNumber(l), ToNumber(r)
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}
