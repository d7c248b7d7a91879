package hwsim

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/canvas/internal/hostscript"
)

// newInterp builds the sandbox for one run: builtins plus the board
// primitives. Unknown pins are reported once per run and otherwise ignored.
func (r *Runtime) newInterp(b Board) *hostscript.Interp {
	in := hostscript.New()
	if r.opts.Seed != 0 {
		in.Seed(r.opts.Seed)
	}
	in.SetStepBudget(r.opts.StepBudget)

	reported := make(map[string]bool)
	unknown := func(fn string, v hostscript.Value) {
		key := hostscript.ToString(v)
		if reported[key] {
			return
		}
		reported[key] = true
		r.sink.Infof("%s: pin %s is not on %s, ignored", fn, key, b.Name)
	}

	for _, c := range []string{"HIGH", "LOW", "INPUT", "OUTPUT", "INPUT_PULLUP"} {
		in.Define(c, c)
	}
	in.Define("LED_BUILTIN", float64(b.LEDBuiltin))
	for name, n := range b.AnalogNames() {
		in.Define(name, float64(n))
	}
	for name, base := range map[string]float64{"BIN": 2, "OCT": 8, "DEC": 10, "HEX": 16} {
		in.Define(name, base)
	}

	in.DefineFunc("pinMode", func(args []hostscript.Value) (hostscript.Value, error) {
		mode := modeOf(hostscript.Arg(args, 1))
		if _, ok := r.pins.update(hostscript.Arg(args, 0), func(p *Pin) {
			p.Mode = mode
			if mode == InputPullup {
				p.Value = High
			}
		}); !ok {
			unknown("pinMode", hostscript.Arg(args, 0))
			return nil, nil
		}
		r.publish()
		return nil, nil
	})

	in.DefineFunc("digitalWrite", func(args []hostscript.Value) (hostscript.Value, error) {
		level := levelOf(hostscript.Arg(args, 1))
		p, ok := r.pins.update(hostscript.Arg(args, 0), func(p *Pin) {
			p.Value = level
			p.Duty = 0
			if level == High {
				p.Duty = 255
			}
		})
		if !ok {
			unknown("digitalWrite", hostscript.Arg(args, 0))
			return nil, nil
		}
		r.sink.Infof("Pin %s → %s", p.ID, level)
		r.publish()
		return nil, nil
	})

	in.DefineFunc("digitalRead", func(args []hostscript.Value) (hostscript.Value, error) {
		if p, ok := r.pins.Get(hostscript.Arg(args, 0)); ok && p.Value == High {
			return 1.0, nil
		}
		return 0.0, nil
	})

	in.DefineFunc("analogWrite", func(args []hostscript.Value) (hostscript.Value, error) {
		v := hostscript.ArgNumber(args, 1)
		duty := int(math.Max(0, math.Min(255, math.Round(v))))
		level := Low
		if v > 0 {
			level = High
		}
		p, ok := r.pins.update(hostscript.Arg(args, 0), func(p *Pin) {
			p.Value = level
			p.Duty = duty
		})
		if !ok {
			unknown("analogWrite", hostscript.Arg(args, 0))
			return nil, nil
		}
		r.sink.Infof("Pin %s → %s (PWM %d)", p.ID, level, duty)
		r.publish()
		return nil, nil
	})

	// No analog source is simulated; reads are noise.
	in.DefineFunc("analogRead", func([]hostscript.Value) (hostscript.Value, error) {
		return float64(in.Rand().IntN(1024)), nil
	})

	in.DefineFunc("delay", func(args []hostscript.Value) (hostscript.Value, error) {
		r.sleep(time.Duration(hostscript.ArgNumber(args, 0) * float64(time.Millisecond)))
		return nil, nil
	})
	in.DefineFunc("delayMicroseconds", func(args []hostscript.Value) (hostscript.Value, error) {
		r.sleep(time.Duration(hostscript.ArgNumber(args, 0) * float64(time.Microsecond)))
		return nil, nil
	})
	in.DefineFunc("millis", func([]hostscript.Value) (hostscript.Value, error) {
		return float64(r.elapsed().Milliseconds()), nil
	})
	in.DefineFunc("micros", func([]hostscript.Value) (hostscript.Value, error) {
		return float64(r.elapsed().Microseconds()), nil
	})

	in.DefineFunc("random", func(args []hostscript.Value) (hostscript.Value, error) {
		lo, hi := 0, hostscript.ArgInt(args, 0)
		if len(args) > 1 {
			lo, hi = hi, hostscript.ArgInt(args, 1)
		}
		if hi <= lo {
			return float64(lo), nil
		}
		return float64(lo + in.Rand().IntN(hi-lo)), nil
	})
	in.DefineFunc("randomSeed", func(args []hostscript.Value) (hostscript.Value, error) {
		in.Seed(uint64(hostscript.ArgInt(args, 0)))
		return nil, nil
	})
	in.DefineFunc("map", func(args []hostscript.Value) (hostscript.Value, error) {
		x, inLo, inHi := hostscript.ArgInt(args, 0), hostscript.ArgInt(args, 1), hostscript.ArgInt(args, 2)
		outLo, outHi := hostscript.ArgInt(args, 3), hostscript.ArgInt(args, 4)
		if inHi == inLo {
			return float64(outLo), nil
		}
		return float64((x-inLo)*(outHi-outLo)/(inHi-inLo) + outLo), nil
	})
	in.DefineFunc("constrain", func(args []hostscript.Value) (hostscript.Value, error) {
		x, lo, hi := hostscript.ArgNumber(args, 0), hostscript.ArgNumber(args, 1), hostscript.ArgNumber(args, 2)
		return math.Max(lo, math.Min(hi, x)), nil
	})
	in.DefineFunc("abs", func(args []hostscript.Value) (hostscript.Value, error) {
		return math.Abs(hostscript.ArgNumber(args, 0)), nil
	})
	in.DefineFunc("min", func(args []hostscript.Value) (hostscript.Value, error) {
		return math.Min(hostscript.ArgNumber(args, 0), hostscript.ArgNumber(args, 1)), nil
	})
	in.DefineFunc("max", func(args []hostscript.Value) (hostscript.Value, error) {
		return math.Max(hostscript.ArgNumber(args, 0), hostscript.ArgNumber(args, 1)), nil
	})
	in.DefineFunc("sq", func(args []hostscript.Value) (hostscript.Value, error) {
		x := hostscript.ArgNumber(args, 0)
		return x * x, nil
	})
	in.DefineFunc("sqrt", func(args []hostscript.Value) (hostscript.Value, error) {
		return math.Sqrt(hostscript.ArgNumber(args, 0)), nil
	})
	in.DefineFunc("pow", func(args []hostscript.Value) (hostscript.Value, error) {
		return math.Pow(hostscript.ArgNumber(args, 0), hostscript.ArgNumber(args, 1)), nil
	})
	// F() marks flash strings on AVR; here it is the identity.
	in.DefineFunc("F", func(args []hostscript.Value) (hostscript.Value, error) {
		return hostscript.Arg(args, 0), nil
	})

	in.Define("Serial", r.serialObject())
	return in
}

// serialObject is the Serial port. print buffers until println so
// "print(a); println(b)" becomes one log line.
func (r *Runtime) serialObject() *hostscript.Object {
	s := hostscript.NewObject()
	s.Set("begin", hostscript.NewNative("Serial.begin", func(args []hostscript.Value) (hostscript.Value, error) {
		r.sink.Infof("Serial started at %d baud", hostscript.ArgIntOr(args, 0, 9600))
		return nil, nil
	}))
	// Every print is its own log line, so output shows while loop() runs.
	write := func(args []hostscript.Value) (hostscript.Value, error) {
		r.sink.Infof("Serial: %s", serialText(args))
		return nil, nil
	}
	s.Set("print", hostscript.NewNative("Serial.print", write))
	s.Set("println", hostscript.NewNative("Serial.println", write))
	s.Set("available", hostscript.NewNative("Serial.available", func([]hostscript.Value) (hostscript.Value, error) {
		return 0.0, nil
	}))
	s.Set("read", hostscript.NewNative("Serial.read", func([]hostscript.Value) (hostscript.Value, error) {
		return -1.0, nil
	}))
	return s
}

// serialText formats a print argument. For whole numbers a second argument
// of BIN/OCT/DEC/HEX selects the base; otherwise it is a decimal count.
func serialText(args []hostscript.Value) string {
	v := hostscript.Arg(args, 0)
	if v == nil && len(args) == 0 {
		return ""
	}
	f, isNum := v.(float64)
	if !isNum || len(args) < 2 {
		return hostscript.ToString(v)
	}
	n := hostscript.ArgInt(args, 1)
	if f == math.Trunc(f) {
		switch n {
		case 2, 8, 10, 16:
			return strings.ToUpper(strconv.FormatInt(int64(f), n))
		}
	}
	return strconv.FormatFloat(f, 'f', max(0, n), 64)
}
