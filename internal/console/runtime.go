// Package console is a fixed-frame-rate fantasy console: a 240x136
// indexed raster, eight buttons and a TIC() callback run once per frame.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/zjrosen/canvas/internal/hostscript"
	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/pubsub"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/transpile"
)

var (
	// ErrBusy is returned by Run while a cartridge is already running.
	ErrBusy = errors.New("console already running")

	// ErrNoEntryPoint is returned before the first frame when the
	// cartridge has no TIC function.
	ErrNoEntryPoint = errors.New("cartridge defines no TIC() function")

	// ErrNotLoaded is returned by Step before Load.
	ErrNotLoaded = errors.New("no cartridge loaded")
)

const (
	DefaultFPS        = 60
	DefaultHoldFrames = 6
)

// State of the frame loop.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
	// Halted means the last frame raised an error; the screen keeps its
	// final image until the next Run.
	Halted State = "halted"
)

// Frame is published after every frame.
type Frame struct {
	Tick   uint64
	FPS    float64
	State  State
	Pixels []uint8
}

// Options configures a Runtime. Zero values select the defaults.
type Options struct {
	FPS int
	// StepBudget bounds the statements a single TIC() may run. 0 is
	// unlimited.
	StepBudget int
	// FrameDeadline aborts a TIC() that runs longer. 0 disables it.
	FrameDeadline time.Duration
	// HoldFrames is how long a key tap keeps its button down.
	HoldFrames int
	Seed       uint64
	Clock      clock.Clock
	Log        *runlog.Broker
}

// Runtime owns one cartridge at a time. User code runs only on the
// goroutine calling Run or Step.
type Runtime struct {
	opts   Options
	clock  clock.Clock
	sink   *runlog.Sink
	events *pubsub.Broker[Frame]

	mu    sync.Mutex
	state State
	front Screen
	latch inputLatch
	frame FrameState
	fps   float64
	soft  context.CancelFunc
	hard  context.CancelFunc
	done  chan struct{}

	// stepping is set while a Step outside Run owns the interpreter.
	stepping bool

	// Owned by the goroutine running frames.
	in        *hostscript.Interp
	back      Screen
	sheet     *Sheet
	cur       FrameState
	start     time.Time
	fpsStart  time.Time
	fpsFrames int
}

// New creates an idle runtime.
func New(opts Options) *Runtime {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.HoldFrames <= 0 {
		opts.HoldFrames = DefaultHoldFrames
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Runtime{
		opts:   opts,
		clock:  clk,
		sink:   runlog.NewSink(opts.Log, "console", log.CatConsole, clk),
		events: pubsub.NewBroker[Frame](),
		state:  Idle,
		sheet:  NewSheet(nil),
	}
}

// Events streams frames to the UI.
func (r *Runtime) Events() *pubsub.Broker[Frame] { return r.events }

// State reports the loop state.
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Running reports whether the frame loop is active.
func (r *Runtime) Running() bool { return r.State() == Running }

// FPS is the measured frame rate over the last second.
func (r *Runtime) FPS() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fps
}

// Frame returns the input state of the most recent frame.
func (r *Runtime) Frame() FrameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

// Pixels copies the last completed frame.
func (r *Runtime) Pixels() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint8(nil), r.front.Pix[:]...)
}

// SetButton sets a button's level until changed again.
func (r *Runtime) SetButton(b int, down bool) {
	if b < 0 || b >= NumButtons {
		return
	}
	r.mu.Lock()
	r.latch.down[b] = down
	r.mu.Unlock()
}

// Tap holds a button for HoldFrames frames.
func (r *Runtime) Tap(b int) {
	if b < 0 || b >= NumButtons {
		return
	}
	r.mu.Lock()
	r.latch.hold[b] = r.opts.HoldFrames
	r.mu.Unlock()
}

// Key taps the button aliased to key, reporting whether one matched.
func (r *Runtime) Key(key string) bool {
	b, ok := KeyButton(key)
	if ok {
		r.Tap(b)
	}
	return ok
}

// Load prepares prog for Step: a fresh interpreter with only the console
// library, the sprite sheet, global code, then BOOT() when present.
// A missing TIC is reported here, before any frame runs.
func (r *Runtime) Load(ctx context.Context, prog transpile.Program) error {
	in := hostscript.New()
	if r.opts.Seed != 0 {
		in.Seed(r.opts.Seed)
	}
	r.in = nil
	r.sheet = NewSheet(prog.Sprites)
	r.back.Clear(0)
	r.cur = FrameState{}
	r.start = r.clock.Now()
	r.fpsStart, r.fpsFrames = r.start, 0
	r.mu.Lock()
	r.frame = FrameState{}
	r.latch = inputLatch{}
	r.fps = 0
	r.mu.Unlock()

	r.install(in)
	if title := prog.Metadata["title"]; title != "" {
		r.sink.Infof("Loading %q", title)
	}
	if err := in.Exec(ctx, prog.Source); err != nil {
		r.sink.Errorf("load: %v", err)
		return fmt.Errorf("loading cartridge: %w", err)
	}
	if !in.HasFunc("TIC") {
		r.sink.Errorf("%v", ErrNoEntryPoint)
		return ErrNoEntryPoint
	}
	in.SetStepBudget(r.opts.StepBudget)
	if in.HasFunc("BOOT") {
		if _, err := in.Call(ctx, "BOOT"); err != nil {
			r.sink.Errorf("BOOT(): %v", err)
			return fmt.Errorf("BOOT(): %w", err)
		}
	}
	r.in = in
	log.Info(log.CatConsole, "cartridge loaded", "sprites", r.sheet.Len())
	return nil
}

// Step runs exactly one frame: latch input, TIC(), publish. An error from
// TIC halts the runtime and is returned. Step returns ErrBusy while the
// frame loop or another Step is running.
func (r *Runtime) Step(ctx context.Context) error {
	r.mu.Lock()
	if r.state == Running || r.stepping {
		r.mu.Unlock()
		return ErrBusy
	}
	r.stepping = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.stepping = false
		r.mu.Unlock()
	}()
	return r.step(ctx)
}

func (r *Runtime) step(ctx context.Context) error {
	if r.in == nil {
		return ErrNotLoaded
	}

	r.mu.Lock()
	next := FrameState{Tick: r.frame.Tick + 1, Prev: r.frame.Buttons, Buttons: r.latch.poll()}
	for i, down := range next.Buttons {
		if down {
			next.Held[i] = r.frame.Held[i] + 1
		}
	}
	r.frame = next
	r.mu.Unlock()
	r.cur = next

	frameCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.opts.FrameDeadline > 0 {
		frameCtx, cancel = r.clock.WithTimeout(ctx, r.opts.FrameDeadline)
	}
	_, err := r.in.Call(frameCtx, "TIC")
	cancel()

	r.mu.Lock()
	if err != nil {
		r.state = Halted
	}
	r.front = r.back
	r.tickFPS()
	f := Frame{Tick: next.Tick, FPS: r.fps, State: r.state, Pixels: append([]uint8(nil), r.front.Pix[:]...)}
	r.mu.Unlock()
	r.events.Publish(pubsub.FrameEvent, f)

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		r.sink.Errorf("TIC() frame %d: %v", next.Tick, err)
		r.sink.Warnf("Console halted")
		return fmt.Errorf("TIC(): %w", err)
	}
	return nil
}

// tickFPS updates the readout once per second of clock time. Called with
// mu held.
func (r *Runtime) tickFPS() {
	r.fpsFrames++
	if d := r.clock.Since(r.fpsStart); d >= time.Second {
		r.fps = float64(r.fpsFrames) / d.Seconds()
		r.fpsStart, r.fpsFrames = r.clock.Now(), 0
	}
}

// Run loads prog and runs frames at the configured rate until Stop, ctx
// cancellation or a frame error (which halts the loop and is returned).
func (r *Runtime) Run(ctx context.Context, prog transpile.Program) error {
	r.mu.Lock()
	if r.state == Running || r.stepping {
		r.mu.Unlock()
		return ErrBusy
	}
	hard, hardCancel := context.WithCancel(ctx)
	soft, softCancel := context.WithCancel(hard)
	r.state = Running
	r.soft, r.hard = softCancel, hardCancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.state == Running {
			r.state = Idle
		}
		r.soft, r.hard = nil, nil
		r.mu.Unlock()
		softCancel()
		hardCancel()
		close(done)
	}()

	if err := r.Load(hard, prog); err != nil {
		r.mu.Lock()
		r.state = Idle
		r.mu.Unlock()
		return err
	}

	r.sink.Infof("Console running at %d fps", r.opts.FPS)
	ticker := r.clock.Ticker(time.Second / time.Duration(r.opts.FPS))
	defer ticker.Stop()
	for {
		select {
		case <-soft.Done():
			r.sink.Infof("Console stopped after %d frames", r.Frame().Tick)
			return nil
		case <-ticker.C:
			if err := r.step(hard); err != nil {
				if hard.Err() != nil {
					r.sink.Warnf("Console aborted")
					return nil
				}
				return err
			}
		}
	}
}

// Stop ends the loop before the next frame.
func (r *Runtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.soft != nil {
		r.soft()
	}
}

// Shutdown stops the loop and waits for it, aborting a frame still running
// when ctx ends.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	done, soft, hard := r.done, r.soft, r.hard
	r.mu.Unlock()
	if soft == nil {
		return nil
	}
	soft()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}
	log.Warn(log.CatConsole, "frame did not finish in time, aborting")
	hard()
	<-done
	return ctx.Err()
}
