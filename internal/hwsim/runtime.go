// Package hwsim simulates a microcontroller board for transpiled sketches:
// a pin table, the Arduino-style primitives and a setup/loop run loop with
// simulated time.
package hwsim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/pubsub"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/transpile"
)

var (
	// ErrBusy is returned by Run while a program is already running.
	ErrBusy = errors.New("simulation already running")

	// ErrNoEntryPoint is returned when the program defines neither setup
	// nor loop.
	ErrNoEntryPoint = errors.New("program defines no setup() or loop()")

	// ErrUnknownBoard is returned by SetBoard for IDs not in the catalogue.
	ErrUnknownBoard = errors.New("unknown board")
)

// State is the run state of the runtime.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
)

// Snapshot is published on every pin change and state transition.
type Snapshot struct {
	Board     string
	State     State
	Pins      []Pin
	Iteration int
	Millis    int64
}

// Options configures a Runtime. Zero values select the defaults.
type Options struct {
	Board string
	// TimeScale multiplies simulated time against the clock. 1 is real
	// time; 0 advances millis() on delay without sleeping.
	TimeScale float64
	// MaxIterations stops the run after that many loop() calls. 0 is
	// unlimited.
	MaxIterations int
	// StepBudget bounds the statements of a single setup() or loop() call.
	StepBudget int
	Seed       uint64
	Clock      clock.Clock
	Log        *runlog.Broker
	Flasher    Flasher
}

// Runtime runs one program at a time on its own goroutine.
type Runtime struct {
	opts   Options
	clock  clock.Clock
	sink   *runlog.Sink
	pins   *PinTable
	events *pubsub.Broker[Snapshot]

	mu    sync.Mutex
	board Board
	state State
	soft  context.CancelFunc
	hard  context.CancelFunc
	done  chan struct{}
	iter  int

	start   time.Time
	virtual time.Duration

	// Owned by the run goroutine.
	runCtx context.Context
}

// New creates an idle runtime for opts.Board (DefaultBoard when empty or
// unknown).
func New(opts Options) *Runtime {
	b, ok := LookupBoard(opts.Board)
	if !ok {
		if opts.Board != "" {
			log.Warn(log.CatHWSim, "unknown board, using default", "board", opts.Board)
		}
		b, _ = LookupBoard(DefaultBoard)
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	if opts.TimeScale < 0 {
		opts.TimeScale = 0
	}
	return &Runtime{
		opts:   opts,
		clock:  clk,
		sink:   runlog.NewSink(opts.Log, "hwsim", log.CatHWSim, clk),
		pins:   NewPinTable(b),
		events: pubsub.NewBroker[Snapshot](),
		board:  b,
		state:  Idle,
	}
}

// Events streams snapshots for the pin grid.
func (r *Runtime) Events() *pubsub.Broker[Snapshot] { return r.events }

// Board returns the selected board.
func (r *Runtime) Board() Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board
}

// Pins returns a copy of the pin table.
func (r *Runtime) Pins() []Pin { return r.pins.Snapshot() }

// Running reports whether a program is executing.
func (r *Runtime) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == Running
}

// Iterations reports how many loop() calls the current or last run made.
func (r *Runtime) Iterations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.iter
}

// SetBoard selects another board and resets every pin. It is refused
// while running.
func (r *Runtime) SetBoard(id string) error {
	b, ok := LookupBoard(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBoard, id)
	}
	r.mu.Lock()
	if r.state == Running {
		r.mu.Unlock()
		return ErrBusy
	}
	r.board = b
	r.mu.Unlock()

	r.pins.Reset(b)
	log.Info(log.CatHWSim, "board selected", "board", b.ID, "pins", len(b.Pins))
	r.publish()
	return nil
}

// SetInput drives an input pin from outside the program, as a button or
// jumper would.
func (r *Runtime) SetInput(pin string, level Level) bool {
	_, ok := r.pins.update(pin, func(p *Pin) { p.Value = level })
	if ok {
		r.publish()
	}
	return ok
}

// Run executes prog: setup() once, then loop() until Stop, the iteration
// limit, a loop error or ctx cancellation. It blocks until the run ends.
// A loop error is logged and returned; stopping is not an error.
func (r *Runtime) Run(ctx context.Context, prog transpile.Program) error {
	if !prog.EntryPoints.Setup && !prog.EntryPoints.Loop {
		r.sink.Errorf("%v", ErrNoEntryPoint)
		return ErrNoEntryPoint
	}

	r.mu.Lock()
	if r.state == Running {
		r.mu.Unlock()
		return ErrBusy
	}
	hard, hardCancel := context.WithCancel(ctx)
	soft, softCancel := context.WithCancel(hard)
	r.state = Running
	r.soft, r.hard = softCancel, hardCancel
	r.done = make(chan struct{})
	r.iter = 0
	r.start = r.clock.Now()
	r.virtual = 0
	done := r.done
	board := r.board
	r.mu.Unlock()

	r.runCtx = soft

	defer func() {
		r.mu.Lock()
		r.state = Idle
		r.soft, r.hard = nil, nil
		r.mu.Unlock()
		softCancel()
		hardCancel()
		close(done)
		r.publish()
	}()

	r.publish()
	r.sink.Infof("Running on %s", board.Name)
	log.Info(log.CatHWSim, "run started", "board", board.ID, "bytes", len(prog.Source))

	in := r.newInterp(board)
	if err := in.Exec(hard, prog.Source); err != nil {
		return r.fail(hard, "load", err)
	}
	if prog.EntryPoints.Setup {
		if _, err := in.Call(hard, "setup"); err != nil {
			return r.fail(hard, "setup()", err)
		}
	}
	if !prog.EntryPoints.Loop {
		r.sink.Infof("setup() finished, no loop() defined")
		return nil
	}

	for {
		if soft.Err() != nil {
			break
		}
		if r.opts.MaxIterations > 0 && r.Iterations() >= r.opts.MaxIterations {
			r.sink.Infof("Iteration limit %d reached", r.opts.MaxIterations)
			break
		}
		if _, err := in.Call(hard, "loop"); err != nil {
			return r.fail(hard, "loop()", err)
		}
		r.mu.Lock()
		r.iter++
		r.mu.Unlock()
	}
	r.sink.Infof("Simulation stopped after %d iterations", r.Iterations())
	return nil
}

// fail logs a run error. Errors caused by cancelling the run are a stop,
// not a failure.
func (r *Runtime) fail(hard context.Context, where string, err error) error {
	if hard.Err() != nil && errors.Is(err, hard.Err()) {
		r.sink.Warnf("Simulation aborted in %s", where)
		return nil
	}
	r.sink.Errorf("%s: %v", where, err)
	return fmt.Errorf("%s: %w", where, err)
}

// Stop asks the run to end after the in-flight loop() returns. A pending
// delay returns early.
func (r *Runtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.soft != nil {
		r.soft()
	}
}

// Shutdown stops the run and waits for it to exit. When ctx ends first the
// interpreter is aborted mid-statement and Shutdown waits for that.
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
	log.Warn(log.CatHWSim, "loop did not stop in time, aborting")
	hard()
	<-done
	return ctx.Err()
}

func (r *Runtime) publish() {
	r.mu.Lock()
	snap := Snapshot{Board: r.board.ID, State: r.state, Iteration: r.iter, Millis: r.elapsedLocked().Milliseconds()}
	r.mu.Unlock()
	snap.Pins = r.pins.Snapshot()
	r.events.Publish(pubsub.SnapshotEvent, snap)
}

// elapsed is the simulated time since Run started.
func (r *Runtime) elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedLocked()
}

func (r *Runtime) elapsedLocked() time.Duration {
	if r.opts.TimeScale == 0 {
		return r.virtual
	}
	if r.start.IsZero() {
		return 0
	}
	return time.Duration(float64(r.clock.Since(r.start)) * r.opts.TimeScale)
}

// sleep waits d of simulated time, returning early when the run is stopped.
func (r *Runtime) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if r.opts.TimeScale == 0 {
		r.mu.Lock()
		r.virtual += d
		r.mu.Unlock()
		return
	}
	t := r.clock.Timer(time.Duration(float64(d) / r.opts.TimeScale))
	defer t.Stop()
	select {
	case <-t.C:
	case <-r.runCtx.Done():
	}
}
