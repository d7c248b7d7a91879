// Package workspace holds the content buffer and the mode controller that
// moves it between surfaces, decomposes it into instances and hands it to
// the runtimes.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/canvas/internal/decompose"
	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/tracing"
	"github.com/zjrosen/canvas/internal/transpile"
)

const (
	DefaultSettleDelay = 50 * time.Millisecond
	DefaultStopGrace   = 2 * time.Second
)

// Config injects everything the controller depends on.
type Config struct {
	// Registry provides surface factories. A nil or unresolved registry is
	// resolved empty, so every mode shows no content.
	Registry *Registry
	// SettleDelay is the wait between installing a surface and restoring
	// the buffer into it. Zero restores immediately.
	SettleDelay time.Duration
	// StopGrace bounds how long a switch waits for a runtime to stop before
	// aborting it.
	StopGrace time.Duration
	Log       *runlog.Broker
	Clock     clock.Clock
	Hosts     map[Mode]RuntimeHost
	Tracer    trace.Tracer
	Initial   Mode
}

// Controller owns the buffer and the active surface. Its methods are safe
// to call from the UI goroutine while a runtime runs on its own.
type Controller struct {
	id   string
	cfg  Config
	sink *runlog.Sink

	mu        sync.Mutex
	buf       Buffer
	mode      Mode
	surface   Surface
	pending   bool
	instances []decompose.Instance
	selected  int
	run       *activeRun
}

// New builds a controller with the initial mode's surface installed.
func New(cfg Config) *Controller {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if !cfg.Registry.Resolved() {
		_ = cfg.Registry.Resolve()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Log == nil {
		cfg.Log = runlog.NewBroker()
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = DefaultStopGrace
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracing.Noop()
	}
	c := &Controller{
		id:       uuid.NewString(),
		cfg:      cfg,
		sink:     runlog.NewSink(cfg.Log, "workspace", log.CatMode, cfg.Clock),
		mode:     cfg.Initial,
		selected: -1,
	}
	c.install(cfg.Initial)
	return c
}

func (c *Controller) ID() string { return c.id }

// Log is the broker carrying user-visible lines from the workspace and its
// runtimes.
func (c *Controller) Log() *runlog.Broker { return c.cfg.Log }

// SettleDelay is how long callers should wait before RestoreContent after a
// switch.
func (c *Controller) SettleDelay() time.Duration { return c.cfg.SettleDelay }

// Buffer returns a copy of the buffer.
func (c *Controller) Buffer() Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf
}

// Active is the current mode.
func (c *Controller) Active() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Surface is the active surface, possibly nil.
func (c *Controller) Surface() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// PendingRestore reports whether a switch is waiting for RestoreContent.
func (c *Controller) PendingRestore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Host returns the runtime host for m, if it has one.
func (c *Controller) Host(m Mode) (RuntimeHost, bool) {
	h, ok := c.cfg.Hosts[m]
	return h, ok
}

// SetLanguage records the buffer's language for export naming.
func (c *Controller) SetLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Language = lang
}

// LoadContent replaces the buffer. With no declared mode one is inferred;
// a different mode is switched to without saving the old surface.
func (c *Controller) LoadContent(text string, declared *Mode) error {
	m := InferMode(text)
	if declared != nil {
		m = *declared
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRunLocked()
	c.buf = Buffer{Text: text, Original: text, Language: DefaultLanguage(m)}
	c.instances, c.selected = nil, -1
	log.Info(log.CatMode, "content loaded", "mode", m, "bytes", len(text))

	if m == c.mode {
		c.restoreLocked()
		return nil
	}
	c.teardownLocked()
	c.mode = m
	c.installLocked(m)
	return nil
}

// SwitchMode saves the active surface, stops its runtime, tears it down and
// installs m's surface. Switching to the active mode only saves.
func (c *Controller) SwitchMode(m Mode) error {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.mode
	_, span := tracing.Start(context.Background(), c.cfg.Tracer, tracing.SpanSwitchMode,
		attribute.String(tracing.AttrWorkspaceID, c.id),
		attribute.String(tracing.AttrModeFrom, from.String()),
		attribute.String(tracing.AttrModeTo, m.String()))
	defer tracing.End(span, nil)

	c.saveLocked()
	if m == from {
		return nil
	}
	c.stopRunLocked()
	c.teardownLocked()
	c.instances, c.selected = nil, -1
	c.mode = m
	c.installLocked(m)
	log.Info(log.CatMode, "switched mode", "from", from, "to", m)
	return nil
}

// RestoreContent pushes the buffer into the active surface and ends any
// pending restore.
func (c *Controller) RestoreContent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restoreLocked()
}

// Save copies the active surface's text into the buffer.
func (c *Controller) Save() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveLocked()
}

func (c *Controller) install(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.installLocked(m)
}

func (c *Controller) installLocked(m Mode) {
	c.surface = nil
	if f := c.cfg.Registry.Factory(m); f != nil {
		c.surface = f(m)
	}
	if c.cfg.SettleDelay <= 0 {
		c.restoreLocked()
		return
	}
	c.pending = true
}

func (c *Controller) teardownLocked() {
	if td, ok := c.surface.(Teardowner); ok {
		td.Teardown()
	}
	c.surface = nil
	c.pending = false
}

func (c *Controller) restoreLocked() {
	c.pending = false
	c.pushLocked(c.buf)
}

// pushLocked shows buf on the active surface.
func (c *Controller) pushLocked(buf Buffer) {
	if s, ok := c.surface.(TextSetter); ok {
		s.SetText(buf.Text)
	}
	if r, ok := c.surface.(Renderer); ok {
		r.Render(buf)
	}
}

// saveLocked reads the surface's text into the buffer. A surface still
// waiting for its restore has nothing of the buffer yet and is skipped.
// With an instance selected the text replaces that instance's span.
func (c *Controller) saveLocked() {
	if c.pending {
		return
	}
	a, ok := c.surface.(TextAccessor)
	if !ok {
		return
	}
	text := a.Text()
	if c.selected < 0 {
		c.buf.Text = text
		return
	}
	inst := c.instances[c.selected]
	if inst.Content == text {
		return
	}
	c.buf.Text = decompose.Splice(c.buf.Text, inst, text)
	c.shiftLocked(c.selected, text)
}

// shiftLocked updates instance i to hold text and moves the spans after it.
// Instances enclosing i grow with it; instances nested inside i are clipped
// to its new extent. Every span keeps matching its content.
func (c *Controller) shiftLocked(i int, text string) {
	inst := &c.instances[i]
	if inst.Span == nil {
		inst.Content = text
		return
	}
	start, end := inst.Span[0], inst.Span[1]
	delta := len(text) - (end - start)
	newEnd := start + len(text)
	inst.Content = text
	inst.Span = &[2]int{start, newEnd}
	for j := range c.instances {
		other := &c.instances[j]
		if j == i || other.Span == nil {
			continue
		}
		lo, hi := other.Span[0], other.Span[1]
		switch {
		case lo >= end:
			lo, hi = lo+delta, hi+delta
		case lo <= start && hi >= end:
			hi += delta
		case lo >= start && hi <= end:
			lo, hi = min(lo, newEnd), min(hi, newEnd)
		default:
			continue
		}
		other.Span = &[2]int{lo, hi}
		other.Content = c.buf.Text[lo:hi]
	}
}

// RequestDecomposition saves, splits the buffer by the active mode's rules
// and clears any selection.
func (c *Controller) RequestDecomposition() []decompose.Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveLocked()

	_, span := tracing.Start(context.Background(), c.cfg.Tracer, tracing.SpanDecompose)
	c.instances = decompose.Decompose(c.buf.Text, KindFor(c.mode))
	span.SetAttributes(attribute.Int(tracing.AttrInstances, len(c.instances)))
	tracing.End(span, nil)

	if c.selected >= 0 {
		c.selected = -1
		c.pushLocked(c.buf)
	}
	return append([]decompose.Instance(nil), c.instances...)
}

// SelectInstance re-seeds the surface with instance i of the last
// decomposition, leaving the buffer alone. -1 returns to the full buffer.
func (c *Controller) SelectInstance(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < -1 || i >= len(c.instances) {
		return fmt.Errorf("%w: %d", ErrNoInstance, i)
	}
	c.saveLocked()
	c.pending = false
	c.selected = i
	if i < 0 {
		c.pushLocked(c.buf)
		return nil
	}
	inst := c.instances[i]
	c.pushLocked(Buffer{Text: inst.Content, Original: inst.Content, Language: c.buf.Language})
	return nil
}

// Selected returns the selected instance, if any.
func (c *Controller) Selected() (decompose.Instance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected < 0 {
		return decompose.Instance{}, false
	}
	return c.instances[c.selected], true
}

// Run transpiles the buffer for the active mode and starts its runtime on a
// new goroutine. Modes without a runtime log a line and return nil.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	c.saveLocked()
	m := c.mode
	host, ok := c.cfg.Hosts[m]
	if !ok || host.Runtime == nil {
		c.mu.Unlock()
		c.sink.Infof("Nothing to run in %s mode", m.Title())
		return nil
	}
	if c.run != nil && !c.run.finished() {
		c.mu.Unlock()
		return ErrBusy
	}
	text := c.buf.Text
	c.mu.Unlock()

	runID := uuid.NewString()
	ctx, span := tracing.Start(ctx, c.cfg.Tracer, tracing.SpanRun,
		attribute.String(tracing.AttrWorkspaceID, c.id),
		attribute.String(tracing.AttrRunID, runID),
		attribute.String(tracing.AttrModeTo, m.String()))

	prog, err := c.transpile(ctx, host.Dialect, text)
	if err != nil {
		c.sink.Errorf("Transpile failed: %v", err)
		tracing.End(span, err)
		return err
	}
	if missing := entryMissing(host.Dialect, prog); missing != "" {
		c.sink.Errorf("Nothing to run: no %s defined", missing)
		tracing.End(span, ErrNoEntryPoint)
		return ErrNoEntryPoint
	}

	runCtx, cancel := context.WithCancel(ctx)
	ar := &activeRun{id: runID, mode: m, rt: host.Runtime, cancel: cancel, done: make(chan struct{})}
	c.mu.Lock()
	if c.run != nil && !c.run.finished() {
		c.mu.Unlock()
		cancel()
		tracing.End(span, ErrBusy)
		return ErrBusy
	}
	c.run = ar
	c.mu.Unlock()

	log.Info(log.CatMode, "run started", "mode", m, "run", runID)
	go func() {
		defer close(ar.done)
		defer cancel()
		err := host.Runtime.Run(runCtx, prog)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		ar.err = err
		tracing.End(span, err)
		log.Info(log.CatMode, "run finished", "run", runID, "error", err)
	}()
	return nil
}

func (c *Controller) transpile(ctx context.Context, d transpile.Dialect, text string) (transpile.Program, error) {
	_, span := tracing.Start(ctx, c.cfg.Tracer, tracing.SpanTranspile, attribute.String(tracing.AttrDialect, string(d)))
	tr, err := transpile.For(d)
	if err != nil {
		tracing.End(span, err)
		return transpile.Program{}, err
	}
	prog, err := tr.Transpile(text)
	if err != nil {
		tracing.End(span, err)
		return transpile.Program{}, err
	}
	span.SetAttributes(attribute.Int(tracing.AttrWarnings, len(prog.Warnings)))
	for _, w := range prog.Warnings {
		c.sink.Warnf("Transpile: %s", w)
	}
	tracing.End(span, nil)
	return prog, nil
}

// Transpile runs the active mode's transpiler over the buffer without
// starting a runtime.
func (c *Controller) Transpile(ctx context.Context) (transpile.Program, error) {
	c.mu.Lock()
	c.saveLocked()
	host, ok := c.cfg.Hosts[c.mode]
	text := c.buf.Text
	c.mu.Unlock()
	if !ok {
		return transpile.Program{}, fmt.Errorf("%s mode has no transpiler", c.Active().Title())
	}
	return c.transpile(ctx, host.Dialect, text)
}

// Running reports whether a run started by this controller is live.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run != nil && !c.run.finished()
}

// Wait blocks until the current run ends and returns its error.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	ar := c.run
	c.mu.Unlock()
	if ar == nil {
		return nil
	}
	select {
	case <-ar.done:
		return ar.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop asks the running runtime to stop cooperatively.
func (c *Controller) Stop() {
	c.mu.Lock()
	ar := c.run
	c.mu.Unlock()
	if ar != nil && !ar.finished() {
		ar.rt.Stop()
		c.sink.Infof("Stop requested")
	}
}

// stopRunLocked stops the run and waits up to the grace period before the
// runtime aborts it. The run goroutine never takes c.mu.
func (c *Controller) stopRunLocked() {
	ar := c.run
	c.run = nil
	if ar == nil || ar.finished() {
		return
	}
	ctx, cancel := c.cfg.Clock.WithTimeout(context.Background(), c.cfg.StopGrace)
	defer cancel()
	if err := ar.rt.Shutdown(ctx); err != nil {
		log.Warn(log.CatMode, "runtime aborted after grace period", "run", ar.id, "error", err)
	}
	ar.cancel()
	<-ar.done
}

// Close stops any run and tears the surface down.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRunLocked()
	c.teardownLocked()
}

// Export saves and writes the buffer into dir, named by its language.
func (c *Controller) Export(dir string) (string, error) {
	c.mu.Lock()
	c.saveLocked()
	buf := c.buf
	c.mu.Unlock()

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, "canvas-"+c.id[:8]+Extension(buf.Language))
	if err := os.WriteFile(path, []byte(buf.Text), 0o600); err != nil {
		c.sink.Errorf("Export failed: %v", err)
		return "", fmt.Errorf("write export: %w", err)
	}
	c.sink.Successf("Exported to %s", path)
	return path, nil
}
