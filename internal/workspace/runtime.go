package workspace

import (
	"context"
	"errors"

	"github.com/zjrosen/canvas/internal/transpile"
)

var (
	// ErrBusy is returned by Run while the active mode's runtime is running.
	ErrBusy = errors.New("runtime is already running")
	// ErrNoEntryPoint is returned by Run when the program defines nothing
	// the runtime can call.
	ErrNoEntryPoint = errors.New("program has no entry point")
	// ErrNoInstance is returned by SelectInstance for an index outside the
	// last decomposition.
	ErrNoInstance = errors.New("no such instance")
)

// Runtime executes transpiled programs on a goroutine it owns. Run blocks
// until the program ends.
type Runtime interface {
	Run(ctx context.Context, prog transpile.Program) error
	Stop()
	Shutdown(ctx context.Context) error
	Running() bool
}

// RuntimeHost pairs a run-capable mode with its transpiler dialect and
// runtime.
type RuntimeHost struct {
	Dialect transpile.Dialect
	Runtime Runtime
}

// entryMissing returns a description of what prog lacks for d, or "".
func entryMissing(d transpile.Dialect, prog transpile.Program) string {
	switch d {
	case transpile.DialectEmbedded:
		if !prog.EntryPoints.Setup && !prog.EntryPoints.Loop {
			return "setup() or loop()"
		}
	case transpile.DialectScript:
		if !prog.EntryPoints.Tic {
			return "TIC()"
		}
	}
	return ""
}

type activeRun struct {
	id     string
	mode   Mode
	rt     Runtime
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (a *activeRun) finished() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}
