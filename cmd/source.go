package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/canvas/internal/app"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/workspace"
)

type source struct {
	path string
	text string
}

// readSource reads the file named by args[0]. "-" reads stdin; no argument
// opens an empty buffer.
func readSource(cmd *cobra.Command, args []string) (source, error) {
	if len(args) == 0 {
		return source{}, nil
	}
	if args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return source{}, fmt.Errorf("reading stdin: %w", err)
		}
		return source{text: string(data)}, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return source{}, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return source{path: args[0], text: string(data)}, nil
}

// declaredMode is the --mode flag, falling back to the file extension. Nil
// leaves the mode to content inference.
func declaredMode(flag, path string) (*workspace.Mode, error) {
	if flag != "" {
		m, err := workspace.ParseMode(flag)
		if err != nil {
			return nil, err
		}
		return &m, nil
	}
	if m, ok := app.ModeForPath(path); ok {
		return &m, nil
	}
	return nil, nil
}

// resolveMode is the mode src would open in.
func resolveMode(flag string, src source) (workspace.Mode, error) {
	declared, err := declaredMode(flag, src.path)
	if err != nil {
		return 0, err
	}
	if declared != nil {
		return *declared, nil
	}
	return workspace.InferMode(src.text), nil
}

// printLog writes every line published on b to w until b closes. The
// returned channel closes once the last line is written.
func printLog(b *runlog.Broker, w io.Writer) <-chan struct{} {
	lines := b.Subscribe(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range lines {
			_, _ = fmt.Fprintln(w, ev.Payload.String())
		}
	}()
	return done
}
