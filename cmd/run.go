package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/canvas/internal/app"
	"github.com/zjrosen/canvas/internal/config"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/workspace"
)

func newRunCmd(o *options) *cobra.Command {
	var (
		iterations int
		timeout    time.Duration
		board      string
	)
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a sketch or cartridge without the UI",
		Long: `Transpile and run a file in its mode's runtime, printing the run log.
Sketches run in the pin simulator and cartridges in the fantasy console.
Ctrl+C stops the run.

Examples:
  canvas run blink.ino --iterations 10
  canvas run cart.lua --timeout 5s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			m, err := resolveMode(o.mode, src)
			if err != nil {
				return err
			}

			cfg := o.cfg
			if cmd.Flags().Changed("iterations") {
				cfg.Embedded.MaxIterations = iterations
			}
			if board != "" {
				cfg.Embedded.Board = board
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return runHeadless(ctx, cmd, &cfg, m, src.text)
		},
	}
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "stop a sketch after this many loop() calls")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "stop the run after this long")
	cmd.Flags().StringVarP(&board, "board", "b", "", "simulated board id")
	return cmd
}

// runHeadless drives a controller with no surfaces installed until the run
// ends or ctx is done.
func runHeadless(ctx context.Context, cmd *cobra.Command, cfg *config.Config, m workspace.Mode, text string) error {
	broker := runlog.NewBroker()
	printed := printLog(broker, cmd.OutOrStdout())

	svc, err := app.NewServices(cfg, nil, broker)
	if err != nil {
		broker.Close()
		<-printed
		return err
	}
	ctrl := workspace.New(workspace.Config{
		Log:       broker,
		Clock:     svc.Clock,
		Hosts:     app.Hosts(svc),
		StopGrace: cfg.Workspace.StopGrace,
		Initial:   m,
	})
	defer func() {
		ctrl.Close()
		broker.Close()
		<-printed
	}()

	if err := ctrl.LoadContent(text, &m); err != nil {
		return err
	}
	if _, ok := ctrl.Host(m); !ok {
		return fmt.Errorf("%s mode has no runtime", m.Title())
	}
	if err := ctrl.Run(ctx); err != nil {
		return err
	}

	err = ctrl.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		ctrl.Stop()
		return nil
	}
	return err
}
