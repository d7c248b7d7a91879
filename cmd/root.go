package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/canvas/internal/app"
	"github.com/zjrosen/canvas/internal/config"
	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/tracing"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var version = "dev"

// options holds the persistent flags and the config they resolve to.
type options struct {
	cfgFile  string
	debugLog string
	mode     string

	cfg        config.Config
	configPath string
	closeLog   func()
}

// newRootCmd builds the command tree. Each call has its own flags and
// config so tests can run commands side by side.
func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "canvas [file]",
		Short: "A terminal workspace for code, sketches and documents",
		Long: `A terminal workspace that shows one buffer through interchangeable modes:
code editing, remote execution, a microcontroller simulator, a fantasy
console, markdown, notebooks, JSON, diagrams, tables and diffs.

The mode is inferred from the file unless --mode names one.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if o.closeLog != nil {
				o.closeLog()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, o, args)
		},
	}

	root.PersistentFlags().StringVarP(&o.cfgFile, "config", "c", "",
		"config file (default: .canvas/config.yaml, then ~/.config/canvas/config.yaml)")
	root.PersistentFlags().StringVar(&o.debugLog, "debug", "",
		"write developer logs to this file")
	root.PersistentFlags().StringVarP(&o.mode, "mode", "m", "",
		"mode to open the file in (code, execute, ide, console, markdown, ...)")

	root.AddCommand(
		newTranspileCmd(o),
		newDecomposeCmd(o),
		newRunCmd(o),
		newFlashCmd(o),
		newExecCmd(o),
	)
	return root
}

func (o *options) load() error {
	if o.debugLog != "" {
		closeLog, err := log.Init(o.debugLog)
		if err != nil {
			return err
		}
		o.closeLog = closeLog
	}
	cfg, used, err := config.Load(viper.New(), o.cfgFile)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg, o.configPath = cfg, used
	return nil
}

func runApp(cmd *cobra.Command, o *options, args []string) error {
	src, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	declared, err := declaredMode(o.mode, src.path)
	if err != nil {
		return err
	}

	provider, err := tracing.NewProvider(o.cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	zone.NewGlobal()
	model, err := app.New(app.Options{
		Config:  o.cfg,
		Path:    src.path,
		Content: src.text,
		Mode:    declared,
		Tracer:  provider.Tracer(),
		Debug:   o.debugLog != "",
	})
	if err != nil {
		return err
	}
	log.Info(log.CatConfig, "starting", "config", o.configPath, "file", src.path)

	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()

	// Clean up runtimes and watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
