// Package config provides configuration types, defaults and persistence
// for canvas.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/tracing"
)

// Config holds all configuration options for canvas.
type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Embedded  EmbeddedConfig  `mapstructure:"embedded"`
	Console   ConsoleConfig   `mapstructure:"console"`
	Services  ServicesConfig  `mapstructure:"services"`
	UI        UIConfig        `mapstructure:"ui"`
	Tracing   tracing.Config  `mapstructure:"tracing"`
}

// WorkspaceConfig holds mode controller settings.
type WorkspaceConfig struct {
	DefaultMode string        `mapstructure:"default_mode"` // mode used when content declares none and inference is off
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	StopGrace   time.Duration `mapstructure:"stop_grace"`
	ExportDir   string        `mapstructure:"export_dir"`
	AutoReload  bool          `mapstructure:"auto_reload"` // reload the opened file when it changes on disk
}

// EmbeddedConfig holds hardware simulator settings.
type EmbeddedConfig struct {
	Board         string  `mapstructure:"board"`
	TimeScale     float64 `mapstructure:"time_scale"` // 0 runs on virtual time
	MaxIterations int     `mapstructure:"max_iterations"`
	StepBudget    int     `mapstructure:"step_budget"`
	Port          string  `mapstructure:"port"`
}

// ConsoleConfig holds fantasy console settings.
type ConsoleConfig struct {
	FPS           int           `mapstructure:"fps"`
	PixelScale    int           `mapstructure:"pixel_scale"`
	FrameBudget   int           `mapstructure:"frame_budget"` // interpreter steps per frame
	FrameDeadline time.Duration `mapstructure:"frame_deadline"`
	HoldFrames    int           `mapstructure:"hold_frames"` // frames a tapped key stays down
}

// ServicesConfig holds the build/flash and execution service endpoints.
type ServicesConfig struct {
	BuildURL    string        `mapstructure:"build_url"`
	ExecURL     string        `mapstructure:"exec_url"`
	FlashPath   string        `mapstructure:"flash_path"`
	ExecutePath string        `mapstructure:"execute_path"`
	StreamPath  string        `mapstructure:"stream_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UseDocker   bool          `mapstructure:"use_docker"`
	Language    string        `mapstructure:"language"` // default language for Execute and Terminal
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	MarkdownStyle  string `mapstructure:"markdown_style"`  // "dark" (default) or "light"
	HighlightStyle string `mapstructure:"highlight_style"` // chroma style name
	ShowLog        bool   `mapstructure:"show_log"`
}

// DefaultTracesFilePath returns ~/.config/canvas/traces/traces.jsonl, or
// "" when the home directory is unknown.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "canvas", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		Workspace: WorkspaceConfig{
			DefaultMode: "code",
			SettleDelay: 50 * time.Millisecond,
			StopGrace:   2 * time.Second,
			ExportDir:   ".",
			AutoReload:  true,
		},
		Embedded: EmbeddedConfig{
			Board:      "esp32-devkit",
			TimeScale:  1,
			StepBudget: 1_000_000,
		},
		Console: ConsoleConfig{
			FPS:           60,
			PixelScale:    1,
			FrameBudget:   200_000,
			FrameDeadline: 250 * time.Millisecond,
			HoldFrames:    6,
		},
		Services: ServicesConfig{
			FlashPath:   "/flash",
			ExecutePath: "/execute",
			StreamPath:  "/execute/stream",
			Timeout:     60 * time.Second,
			Language:    "python",
		},
		UI: UIConfig{
			MarkdownStyle:  "dark",
			HighlightStyle: "monokai",
			ShowLog:        true,
		},
		Tracing: tc,
	}
}

var validExporters = map[string]bool{"": true, "none": true, "file": true, "stdout": true, "otlp": true}

// Validate checks values the runtimes cannot recover from.
func Validate(c Config) error {
	var errs []string
	if c.Embedded.TimeScale < 0 {
		errs = append(errs, "embedded.time_scale must be >= 0")
	}
	if c.Embedded.MaxIterations < 0 {
		errs = append(errs, "embedded.max_iterations must be >= 0")
	}
	if c.Console.FPS < 1 || c.Console.FPS > 240 {
		errs = append(errs, fmt.Sprintf("console.fps must be between 1 and 240, got %d", c.Console.FPS))
	}
	if c.Console.PixelScale < 1 {
		errs = append(errs, "console.pixel_scale must be >= 1")
	}
	if c.Services.Timeout < 0 {
		errs = append(errs, "services.timeout must be >= 0")
	}
	if !validExporters[c.Tracing.Exporter] {
		errs = append(errs, fmt.Sprintf("tracing.exporter %q is not one of none, file, stdout, otlp", c.Tracing.Exporter))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, "tracing.sample_rate must be between 0 and 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DefaultConfigTemplate returns the default config as YAML with comments.
func DefaultConfigTemplate() string {
	return `# Canvas Configuration

workspace:
  default_mode: code      # code, execute, ide, console, markdown, notebook, terminal, preview, json, diagram, table, diff
  settle_delay: 50ms      # wait before a new surface receives the buffer
  stop_grace: 2s          # how long a switch waits for a running program to stop
  export_dir: .
  auto_reload: true       # reload the opened file when it changes on disk

# Embedded device simulator (IDE mode)
embedded:
  board: esp32-devkit     # esp32-devkit, uno, nano
  time_scale: 1           # 1 = real time, 0 = virtual time (delays do not sleep)
  # max_iterations: 0     # stop after N loop() calls, 0 = unlimited
  # port: /dev/ttyUSB0    # serial port passed to the build service on flash

# Fantasy console (Console mode)
console:
  fps: 60
  pixel_scale: 1
  frame_budget: 200000    # interpreter steps allowed per frame
  frame_deadline: 250ms
  hold_frames: 6          # frames a tapped key stays pressed

# External services
services:
  # build_url: http://localhost:8080
  # exec_url: http://localhost:8081
  flash_path: /flash
  execute_path: /execute
  stream_path: /execute/stream
  timeout: 60s
  use_docker: false
  language: python

ui:
  markdown_style: dark    # dark or light
  highlight_style: monokai
  show_log: true

# tracing:
#   enabled: false
#   exporter: file        # none, file, stdout, otlp
#   file_path: ~/.config/canvas/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at configPath with the default
// template, creating the parent directory.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
