package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjrosen/canvas/internal/log"
)

// LocalPath is the per-project config file checked first.
const LocalPath = ".canvas/config.yaml"

// UserPath returns ~/.config/canvas/config.yaml, or "" without a home.
func UserPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "canvas", "config.yaml")
}

// SetDefaults registers every default on v so env overrides and partial
// files resolve against them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("workspace.default_mode", d.Workspace.DefaultMode)
	v.SetDefault("workspace.settle_delay", d.Workspace.SettleDelay)
	v.SetDefault("workspace.stop_grace", d.Workspace.StopGrace)
	v.SetDefault("workspace.export_dir", d.Workspace.ExportDir)
	v.SetDefault("workspace.auto_reload", d.Workspace.AutoReload)

	v.SetDefault("embedded.board", d.Embedded.Board)
	v.SetDefault("embedded.time_scale", d.Embedded.TimeScale)
	v.SetDefault("embedded.max_iterations", d.Embedded.MaxIterations)
	v.SetDefault("embedded.step_budget", d.Embedded.StepBudget)
	v.SetDefault("embedded.port", d.Embedded.Port)

	v.SetDefault("console.fps", d.Console.FPS)
	v.SetDefault("console.pixel_scale", d.Console.PixelScale)
	v.SetDefault("console.frame_budget", d.Console.FrameBudget)
	v.SetDefault("console.frame_deadline", d.Console.FrameDeadline)
	v.SetDefault("console.hold_frames", d.Console.HoldFrames)

	v.SetDefault("services.build_url", d.Services.BuildURL)
	v.SetDefault("services.exec_url", d.Services.ExecURL)
	v.SetDefault("services.flash_path", d.Services.FlashPath)
	v.SetDefault("services.execute_path", d.Services.ExecutePath)
	v.SetDefault("services.stream_path", d.Services.StreamPath)
	v.SetDefault("services.timeout", d.Services.Timeout)
	v.SetDefault("services.use_docker", d.Services.UseDocker)
	v.SetDefault("services.language", d.Services.Language)

	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("ui.highlight_style", d.UI.HighlightStyle)
	v.SetDefault("ui.show_log", d.UI.ShowLog)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Load reads configuration into a Config. An explicit path is used as is;
// otherwise LocalPath, then UserPath. When no file exists a default one is
// written to LocalPath. CANVAS_* environment variables override file
// values (CANVAS_EMBEDDED_BOARD sets embedded.board). It returns the file
// used, "" when running on defaults alone.
func Load(v *viper.Viper, path string) (Config, string, error) {
	SetDefaults(v)
	v.SetEnvPrefix("canvas")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path != "":
		v.SetConfigFile(path)
	case fileExists(LocalPath):
		v.SetConfigFile(LocalPath)
	default:
		if user := UserPath(); user != "" && fileExists(user) {
			v.SetConfigFile(user)
		} else {
			v.SetConfigFile(LocalPath)
			if err := WriteDefaultConfig(LocalPath); err != nil {
				log.Warn(log.CatConfig, "continuing on defaults", "error", err)
			}
		}
	}
	v.SetConfigType("yaml")

	used := v.ConfigFileUsed()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || (!errors.As(err, &notFound) && !os.IsNotExist(err)) {
			return Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		used = ""
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, used, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, used, err
	}
	log.Debug(log.CatConfig, "config loaded", "path", used)
	return cfg, used, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
