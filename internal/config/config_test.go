package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults_Valid(t *testing.T) {
	d := Defaults()
	require.NoError(t, Validate(d))
	require.Equal(t, "esp32-devkit", d.Embedded.Board)
	require.Equal(t, 60, d.Console.FPS)
	require.Equal(t, 50*time.Millisecond, d.Workspace.SettleDelay)
	require.Equal(t, "/execute/stream", d.Services.StreamPath)
	require.False(t, d.Tracing.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative time scale", func(c *Config) { c.Embedded.TimeScale = -1 }, "embedded.time_scale must be >= 0"},
		{"fps out of range", func(c *Config) { c.Console.FPS = 0 }, "console.fps must be between 1 and 240, got 0"},
		{"pixel scale", func(c *Config) { c.Console.PixelScale = 0 }, "console.pixel_scale must be >= 1"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, `tracing.exporter "zipkin"`},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }, "tracing.sample_rate must be between 0 and 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(&c)
			require.ErrorContains(t, Validate(c), tt.want)
		})
	}
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	cfg, used, err := Load(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, path, used)

	d := Defaults()
	require.Equal(t, d.Workspace, cfg.Workspace)
	require.Equal(t, d.Embedded, cfg.Embedded)
	require.Equal(t, d.Console, cfg.Console)
	require.Equal(t, d.Services, cfg.Services)
	require.Equal(t, d.UI, cfg.UI)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedded:\n  board: uno\n  time_scale: 0\nconsole:\n  fps: 30\n"), 0o600))
	t.Setenv("CANVAS_SERVICES_BUILD_URL", "http://builder:9000")
	t.Setenv("CANVAS_CONSOLE_FPS", "24")

	cfg, _, err := Load(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, "uno", cfg.Embedded.Board)
	require.Equal(t, 0.0, cfg.Embedded.TimeScale)
	require.Equal(t, 24, cfg.Console.FPS)
	require.Equal(t, "http://builder:9000", cfg.Services.BuildURL)
	require.Equal(t, 60*time.Second, cfg.Services.Timeout)
}

func TestLoad_WritesLocalDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, used, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, LocalPath, used)
	require.FileExists(t, LocalPath)
	require.Equal(t, "code", cfg.Workspace.DefaultMode)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "reading config")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("console:\n  fps: 1000\n"), 0o600))
	_, _, err := Load(viper.New(), path)
	require.ErrorContains(t, err, "console.fps")
}

func TestSaveValue_PreservesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SaveValue(path, "embedded.board", "nano"))
	require.NoError(t, SaveValue(path, "workspace.default_mode", "ide"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Canvas Configuration")
	require.Contains(t, string(data), "# esp32-devkit, uno, nano")

	cfg, _, err := Load(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, "nano", cfg.Embedded.Board)
	require.Equal(t, "ide", cfg.Workspace.DefaultMode)
	require.Equal(t, 60, cfg.Console.FPS)
}

func TestSaveValue_CreatesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveValue(path, "services.exec_url", "http://exec"))
	require.NoError(t, SaveValue(path, "services.use_docker", true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Equal(t, map[string]any{"exec_url": "http://exec", "use_docker": true}, got["services"])

	require.ErrorContains(t, SaveValue(path, "services.exec_url.host", "x"), "services.exec_url is not a section")
}
