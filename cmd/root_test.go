package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/services"
	"github.com/zjrosen/canvas/internal/transpile"
	"github.com/zjrosen/canvas/internal/workspace"
)

const blink = `int led = 13;

void setup() {
  pinMode(led, OUTPUT);
}

void loop() {
  digitalWrite(led, HIGH);
  delay(1);
}
`

// execute runs the command tree with a config file holding yaml.
func execute(t *testing.T, yaml string, args ...string) (string, string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o600))

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTranspile_Sketch(t *testing.T) {
	out, _, err := execute(t, "", "transpile", writeFile(t, "blink.ino", blink))
	require.NoError(t, err)
	require.True(t, transpile.IsTranspiled(out, transpile.DialectEmbedded), out)
}

func TestTranspile_JSON(t *testing.T) {
	out, _, err := execute(t, "", "transpile", "--json", writeFile(t, "blink.ino", blink))
	require.NoError(t, err)

	var prog programJSON
	require.NoError(t, json.Unmarshal([]byte(out), &prog))
	require.Equal(t, transpile.DialectEmbedded, prog.Dialect)
	require.True(t, prog.EntryPoints.Setup)
	require.True(t, prog.EntryPoints.Loop)
}

func TestTranspile_ModeWithoutDialect(t *testing.T) {
	_, _, err := execute(t, "", "transpile", writeFile(t, "notes.md", "# Notes\n"))
	require.EqualError(t, err, "Markdown mode has no transpiler")

	_, _, err = execute(t, "", "transpile", "--mode", "nope", writeFile(t, "notes.md", "# Notes\n"))
	require.ErrorIs(t, err, workspace.ErrUnknownMode)
}

func TestDecompose_Table(t *testing.T) {
	out, _, err := execute(t, "", "decompose", writeFile(t, "blink.ino", blink))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.True(t, strings.HasPrefix(lines[0], "NAME"))
	require.Contains(t, out, "setup")
	require.Contains(t, out, "loop")
	require.Contains(t, out, "function")
}

func TestDecompose_JSON(t *testing.T) {
	doc := "# One\nfirst\n# Two\nsecond\n"
	out, _, err := execute(t, "", "decompose", "--json", writeFile(t, "doc.md", doc))
	require.NoError(t, err)

	var insts []instanceJSON
	require.NoError(t, json.Unmarshal([]byte(out), &insts))
	var names []string
	for _, inst := range insts {
		names = append(names, inst.Name)
	}
	require.Contains(t, names, "One")
	require.Contains(t, names, "Two")
}

func TestRun_SketchStopsAtIterationLimit(t *testing.T) {
	out, _, err := execute(t, "embedded:\n  time_scale: 0\n",
		"run", "--iterations", "2", "--board", "uno", writeFile(t, "blink.ino", blink))
	require.NoError(t, err)
	require.Contains(t, out, "Iteration limit 2 reached")
}

func TestRun_ModeWithoutRuntime(t *testing.T) {
	_, _, err := execute(t, "", "run", writeFile(t, "notes.md", "# Notes\n"))
	require.EqualError(t, err, "Markdown mode has no runtime")
}

func TestFlash_NeedsService(t *testing.T) {
	_, _, err := execute(t, "", "flash", writeFile(t, "blink.ino", blink))
	require.ErrorContains(t, err, "no build service configured")
}

func TestFlash_SendsSketch(t *testing.T) {
	var got services.FlashRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/flash", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(services.FlashResponse{Stdout: "uploaded"})
	}))
	defer srv.Close()

	yaml := fmt.Sprintf("services:\n  build_url: %s\n", srv.URL)
	out, _, err := execute(t, yaml, "flash", "--board", "uno", "--port", "/dev/ttyACM0", writeFile(t, "blink.ino", blink))
	require.NoError(t, err)
	require.Equal(t, services.FlashRequest{Code: blink, BoardFQBN: "arduino:avr:uno", Port: "/dev/ttyACM0"}, got)
	require.Contains(t, out, "uploaded")
}

func TestExec_Buffered(t *testing.T) {
	var got services.ExecRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/execute", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(services.ExecResponse{Stdout: "hi\n", Stderr: "careful\n"})
	}))
	defer srv.Close()

	yaml := fmt.Sprintf("services:\n  exec_url: %s\n", srv.URL)
	out, errOut, err := execute(t, yaml, "exec", writeFile(t, "hi.py", "print('hi')\n"))
	require.NoError(t, err)
	require.Equal(t, "hi\n", out)
	require.Equal(t, "careful\n", errOut)
	require.Equal(t, "python", got.Language)
	require.Equal(t, "print('hi')\n", got.Code)
}

func TestExec_ExitCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(services.ExecResponse{ExitCode: 3})
	}))
	defer srv.Close()

	yaml := fmt.Sprintf("services:\n  exec_url: %s\n", srv.URL)
	_, _, err := execute(t, yaml, "exec", "--language", "bash", writeFile(t, "fail.sh", "exit 3\n"))
	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	require.Equal(t, 3, exit.Code)
}

func TestExec_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/execute/stream", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(w, "event: stdout\ndata: one\n\n")
		_, _ = fmt.Fprint(w, "event: stderr\ndata: two\n\n")
		_, _ = fmt.Fprint(w, "event: complete\ndata: {\"exitCode\": 0}\n\n")
	}))
	defer srv.Close()

	yaml := fmt.Sprintf("services:\n  exec_url: %s\n", srv.URL)
	out, errOut, err := execute(t, yaml, "exec", "--stream", writeFile(t, "x.py", "print('one')\n"))
	require.NoError(t, err)
	require.Equal(t, "one\n", out)
	require.Equal(t, "two\n", errOut)
}

func TestDeclaredMode(t *testing.T) {
	m, err := declaredMode("", "blink.ino")
	require.NoError(t, err)
	require.Equal(t, workspace.EmbeddedIDE, *m)

	m, err = declaredMode("tic80", "blink.ino")
	require.NoError(t, err)
	require.Equal(t, workspace.FantasyConsole, *m)

	m, err = declaredMode("", "main.go")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestResolveMode_InfersFromContent(t *testing.T) {
	m, err := resolveMode("", source{text: blink})
	require.NoError(t, err)
	require.Equal(t, workspace.EmbeddedIDE, m)
}
