package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/services"
	"github.com/zjrosen/canvas/internal/workspace"
)

// shell answers every command with its code echoed on stdout.
func shell(t *testing.T, got *[]services.ExecRequest) *services.ExecClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req services.ExecRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*got = append(*got, req)
		w.Header().Set("Content-Type", "text/event-stream")
		switch req.Code {
		case "false":
			fmt.Fprint(w, "event: complete\ndata: {\"exitCode\":1}\n\n")
		case "oops":
			fmt.Fprint(w, "event: stderr\ndata: oops: command not found\n\n")
			fmt.Fprint(w, "event: complete\ndata: {\"exitCode\":127}\n\n")
		default:
			payload, _ := json.Marshal(map[string]string{"data": req.Code})
			fmt.Fprintf(w, "event: stdout\ndata: %s\n\n", payload)
			fmt.Fprint(w, "event: complete\ndata: {\"exitCode\":0}\n\n")
		}
	}))
	t.Cleanup(srv.Close)
	return services.NewExecClient(srv.URL, "", "", 0, nil)
}

func typeLine(term *Terminal, s string) tea.Cmd {
	for _, r := range s {
		term.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return term.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

// settle runs cmd's messages through term until the job ends.
func settle(term *Terminal, cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(mode.ResultMsg); ok {
			out = append(out, msg)
			break
		}
		cmd = term.Update(msg)
	}
	return out
}

func TestPrompt_RunsCommand(t *testing.T) {
	var reqs []services.ExecRequest
	term := New(Options{Exec: shell(t, &reqs)})
	term.SetSize(60, 10)
	term.Focus()

	require.Empty(t, settle(term, typeLine(term, "echo hi")))
	require.Equal(t, []services.ExecRequest{{Code: "echo hi", Language: DefaultShell}}, reqs)
	require.Equal(t, []Entry{
		{Kind: Command, Text: "$ echo hi"},
		{Kind: Stdout, Text: "echo hi"},
	}, term.Entries())
	require.False(t, term.Running())
}

func TestPrompt_ExitCodes(t *testing.T) {
	var reqs []services.ExecRequest
	term := New(Options{Exec: shell(t, &reqs)})
	term.Focus()

	settle(term, typeLine(term, "false"))
	settle(term, typeLine(term, "oops"))
	require.Equal(t, []Entry{
		{Kind: Command, Text: "$ false"},
		{Kind: Notice, Text: "[exit 1]"},
		{Kind: Command, Text: "$ oops"},
		{Kind: Stderr, Text: "oops: command not found"},
		{Kind: Notice, Text: "[exit 127]"},
	}, term.Entries())
}

func TestPrompt_Builtins(t *testing.T) {
	var reqs []services.ExecRequest
	term := New(Options{Exec: shell(t, &reqs)})
	term.Focus()

	require.Nil(t, typeLine(term, "history"))
	require.Equal(t, Entry{Kind: Stdout, Text: "   1  history"}, term.Entries()[1])
	require.Nil(t, typeLine(term, "clear"))
	require.Empty(t, term.Entries())
	require.Empty(t, reqs)
}

func TestPrompt_History(t *testing.T) {
	term := New(Options{})
	term.Focus()
	typeLine(term, "history")
	typeLine(term, "clear")

	term.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, "clear", term.input.Value())
	term.Update(tea.KeyMsg{Type: tea.KeyUp})
	term.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, "history", term.input.Value())
	term.Update(tea.KeyMsg{Type: tea.KeyDown})
	term.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Empty(t, term.input.Value())
}

func TestRun_ExecutesBufferAsScript(t *testing.T) {
	var reqs []services.ExecRequest
	term := New(Options{Exec: shell(t, &reqs), Shell: "sh"})
	term.Render(workspace.Buffer{Text: "ls\npwd\n"})
	require.Equal(t, "ls\npwd\n", term.Script())
	require.Equal(t, Notice, term.Entries()[0].Kind)

	settle(term, term.Run(context.Background(), term.Script()))
	require.Len(t, reqs, 1)
	require.Equal(t, "sh", reqs[0].Language)
	require.Equal(t, "ls\npwd\n", reqs[0].Code)
	require.Equal(t, Entry{Kind: Stdout, Text: "ls\npwd"}, term.Entries()[len(term.Entries())-1])
}

func TestRun_WithoutService(t *testing.T) {
	term := New(Options{})
	require.Nil(t, term.Run(context.Background(), "ls"))
	require.Equal(t, Entry{Kind: Notice, Text: noService}, term.Entries()[1])
}
