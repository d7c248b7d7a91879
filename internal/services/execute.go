package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultExecutePath = "/execute"
	DefaultStreamPath  = "/execute/stream"
)

// ExecRequest runs code in the execution service. Files are extra sources
// made available next to the main program.
type ExecRequest struct {
	Code      string            `json:"code"`
	Language  string            `json:"language"`
	UseDocker bool              `json:"useDocker"`
	Files     map[string]string `json:"files,omitempty"`
}

// ExecResponse is the buffered result of a run.
type ExecResponse struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
	Error    string `json:"error,omitempty"`
}

// StreamEventType names the server-sent events of a streamed run.
type StreamEventType string

const (
	StreamStdout   StreamEventType = "stdout"
	StreamStderr   StreamEventType = "stderr"
	StreamComplete StreamEventType = "complete"
)

// StreamEvent is one decoded event. Text is set for stdout/stderr;
// ExitCode and Error for complete.
type StreamEvent struct {
	Type     StreamEventType
	Text     string
	ExitCode int
	Error    string
}

// ExecClient talks to the execution service.
type ExecClient struct {
	c          client
	execPath   string
	streamPath string
}

// NewExecClient creates a client for base. Empty paths use the defaults.
func NewExecClient(base, execPath, streamPath string, timeout time.Duration, hc *http.Client) *ExecClient {
	if execPath == "" {
		execPath = DefaultExecutePath
	}
	if streamPath == "" {
		streamPath = DefaultStreamPath
	}
	return &ExecClient{c: newClient(base, timeout, hc), execPath: execPath, streamPath: streamPath}
}

// Execute runs req and waits for the whole result.
func (e *ExecClient) Execute(ctx context.Context, req ExecRequest) (ExecResponse, error) {
	var resp ExecResponse
	err := e.c.postJSON(ctx, e.execPath, req, &resp)
	return resp, err
}

// Stream runs req and calls fn for every event until complete arrives, the
// stream ends or fn returns an error. The complete event is returned.
func (e *ExecClient) Stream(ctx context.Context, req ExecRequest, fn func(StreamEvent) error) (StreamEvent, error) {
	resp, err := e.c.post(ctx, e.streamPath, req, "text/event-stream")
	if err != nil {
		return StreamEvent{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var (
		event string
		data  []string
	)
	dispatch := func() (StreamEvent, bool, error) {
		defer func() { event, data = "", nil }()
		if event == "" && len(data) == 0 {
			return StreamEvent{}, false, nil
		}
		ev := decodeEvent(event, strings.Join(data, "\n"))
		if fn != nil {
			if err := fn(ev); err != nil {
				return ev, true, err
			}
		}
		return ev, ev.Type == StreamComplete, nil
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			ev, done, err := dispatch()
			if err != nil || done {
				return ev, err
			}
		case strings.HasPrefix(line, ":"):
			// comment / keepalive
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			d := strings.TrimPrefix(line, "data:")
			data = append(data, strings.TrimPrefix(d, " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return StreamEvent{}, fmt.Errorf("reading stream: %w", err)
	}
	ev, done, err := dispatch()
	if err != nil || done {
		return ev, err
	}
	return StreamEvent{}, fmt.Errorf("stream ended without complete event")
}

// decodeEvent accepts either a JSON payload or bare text. An unnamed event
// is treated as stdout.
func decodeEvent(name, data string) StreamEvent {
	ev := StreamEvent{Type: StreamEventType(name)}
	if ev.Type == "" {
		ev.Type = StreamStdout
	}
	var payload struct {
		Data     *string `json:"data"`
		Text     *string `json:"text"`
		ExitCode int     `json:"exitCode"`
		Error    string  `json:"error"`
	}
	if strings.HasPrefix(strings.TrimSpace(data), "{") && json.Unmarshal([]byte(data), &payload) == nil {
		switch {
		case payload.Data != nil:
			ev.Text = *payload.Data
		case payload.Text != nil:
			ev.Text = *payload.Text
		}
		ev.ExitCode = payload.ExitCode
		ev.Error = payload.Error
		return ev
	}
	ev.Text = data
	return ev
}
