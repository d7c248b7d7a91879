// Package services holds the HTTP clients for the external build/flash and
// code execution services. Failures are returned verbatim and never retried.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zjrosen/canvas/internal/log"
)

// DefaultTimeout bounds request/response calls. Streams rely on the
// caller's context instead.
const DefaultTimeout = 60 * time.Second

// StatusError is a non-2xx response. Body is the trimmed response text.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("service returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("service returned %d: %s", e.Code, e.Body)
}

// client is the shared JSON POST plumbing.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration, hc *http.Client) client {
	if hc == nil {
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return client{base: strings.TrimRight(base, "/"), http: hc}
}

func joinPath(base, path string) string {
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

func (c client) post(ctx context.Context, path string, body any, accept string) (*http.Response, error) {
	if c.base == "" {
		return nil, fmt.Errorf("service url not configured")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	url := joinPath(c.base, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	log.Debug(log.CatService, "POST", "url", url, "bytes", len(payload))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	return resp, nil
}

func (c client) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := c.post(ctx, path, body, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
