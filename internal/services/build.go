package services

import (
	"context"
	"net/http"
	"time"
)

// DefaultFlashPath is appended to the build service URL.
const DefaultFlashPath = "/flash"

// FlashRequest asks the build service to compile code for a board and
// upload it to the device on port.
type FlashRequest struct {
	Code      string `json:"code"`
	BoardFQBN string `json:"boardFQBN"`
	Port      string `json:"port"`
}

// FlashResponse carries the compiler/uploader output.
type FlashResponse struct {
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BuildClient talks to the build/flash service.
type BuildClient struct {
	c    client
	path string
}

// NewBuildClient creates a client for base. An empty path uses
// DefaultFlashPath; a nil hc gets a client with timeout.
func NewBuildClient(base, path string, timeout time.Duration, hc *http.Client) *BuildClient {
	if path == "" {
		path = DefaultFlashPath
	}
	return &BuildClient{c: newClient(base, timeout, hc), path: path}
}

// Flash posts req. A service-reported failure comes back in
// FlashResponse.Error with a nil error.
func (b *BuildClient) Flash(ctx context.Context, req FlashRequest) (FlashResponse, error) {
	var resp FlashResponse
	err := b.c.postJSON(ctx, b.path, req, &resp)
	return resp, err
}
