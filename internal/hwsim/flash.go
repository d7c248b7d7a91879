package hwsim

import (
	"context"
	"errors"
	"strings"

	"github.com/zjrosen/canvas/internal/services"
)

// Flasher uploads a sketch through an external build service.
type Flasher interface {
	Flash(ctx context.Context, req services.FlashRequest) (services.FlashResponse, error)
}

// Flash sends the untranspiled sketch to the build service for the selected
// board. Service output and failures are logged verbatim; nothing is
// retried. Without a configured service it logs one line and returns nil.
func (r *Runtime) Flash(ctx context.Context, code, port string) error {
	if r.opts.Flasher == nil {
		r.sink.Infof("No build service configured, flash skipped")
		return nil
	}
	b := r.Board()
	r.sink.Infof("Flashing %s on %s...", b.FQBN, port)

	resp, err := r.opts.Flasher.Flash(ctx, services.FlashRequest{Code: code, BoardFQBN: b.FQBN, Port: port})
	if err != nil {
		r.sink.Errorf("Flash failed: %v", err)
		return err
	}
	if out := strings.TrimSpace(resp.Stdout); out != "" {
		r.sink.Infof("%s", out)
	}
	if out := strings.TrimSpace(resp.Stderr); out != "" {
		r.sink.Warnf("%s", out)
	}
	if resp.Error != "" {
		r.sink.Errorf("Flash failed: %s", resp.Error)
		return errors.New(resp.Error)
	}
	r.sink.Successf("Flashed to %s", port)
	return nil
}
