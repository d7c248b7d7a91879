package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Next is a command that delivers the next event on ch as a tea.Msg, or nil
// once ctx is done or ch closes.
func Next[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			return ev
		}
	}
}

// ContinuousListener holds one subscription across Update calls. The
// handler of each event calls Listen again to receive the next.
type ContinuousListener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewContinuousListener subscribes to broker until ctx is done. Events
// published from then on are buffered until listened for.
func NewContinuousListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{ctx: ctx, ch: broker.Subscribe(ctx)}
}

// Listen waits for the next event. A nil listener returns a nil command.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	if l == nil {
		return nil
	}
	return Next(l.ctx, l.ch)
}
