package shared

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// JobMsg carries a message from a background job. IDs are unique within the
// process, so a surface drops messages from jobs it did not start, including
// those of a torn-down surface still in flight.
type JobMsg struct {
	ID  int64
	Msg tea.Msg
}

// Job runs work on its own goroutine and hands its messages to the Update
// loop one at a time. Unlike a pubsub subscription nothing is dropped: Send
// blocks until the loop has taken the previous message.
type Job struct {
	id     int64
	ch     chan tea.Msg
	ctx    context.Context
	cancel context.CancelFunc
	gone   chan struct{}
}

var lastJobID atomic.Int64

// StartJob starts fn. Its return value is delivered after everything it
// sent, then the job ends. The returned command waits for the first
// message; call Next after handling each one.
func StartJob(ctx context.Context, fn func(ctx context.Context, send func(tea.Msg)) tea.Msg) (*Job, tea.Cmd) {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{id: lastJobID.Add(1), ch: make(chan tea.Msg), ctx: ctx, cancel: cancel, gone: make(chan struct{})}
	go func() {
		defer close(j.ch)
		send := func(msg tea.Msg) {
			if ctx.Err() != nil {
				return
			}
			select {
			case j.ch <- msg:
			case <-ctx.Done():
			}
		}
		final := fn(ctx, send)
		// The final message is delivered even after Cancel so the surface
		// learns the job ended.
		select {
		case j.ch <- final:
		case <-j.gone:
		}
	}()
	return j, j.Next()
}

// ID identifies the job's messages.
func (j *Job) ID() int64 { return j.id }

// Next waits for the job's next message.
func (j *Job) Next() tea.Cmd {
	if j == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-j.ch
		if !ok {
			return nil
		}
		return JobMsg{ID: j.id, Msg: msg}
	}
}

// Cancel cancels the job's context. Messages already being sent are
// abandoned; the final message still arrives through Next.
func (j *Job) Cancel() {
	if j != nil {
		j.cancel()
	}
}

// Release cancels the job and drops its final message, for surfaces being
// torn down that will not call Next again.
func (j *Job) Release() {
	if j == nil {
		return
	}
	j.cancel()
	select {
	case <-j.gone:
	default:
		close(j.gone)
	}
}

// Done reports whether the job's context has ended.
func (j *Job) Done() bool {
	return j == nil || j.ctx.Err() != nil
}
