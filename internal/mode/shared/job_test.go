package shared

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type step int

func drain(t *testing.T, j *Job, first tea.Cmd) []tea.Msg {
	t.Helper()
	var got []tea.Msg
	cmd := first
	for {
		msg := cmd()
		if msg == nil {
			return got
		}
		jm, ok := msg.(JobMsg)
		require.True(t, ok)
		require.Equal(t, j.ID(), jm.ID)
		got = append(got, jm.Msg)
		cmd = j.Next()
	}
}

func TestJob_DeliversInOrderThenFinal(t *testing.T) {
	j, cmd := StartJob(context.Background(), func(_ context.Context, send func(tea.Msg)) tea.Msg {
		for i := range 3 {
			send(step(i))
		}
		return "done"
	})
	require.Equal(t, []tea.Msg{step(0), step(1), step(2), "done"}, drain(t, j, cmd))
}

func TestJob_CancelStillDeliversFinal(t *testing.T) {
	started := make(chan struct{})
	j, cmd := StartJob(context.Background(), func(ctx context.Context, send func(tea.Msg)) tea.Msg {
		close(started)
		<-ctx.Done()
		send(step(1)) // abandoned
		return ctx.Err()
	})
	<-started
	j.Cancel()
	require.True(t, j.Done())
	require.Equal(t, []tea.Msg{context.Canceled}, drain(t, j, cmd))
}

func TestJob_ReleaseEndsWithoutReader(t *testing.T) {
	finished := make(chan struct{})
	j, _ := StartJob(context.Background(), func(ctx context.Context, _ func(tea.Msg)) tea.Msg {
		<-ctx.Done()
		return "final"
	})
	j.Release()
	j.Release()
	go func() {
		// Next reports nil once the goroutine has exited.
		for j.Next()() != nil {
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("job goroutine did not exit after Release")
	}
}
