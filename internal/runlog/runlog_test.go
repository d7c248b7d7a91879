package runlog

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/pubsub"
)

func TestSink_PublishesStampedLines(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	b := NewBroker()
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := b.Subscribe(ctx)

	s := NewSink(b, "hwsim", "hwsim", mock)
	s.Errorf("loop failed: %s", "boom")

	select {
	case ev := <-ch:
		require.Equal(t, pubsub.LineEvent, ev.Type)
		require.Equal(t, Error, ev.Payload.Level)
		require.Equal(t, "hwsim", ev.Payload.Source)
		require.Equal(t, "03:04:05.000 [ERROR] loop failed: boom", ev.Payload.String())
	case <-time.After(time.Second):
		t.Fatal("no line published")
	}
}

func TestSink_NilBrokerDrops(t *testing.T) {
	s := NewSink(nil, "svc", "service", nil)
	line := s.Successf("ok")
	require.Equal(t, Success, line.Level)
	require.Equal(t, "[OK]", line.Level.Tag())
}
