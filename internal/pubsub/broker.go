package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultBufferSize = 64

// Broker delivers every published event to each live subscription.
// Publish never waits: a subscriber with a full buffer misses the event and
// the miss is counted in Dropped.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	closed chan struct{}
	size   int
	now    func() time.Time

	dropped atomic.Int64
}

// NewBroker returns a broker whose subscriptions buffer 64 events.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer returns a broker whose subscriptions buffer size
// events, at least one.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:   make(map[chan Event[T]]struct{}),
		closed: make(chan struct{}),
		size:   max(size, 1),
		now:    time.Now,
	}
}

func (b *Broker[T]) isClosed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

// Subscribe opens a subscription that lasts until ctx is done or the broker
// closes; either closes the channel. Events already buffered stay readable
// after a Close.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClosed() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	ch := make(chan Event[T], b.size)
	b.subs[ch] = struct{}{}
	go b.unsubscribeOn(ctx, ch)
	return ch
}

func (b *Broker[T]) unsubscribeOn(ctx context.Context, ch chan Event[T]) {
	select {
	case <-ctx.Done():
	case <-b.closed:
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish stamps payload and offers it to every subscription.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.isClosed() {
		return
	}

	ev := Event[T]{Type: t, Payload: payload, Timestamp: b.now()}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close ends every subscription. Later calls do nothing.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClosed() {
		return
	}
	close(b.closed)
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// SubscriberCount is the number of open subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped counts deliveries missed because a subscriber was full.
func (b *Broker[T]) Dropped() int64 { return b.dropped.Load() }
