package cachemanager

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zjrosen/canvas/internal/log"
)

// Stats counts lookups served from the cache and those that rendered.
type Stats struct {
	Hits   int64
	Misses int64
}

// ReadThroughCache renders with fn on a miss and keeps the result. Failed
// renders are returned and never kept, so the next lookup tries again.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache  CacheManager[K, V]
	fn     func(ctx context.Context, input I) (V, error)
	hits   atomic.Int64
	misses atomic.Int64
}

func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{cache: cache, fn: fn}
}

// Get returns the value under key, rendering input when absent. A hit
// extends the entry's ttl, so views in use stay cached.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if value, ok := r.cache.GetWithRefresh(ctx, key, ttl); ok {
		r.hits.Add(1)
		return value, nil
	}

	r.misses.Add(1)
	value, err := r.fn(ctx, input)
	if err != nil {
		log.Debug(log.CatCache, "render failed, not cached", "key", key, "error", err)
		return value, err
	}
	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Invalidate drops every cached value, for when fn's output would change.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context) error {
	return r.cache.Flush(ctx)
}

func (r *ReadThroughCache[K, V, I]) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}
