// Package cachemanager caches rendered views (markdown, highlighted
// source, diffs) keyed by a digest of what produced them.
package cachemanager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}

// Key builds a cache key from a renderer name, its settings and the
// content it renders. The content is digested so large buffers do not sit
// in the key space.
func Key(renderer string, content string, settings ...string) string {
	sum := sha256.Sum256([]byte(content))
	parts := append([]string{renderer}, settings...)
	parts = append(parts, hex.EncodeToString(sum[:12]))
	return strings.Join(parts, ":")
}
