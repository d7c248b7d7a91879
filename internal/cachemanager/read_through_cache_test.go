package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type renderInput struct {
	Text  string
	Width int
}

func newRenderCache(fail bool) (*ReadThroughCache[string, rendered, renderInput], *int) {
	calls := 0
	manager := NewInMemoryCacheManager[string, rendered]("test", DefaultExpiration, DefaultCleanupInterval)
	rt := NewReadThroughCache[string, rendered, renderInput](manager,
		func(_ context.Context, in renderInput) (rendered, error) {
			calls++
			if fail {
				return rendered{}, errors.New("unknown lexer")
			}
			return rendered{Width: in.Width, View: "<" + in.Text + ">"}, nil
		})
	return rt, &calls
}

func TestReadThroughCache_Get(t *testing.T) {
	tests := []struct {
		name      string
		fail      bool
		wantCalls int
		wantStats Stats
	}{
		{name: "second lookup is a hit", wantCalls: 1, wantStats: Stats{Hits: 1, Misses: 1}},
		{name: "failures are not kept", fail: true, wantCalls: 2, wantStats: Stats{Misses: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, calls := newRenderCache(tt.fail)
			in := renderInput{Text: "# Title", Width: 40}
			for range 2 {
				got, err := rt.Get(context.Background(), "md:1", in, time.Minute)
				if tt.fail {
					require.EqualError(t, err, "unknown lexer")
					continue
				}
				require.NoError(t, err)
				require.Equal(t, rendered{Width: 40, View: "<# Title>"}, got)
			}
			require.Equal(t, tt.wantCalls, *calls)
			require.Equal(t, tt.wantStats, rt.Stats())
		})
	}
}

func TestReadThroughCache_HitExtendsTTL(t *testing.T) {
	manager := NewInMemoryCacheManager[string, rendered]("test", DefaultExpiration, DefaultCleanupInterval)
	rt := NewReadThroughCache[string, rendered, renderInput](manager,
		func(_ context.Context, in renderInput) (rendered, error) { return rendered{View: in.Text}, nil })

	_, err := rt.Get(context.Background(), "k", renderInput{Text: "a"}, time.Millisecond*50)
	require.NoError(t, err)
	_, err = rt.Get(context.Background(), "k", renderInput{Text: "a"}, time.Hour)
	require.NoError(t, err)

	_, expires, found := manager.cache.GetWithExpiration("k")
	require.True(t, found)
	require.Greater(t, time.Until(expires), time.Minute)
}

func TestReadThroughCache_Invalidate(t *testing.T) {
	rt, calls := newRenderCache(false)
	in := renderInput{Text: "z"}

	_, _ = rt.Get(context.Background(), "k", in, time.Minute)
	require.NoError(t, rt.Invalidate(context.Background()))
	_, _ = rt.Get(context.Background(), "k", in, time.Minute)
	require.Equal(t, 2, *calls)
}
