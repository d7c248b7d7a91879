package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/pubsub"
	"github.com/zjrosen/canvas/internal/watcher"
)

func startWatcher(t *testing.T, path string) <-chan pubsub.Event[watcher.Event] {
	t.Helper()
	w, err := watcher.New(watcher.Config{
		Path:        path,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch := w.Broker().Subscribe(ctx)
	require.NoError(t, w.Start(), "failed to start watcher")
	return ch
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sketch.ino")
	require.NoError(t, os.WriteFile(path, []byte("start"), 0644))

	events := startWatcher(t, path)

	// Rapid writes should coalesce into a single reload of the last content
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("void loop() {} // %d", i)), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case ev := <-events:
		require.Equal(t, pubsub.ChangedEvent, ev.Type)
		require.Equal(t, "void loop() {} // 9", ev.Payload.Content)
	case <-time.After(time.Second):
		t.Fatal("expected reload but got timeout")
	}

	select {
	case <-events:
		t.Fatal("unexpected second reload")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cart.lua")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("function TIC() end"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0644))

	events := startWatcher(t, path)

	require.NoError(t, os.WriteFile(other, []byte("other content"), 0644))

	select {
	case <-events:
		t.Fatal("should not reload for unrelated files")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_IgnoresUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0644))

	events := startWatcher(t, path)

	// A touch that rewrites the same bytes is not a change
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0644))

	select {
	case <-events:
		t.Fatal("unchanged content should not reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# One"), 0644))

	events := startWatcher(t, path)

	tmp := filepath.Join(dir, ".notes.md.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("# Two"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case ev := <-events:
		require.Equal(t, "# Two", ev.Payload.Content)
	case <-time.After(time.Second):
		t.Fatal("expected reload after rename")
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("test"), 0644))

	w, err := watcher.New(watcher.DefaultConfig(path))
	require.NoError(t, err)
	require.NoError(t, w.Start())

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/test/sketch.ino")

	assert.Equal(t, "/test/sketch.ino", cfg.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceDur)
}
