// Package watcher reloads the opened file when it changes on disk, with
// debouncing so an editor's write-rename-chmod burst is one reload.
package watcher

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/pubsub"
)

// Event carries the new content of the watched file.
type Event struct {
	Path    string
	Content string
}

// Watcher monitors one file and publishes its content after each change.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	broker    *pubsub.Broker[Event]
	done      chan struct{}

	// Owned by loop.
	last []byte
}

// Config holds watcher configuration options.
type Config struct {
	Path        string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		DebounceDur: 250 * time.Millisecond,
	}
}

// New creates a watcher for cfg.Path. The file's current content is the
// baseline; only changes from it are published.
func New(cfg Config) (*Watcher, error) {
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.Path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	last, _ := os.ReadFile(abs)

	return &Watcher{
		fsWatcher: fsw,
		path:      abs,
		debounce:  cfg.DebounceDur,
		broker:    pubsub.NewBrokerWithBuffer[Event](4),
		done:      make(chan struct{}),
		last:      last,
	}, nil
}

// Broker streams reload events.
func (w *Watcher) Broker() *pubsub.Broker[Event] { return w.broker }

// Path is the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Start begins watching the file's directory, so replacing the file by
// rename is seen as well as writing it in place.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	log.Info(log.CatWatcher, "watching", "path", w.path)

	go w.loop()

	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	w.broker.Close()
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				w.reload()
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err, "path", w.path)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// reload reads the file and publishes it when the content differs from what
// was last seen. A file that vanished mid-rename is ignored; the following
// create event reloads it.
func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		log.Debug(log.CatWatcher, "reload skipped", "path", w.path, "error", err)
		return
	}
	if bytes.Equal(data, w.last) {
		return
	}
	w.last = data
	log.Info(log.CatWatcher, "file changed", "path", w.path, "bytes", len(data))
	w.broker.Publish(pubsub.ChangedEvent, Event{Path: w.path, Content: string(data)})
}

// isRelevantEvent checks if the event should trigger a reload.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}
