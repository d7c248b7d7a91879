// Package pubsub fans typed events out from the runtime goroutines (log
// lines, pin snapshots, console frames, file changes) to the UI loop and
// headless printers.
package pubsub

import "time"

// EventType says what a payload is.
type EventType string

const (
	// LineEvent carries one log line.
	LineEvent EventType = "line"
	// SnapshotEvent carries the pin table after a change.
	SnapshotEvent EventType = "snapshot"
	// FrameEvent carries a finished console frame.
	FrameEvent EventType = "frame"
	// ChangedEvent carries the new content of a watched file.
	ChangedEvent EventType = "changed"
)

// Event is one published payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}
