// Package runlog carries the user-visible log lines produced by the
// runtimes and external services. It is separate from internal/log, which
// holds developer diagnostics.
package runlog

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/pubsub"
)

// Level is the severity shown in the log pane.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// Tag is the bracketed prefix used when a line is rendered as plain text.
func (l Level) Tag() string {
	switch l {
	case Success:
		return "[OK]"
	case Warning:
		return "[WARN]"
	case Error:
		return "[ERROR]"
	default:
		return "[INFO]"
	}
}

// Line is one timestamped entry.
type Line struct {
	Time   time.Time
	Level  Level
	Source string
	Text   string
}

// String renders the line as "15:04:05.000 [ERROR] text".
func (l Line) String() string {
	return fmt.Sprintf("%s %s %s", l.Time.Format("15:04:05.000"), l.Level.Tag(), l.Text)
}

// Broker fans lines out to the UI and headless printers.
type Broker = pubsub.Broker[Line]

// NewBroker returns a broker sized for bursty runtime output.
func NewBroker() *Broker {
	return pubsub.NewBrokerWithBuffer[Line](256)
}

// Sink stamps and publishes lines for one source. A nil broker drops the
// line after mirroring it to the debug log.
type Sink struct {
	broker *Broker
	source string
	cat    log.Category
	clock  clock.Clock
}

// NewSink creates a sink publishing to b. A nil clk uses the wall clock.
func NewSink(b *Broker, source string, cat log.Category, clk clock.Clock) *Sink {
	if clk == nil {
		clk = clock.New()
	}
	return &Sink{broker: b, source: source, cat: cat, clock: clk}
}

// Source is the name stamped on every line.
func (s *Sink) Source() string { return s.source }

func (s *Sink) emit(level Level, format string, args ...any) Line {
	line := Line{
		Time:   s.clock.Now(),
		Level:  level,
		Source: s.source,
		Text:   fmt.Sprintf(format, args...),
	}
	switch level {
	case Error:
		log.Error(s.cat, line.Text, "source", s.source)
	case Warning:
		log.Warn(s.cat, line.Text, "source", s.source)
	default:
		log.Debug(s.cat, line.Text, "source", s.source)
	}
	if s.broker != nil {
		s.broker.Publish(pubsub.LineEvent, line)
	}
	return line
}

func (s *Sink) Infof(format string, args ...any) Line { return s.emit(Info, format, args...) }

func (s *Sink) Successf(format string, args ...any) Line { return s.emit(Success, format, args...) }

func (s *Sink) Warnf(format string, args ...any) Line { return s.emit(Warning, format, args...) }

func (s *Sink) Errorf(format string, args ...any) Line { return s.emit(Error, format, args...) }
