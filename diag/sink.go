package diag

import (
	"log/slog"

	"github.com/hashicorp/hcl/v2"
)

// Prefixes of the positional lines emitted by the scanner. Collector uses
// them to tell location lines apart from descriptive messages.
const (
	PositionPrefix     = "Encountered error in "
	IncludedFromPrefix = "  included from "
)

// Sink consumes diagnostic messages. Implementations must not block and must
// not panic.
type Sink interface {
	Report(msg string)
}

// Locator is implemented by sinks that want the source range of positional
// reports. Locate is called right before the matching text is reported.
type Locator interface {
	Locate(rng hcl.Range)
}

// Locate passes rng to sink when it is a Locator and does nothing otherwise.
func Locate(sink Sink, rng hcl.Range) {
	if l, ok := sink.(Locator); ok {
		l.Locate(rng)
	}
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(msg string)

// Report calls f(msg).
func (f SinkFunc) Report(msg string) { f(msg) }

type discard struct{}

func (discard) Report(string) {}

// Discard drops every message.
var Discard Sink = discard{}

// tee fans every report out to several sinks.
type tee []Sink

// Tee returns a sink that forwards to all of the given sinks in order. Nil
// sinks are skipped.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t tee) Report(msg string) {
	for _, s := range t {
		s.Report(msg)
	}
}

func (t tee) Locate(rng hcl.Range) {
	for _, s := range t {
		if l, ok := s.(Locator); ok {
			l.Locate(rng)
		}
	}
}

// logSink writes every message to a slog.Logger at warn level.
type logSink struct {
	logger *slog.Logger
	rng    *hcl.Range
}

// LogSink returns a sink that logs each diagnostic through logger. Messages
// that follow a positional report carry its range as an attribute.
func LogSink(logger *slog.Logger) Sink {
	return &logSink{logger: logger}
}

func (l *logSink) Locate(rng hcl.Range) {
	l.rng = &rng
}

func (l *logSink) Report(msg string) {
	if l.rng != nil {
		l.logger.Warn("Config diagnostic.", "message", msg, "range", l.rng.String())
		return
	}
	l.logger.Warn("Config diagnostic.", "message", msg)
}
