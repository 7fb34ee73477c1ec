package value

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/zclconf/go-cty/cty"
)

// LevelTrace is the slog level the Trace keyword maps to.
const LevelTrace = slog.LevelDebug - 4

var levels = []struct {
	name  string
	level slog.Level
}{
	{"Error", slog.LevelError},
	{"Warn", slog.LevelWarn},
	{"Info", slog.LevelInfo},
	{"Debug", slog.LevelDebug},
	{"Trace", LevelTrace},
}

// LogLevel parses one of the keywords Error, Warn, Info, Debug and Trace into
// a slog.Level. It defaults to Warn.
var LogLevel Type = logLevelType{}

// LevelName returns the configuration keyword of l, or l.String() for levels
// without one.
func LevelName(l slog.Level) string {
	for _, e := range levels {
		if e.level == l {
			return e.name
		}
	}
	return l.String()
}

type logLevelType struct{}

func (logLevelType) Name() string { return "loglevel" }

func (t logLevelType) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	text, ok := s.Next()
	if !ok {
		return nil, EndOfInput(s, sink, t.Name())
	}
	end := strings.IndexFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		end = len(text)
	}
	word := text[:end]
	for _, e := range levels {
		if e.name == word {
			if err := s.Consume(len(word), sink); err != nil {
				return nil, err
			}
			return e.level, nil
		}
	}
	return nil, Reject(s, sink, len(word), "Unknown log level %q, expected %s", word, levelGrammar())
}

func levelGrammar() string {
	names := make([]string, len(levels))
	for i, e := range levels {
		names[i] = e.name
	}
	return strings.Join(names, " | ")
}

func (logLevelType) Default() (any, bool)       { return slog.LevelWarn, true }
func (logLevelType) Merge(a, b any) (any, bool) { return mergeEqual(a, b) }
func (t logLevelType) Describe(d *Describer)    { d.Line("%s: %s", t.Name(), levelGrammar()) }
func (logLevelType) CtyType() cty.Type          { return cty.String }

func (t logLevelType) ToCty(v any) (cty.Value, error) {
	l, ok := v.(slog.Level)
	if !ok {
		return cty.NilVal, typeMismatch(t, v)
	}
	return cty.StringVal(LevelName(l)), nil
}
