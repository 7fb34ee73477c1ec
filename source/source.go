// Package source produces the numbered lines a scanner reads, either from
// memory or from files on disk, and resolves include directives to further
// line sources.
package source

import "strings"

// MemoryName is the source label used for in-memory text.
const MemoryName = "memory"

// Line is one line of input without its terminator.
type Line struct {
	Number int    // 1-based line number
	Text   string // line text
	Offset int    // byte offset of the line start within its source
}

// LineSource yields the lines of one input in order.
type LineSource interface {
	// Name labels the source in error messages, usually a file path.
	Name() string
	// Next returns the next line, or false once the source is exhausted.
	Next() (Line, bool)
}

// Lines is a LineSource over a fixed slice of lines.
type Lines struct {
	name  string
	lines []Line
	pos   int
}

// Name returns the source label.
func (l *Lines) Name() string { return l.name }

// Next returns the next line.
func (l *Lines) Next() (Line, bool) {
	if l.pos >= len(l.lines) {
		return Line{}, false
	}
	line := l.lines[l.pos]
	l.pos++
	return line, true
}

// Len returns the total number of lines.
func (l *Lines) Len() int { return len(l.lines) }

// FromString splits text on newlines. A trailing "\r" is dropped from every
// line so CRLF input behaves like LF input.
func FromString(name, text string) *Lines {
	l := &Lines{name: name}
	offset := 0
	for i, raw := range strings.SplitAfter(text, "\n") {
		if raw == "" {
			continue
		}
		t := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
		l.lines = append(l.lines, Line{Number: i + 1, Text: t, Offset: offset})
		offset += len(raw)
	}
	return l
}

// FromLines numbers the given texts from 1 and keeps them verbatim, which
// allows a single line to carry embedded newlines.
func FromLines(name string, texts ...string) *Lines {
	l := &Lines{name: name, lines: make([]Line, 0, len(texts))}
	offset := 0
	for i, t := range texts {
		l.lines = append(l.lines, Line{Number: i + 1, Text: t, Offset: offset})
		offset += len(t) + 1
	}
	return l
}
