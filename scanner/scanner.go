// Package scanner provides the cursor every parser in this module reads
// from.
//
// A Scanner walks the lines of a source and hides everything that is not
// significant content: leading and trailing whitespace, blank lines, full-line
// comments starting with '#', and include directives. Skipping happens
// eagerly on every Consume, so whatever Next and PeekChar return is always
// meaningful text or the end of input.
//
// An include directive
//
//	@include "path/to/file.conf"
//
// on a line of its own splices the lines of the named source into the
// stream. Included sources are kept on a stack; the innermost one is read
// until it is exhausted, then the including source resumes at its next line.
package scanner

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/literal"
	"github.com/vk/tyconf/source"
)

const (
	// IncludeDirective starts a line that includes another source.
	IncludeDirective = "@include"
	// MaxIncludeDepth bounds the nesting of includes.
	MaxIncludeDepth = 32
)

// frame is the cursor state of one source on the include stack.
type frame struct {
	src    source.LineSource
	name   string
	parent *frame // frame holding the include directive; nil for the root

	line   int    // 1-based number of the current line
	offset int    // byte offset of the current line in its source
	text   string // current line
	column int    // byte offset of the cursor in text
}

// Scanner is a cursor over the lines of a source and its includes.
type Scanner struct {
	frames []*frame
	opener source.Opener
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithOpener enables include directives, resolving their paths with o.
// Without an opener, lines starting with the directive are plain content.
func WithOpener(o source.Opener) Option {
	return func(s *Scanner) {
		s.opener = o
	}
}

// New creates a scanner positioned on the first significant character of
// src. It fails only when an include directive at the start of the input
// cannot be resolved; the reason is reported to sink.
func New(src source.LineSource, sink diag.Sink, opts ...Option) (*Scanner, error) {
	s := &Scanner{frames: []*frame{{src: src, name: src.Name(), line: 1}}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.nextLine(sink); err != nil {
		return nil, err
	}
	return s, nil
}

// FromString returns a scanner over in-memory text labelled "memory".
// Include directives are not recognized.
func FromString(text string) *Scanner {
	s, _ := New(source.FromString(source.MemoryName, text), diag.Discard)
	return s
}

// FromLines returns a scanner over the given lines, kept verbatim. Include
// directives are not recognized.
func FromLines(name string, lines ...string) *Scanner {
	s, _ := New(source.FromLines(name, lines...), diag.Discard)
	return s
}

func (s *Scanner) top() *frame {
	return s.frames[len(s.frames)-1]
}

// Next returns the rest of the current line from the cursor on, or false at
// the end of input. The text is not tokenized; callers match with
// strings.HasPrefix rather than equality.
func (s *Scanner) Next() (string, bool) {
	f := s.top()
	if f.column >= len(f.text) {
		return "", false
	}
	return f.text[f.column:], true
}

// PeekChar returns the character under the cursor, or false at the end of
// input.
func (s *Scanner) PeekChar() (rune, bool) {
	f := s.top()
	if f.column >= len(f.text) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(f.text[f.column:])
	return r, true
}

// IsAtEnd reports whether the input is exhausted, including all includes.
func (s *Scanner) IsAtEnd() bool {
	f := s.top()
	return f.column >= len(f.text)
}

// Name returns the label of the source currently being read.
func (s *Scanner) Name() string {
	return s.top().name
}

// Depth returns the include nesting of the source currently being read; the
// root source has depth 1.
func (s *Scanner) Depth() int {
	d := 0
	for f := s.top(); f != nil; f = f.parent {
		d++
	}
	return d
}

// Consume advances the cursor by n bytes within the current line, then skips
// whitespace, blank lines, comments and include directives. Consuming past
// the end of the line is a Final error.
func (s *Scanner) Consume(n int, sink diag.Sink) error {
	f := s.top()
	if n < 0 || f.column+n > len(f.text) {
		s.Errorf(0, sink, "Tried to consume more than currently available: %d", n)
		return diag.ErrFinal
	}
	f.column += n
	return s.skip(sink)
}

// ConsumeChar consumes c if it is the character under the cursor and fails
// with a Final error otherwise.
func (s *Scanner) ConsumeChar(c rune, sink diag.Sink) error {
	if r, ok := s.PeekChar(); ok && r == c {
		return s.Consume(utf8.RuneLen(c), sink)
	}
	s.Errorf(0, sink, "Tried to consume '%c'", c)
	return diag.ErrFinal
}

// PrintError reports the cursor position shifted by offset bytes as
// "<source>:<line>,<column>" with a 1-based column, followed by one
// "included from" line per enclosing source.
func (s *Scanner) PrintError(offset int, sink diag.Sink) {
	f := s.top()
	diag.Locate(sink, s.Range(offset))
	sink.Report(fmt.Sprintf("%s%s:%d,%d", diag.PositionPrefix, f.name, f.line, f.column+offset+1))
	for p := f.parent; p != nil; p = p.parent {
		sink.Report(fmt.Sprintf("%s%s:%d", diag.IncludedFromPrefix, p.name, p.line))
	}
}

// Errorf reports the position like PrintError and then the formatted message.
func (s *Scanner) Errorf(offset int, sink diag.Sink, format string, args ...any) {
	s.PrintError(offset, sink)
	sink.Report(fmt.Sprintf(format, args...))
}

// Range returns the one-character source range at the cursor shifted by
// offset bytes.
func (s *Scanner) Range(offset int) hcl.Range {
	f := s.top()
	col := f.column + offset
	start := hcl.Pos{Line: f.line, Column: col + 1, Byte: f.offset + col}
	end := start
	if col >= 0 && col < len(f.text) {
		_, size := utf8.DecodeRuneInString(f.text[col:])
		end.Column++
		end.Byte += size
	}
	return hcl.Range{Filename: f.name, Start: start, End: end}
}

// skip moves past whitespace and, at the end of a line, on to the next
// significant line.
func (s *Scanner) skip(sink diag.Sink) error {
	f := s.top()
	f.column += leadingSpace(f.text[f.column:])
	if f.column < len(f.text) {
		return nil
	}
	return s.nextLine(sink)
}

// nextLine pulls lines until one with significant content is current or all
// sources are exhausted. Exhausted includes are popped on the way.
func (s *Scanner) nextLine(sink diag.Sink) error {
	for {
		f := s.top()
		line, ok := f.src.Next()
		if !ok {
			if len(s.frames) == 1 {
				f.column = len(f.text)
				return nil
			}
			s.frames = s.frames[:len(s.frames)-1]
			continue
		}

		f.line, f.offset, f.text = line.Number, line.Offset, line.Text
		f.column = leadingSpace(f.text)

		rest := f.text[f.column:]
		switch {
		case rest == "":
			continue
		case rest[0] == '#':
			f.column = len(f.text)
			continue
		case s.opener != nil && isDirective(rest):
			if err := s.include(sink); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}

// include resolves the directive under the cursor and pushes the resulting
// sources so that the first one is read first.
func (s *Scanner) include(sink diag.Sink) error {
	f := s.top()
	path, err := directivePath(f.text[f.column+len(IncludeDirective):])
	if err != nil {
		s.Errorf(0, sink, "Malformed include directive: %s", err)
		return diag.ErrFinal
	}
	if s.Depth() >= MaxIncludeDepth {
		s.Errorf(0, sink, "Includes nested deeper than %d levels", MaxIncludeDepth)
		return diag.ErrFinal
	}

	srcs, err := s.opener.Open(f.name, path)
	if err != nil {
		s.Errorf(0, sink, "Failed to include %q: %s", path, err)
		return diag.ErrFinal
	}
	for _, src := range srcs {
		for p := f; p != nil; p = p.parent {
			if p.name == src.Name() {
				s.Errorf(0, sink, "Include cycle: %s includes itself", src.Name())
				return diag.ErrFinal
			}
		}
	}

	f.column = len(f.text)
	for i := len(srcs) - 1; i >= 0; i-- {
		s.frames = append(s.frames, &frame{src: srcs[i], name: srcs[i].Name(), parent: f, line: 1})
	}
	return nil
}

func isDirective(text string) bool {
	if !strings.HasPrefix(text, IncludeDirective) {
		return false
	}
	rest := text[len(IncludeDirective):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsSpace(r) || r == '"'
}

// directivePath extracts the path argument of an include directive: either a
// string literal or a single bare word.
func directivePath(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("missing path")
	}
	if arg[0] == '"' {
		path, n, err := literal.ParseString(arg)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(arg[n:]) != "" {
			return "", fmt.Errorf("unexpected text after path: %q", strings.TrimSpace(arg[n:]))
		}
		return path, nil
	}
	if i := strings.IndexFunc(arg, unicode.IsSpace); i >= 0 {
		return "", fmt.Errorf("unexpected text after path: %q", strings.TrimSpace(arg[i:]))
	}
	return arg, nil
}

func leadingSpace(text string) int {
	return len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
}
