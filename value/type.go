// Package value defines the protocol every configuration value type follows
// and the built-in scalar and container types.
//
// A Type knows how to parse its textual form from a scanner, whether it can
// produce a value with no input at all, how two occurrences of the same key
// are combined, and how it is described to a human. Parsed values are plain
// Go values; see each type for the concrete representation.
package value

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/zclconf/go-cty/cty"
)

// Type is the protocol shared by all value types.
type Type interface {
	// Name identifies the type in diagnostics and descriptions. Names are
	// unique: two types with the same name describe the same grammar.
	Name() string

	// Parse reads one value at the cursor. On failure it has already reported
	// the reason to sink and returns diag.ErrRecoverable or diag.ErrFinal.
	Parse(s *scanner.Scanner, sink diag.Sink) (any, error)

	// Default returns the type-level default, or false if the type has none.
	Default() (any, bool)

	// Merge combines two occurrences of the same key, a being the earlier
	// one. It returns false when the values conflict.
	Merge(a, b any) (any, bool)

	// Describe emits the grammar line of the type and visits the types it
	// refers to.
	Describe(d *Describer)

	// CtyType returns the cty type that ToCty produces for this type.
	CtyType() cty.Type

	// ToCty converts a value produced by Parse, Default or Merge.
	ToCty(v any) (cty.Value, error)
}

// Container is implemented by types whose grammar embeds other types.
type Container interface {
	Children() []Type
}

// Recursive reports whether a value of t can contain another value of t.
// Recursive composites have no static cty type and no implicit default.
func Recursive(t Type) bool {
	seen := make(map[Type]bool)
	var walk func(Type) bool
	walk = func(cur Type) bool {
		c, ok := cur.(Container)
		if !ok {
			return false
		}
		for _, child := range c.Children() {
			if child == t {
				return true
			}
			if seen[child] {
				continue
			}
			seen[child] = true
			if walk(child) {
				return true
			}
		}
		return false
	}
	return walk(t)
}

// Describer collects the grammar lines of a type and everything it refers to.
// Every type name is described at most once, which keeps self-referential
// types finite.
type Describer struct {
	seen  map[string]bool
	lines []string
}

// NewDescriber returns an empty Describer.
func NewDescriber() *Describer {
	return &Describer{seen: make(map[string]bool)}
}

// Line appends one grammar line.
func (d *Describer) Line(format string, args ...any) {
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
}

// Visit describes t unless a type with the same name was already visited.
func (d *Describer) Visit(t Type) {
	if d.seen[t.Name()] {
		return
	}
	d.seen[t.Name()] = true
	t.Describe(d)
}

// Lines returns the lines collected so far.
func (d *Describer) Lines() []string {
	return d.lines
}

// String joins the collected lines with newlines.
func (d *Describer) String() string {
	return strings.Join(d.lines, "\n")
}

// Format returns the grammar of t and of every type it refers to, one
// "name: grammar" line each, t first.
func Format(t Type) string {
	d := NewDescriber()
	d.Visit(t)
	return d.String()
}

// EndOfInput reports that the input ended while a value of the named kind was
// expected. End of input is always a Final error.
func EndOfInput(s *scanner.Scanner, sink diag.Sink, what string) error {
	s.Errorf(0, sink, "Reached end of input while parsing %s", what)
	return diag.ErrFinal
}

// Reject reports a malformed value at the cursor, skips its n bytes and
// returns diag.ErrRecoverable. Skipping keeps the cursor in a position where
// the enclosing composite can continue.
func Reject(s *scanner.Scanner, sink diag.Sink, n int, format string, args ...any) error {
	s.Errorf(0, sink, format, args...)
	if err := s.Consume(n, sink); err != nil {
		return err
	}
	return diag.ErrRecoverable
}

// Token returns the bare scalar token at the start of text: everything up to
// the first whitespace or closing punctuation.
func Token(text string) string {
	end := strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",)]}", r)
	})
	if end < 0 {
		return text
	}
	return text[:end]
}

func typeMismatch(t Type, v any) error {
	return fmt.Errorf("%s: unexpected value of type %T", t.Name(), v)
}
