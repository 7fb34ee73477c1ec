// Package schema describes composite configuration types at runtime and
// parses them.
//
// Three descriptors exist. A Record is a brace-delimited set of named fields,
// a Tuple a parenthesized list of positional elements, and a Union a set of
// keyword-tagged variants whose payload is empty, positional or named. All of
// them implement value.Type, so composites nest freely with the built-in
// types and with each other, including recursively through pointers.
//
// Parsed values are plain Go values: map[string]any for records and named
// payloads, []any for tuples and positional payloads, and Tagged for unions.
package schema

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/field"
	"github.com/vk/tyconf/scanner"
	"github.com/vk/tyconf/value"
	"github.com/zclconf/go-cty/cty"
)

// Field is a named member of a record or of a named union variant.
type Field struct {
	Name string
	Type value.Type
	// Default is an optional literal in the configuration language, parsed
	// with Type, used when the field does not occur in the input.
	Default string
}

// MergeFunc replaces the member-wise merge of a composite. It receives the
// earlier and the later occurrence and returns false on conflict.
type MergeFunc func(a, b any) (any, bool)

// Tagged is the parsed value of a union: the selected variant and its
// payload, which is nil for unit variants.
type Tagged struct {
	Variant string
	Payload any
}

func (t Tagged) String() string {
	if t.Payload == nil {
		return t.Variant
	}
	return fmt.Sprintf("%s%v", t.Variant, t.Payload)
}

func fieldTypes(fields []Field) []value.Type {
	out := make([]value.Type, len(fields))
	for i, f := range fields {
		out[i] = f.Type
	}
	return out
}

// word returns the identifier at the start of text, or its first character
// when text does not start with one. It is used for messages only.
func word(text string) string {
	end := strings.IndexFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	switch {
	case end < 0:
		return text
	case end == 0 && text != "":
		_, n := utf8.DecodeRuneInString(text)
		return text[:n]
	}
	return text[:end]
}

// parseNamed reads "{ name: value, ... }" for fields. Field names are matched
// by the longest declared name the input starts with; an unknown name is
// Final. A field may occur several times, its occurrences are merged. Every
// field is resolved before the first failure, if any, is returned, so all
// problems get reported.
func parseNamed(s *scanner.Scanner, sink diag.Sink, owner string, fields []Field) (map[string]any, error) {
	if s.IsAtEnd() {
		return nil, value.EndOfInput(s, sink, owner)
	}
	if err := s.ConsumeChar('{', sink); err != nil {
		return nil, err
	}

	states := make([]field.State, len(fields))
	for i, f := range fields {
		states[i] = field.New(f.Name, f.Type)
		if f.Default == "" {
			continue
		}
		v, err := value.ParseLiteral(f.Type, f.Default)
		if err != nil {
			s.Errorf(0, sink, "Bad default for field %s of %s: %s", f.Name, owner, err)
			return nil, diag.ErrFinal
		}
		states[i] = states[i].SetDefault(v)
	}

	var closing hcl.Range
	for {
		text, ok := s.Next()
		if !ok {
			s.Errorf(0, sink, "Reached end of input while trying to parse named values of %s", owner)
			return nil, diag.ErrFinal
		}
		if text[0] == '}' {
			closing = s.Range(0)
			if err := s.Consume(1, sink); err != nil {
				return nil, err
			}
			break
		}

		i := matchField(fields, text)
		if i < 0 {
			s.Errorf(0, sink, "Found invalid field name !%s! in %s", word(text), owner)
			return nil, diag.ErrFinal
		}
		if err := s.Consume(len(fields[i].Name), sink); err != nil {
			return nil, err
		}
		if err := s.ConsumeChar(':', sink); err != nil {
			return nil, err
		}

		v, err := fields[i].Type.Parse(s, sink)
		if states[i], err = states[i].PushFound(v, err, s, sink); err != nil {
			return nil, err
		}
		if r, ok := s.PeekChar(); ok && r == ',' {
			if err := s.Consume(1, sink); err != nil {
				return nil, err
			}
		}
	}

	// Fields that cannot be resolved are reported against the closing brace.
	diag.Locate(sink, closing)
	out := make(map[string]any, len(fields))
	var failed error
	for i, st := range states {
		v, err := st.Value(sink)
		if err != nil {
			if failed == nil {
				failed = err
			}
			continue
		}
		out[fields[i].Name] = v
	}
	if failed != nil {
		return nil, failed
	}
	return out, nil
}

// matchField returns the index of the longest field name text starts with.
func matchField(fields []Field, text string) int {
	best := -1
	for i, f := range fields {
		if strings.HasPrefix(text, f.Name) && (best < 0 || len(f.Name) > len(fields[best].Name)) {
			best = i
		}
	}
	return best
}

// parseOrdered reads "( value, ... )" with exactly one value per element
// type. A recoverable element error does not stop the remaining elements
// from being read.
func parseOrdered(s *scanner.Scanner, sink diag.Sink, owner string, elems []value.Type) ([]any, error) {
	if s.IsAtEnd() {
		return nil, value.EndOfInput(s, sink, owner)
	}
	if err := s.ConsumeChar('(', sink); err != nil {
		return nil, err
	}

	out := make([]any, len(elems))
	var failed error
	for i, t := range elems {
		if i > 0 {
			if err := s.ConsumeChar(',', sink); err != nil {
				return nil, err
			}
		}
		v, err := t.Parse(s, sink)
		switch {
		case diag.IsFinal(err):
			return nil, err
		case err != nil:
			failed = err
		default:
			out[i] = v
		}
	}
	if err := s.ConsumeChar(')', sink); err != nil {
		return nil, err
	}
	if failed != nil {
		return nil, failed
	}
	return out, nil
}

// defaultNamed builds a value from field defaults: the literal when one is
// declared, the type default otherwise.
func defaultNamed(fields []Field) (map[string]any, bool) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Default != "" {
			v, err := value.ParseLiteral(f.Type, f.Default)
			if err != nil {
				return nil, false
			}
			out[f.Name] = v
			continue
		}
		v, ok := f.Type.Default()
		if !ok {
			return nil, false
		}
		out[f.Name] = v
	}
	return out, true
}

func defaultOrdered(elems []value.Type) ([]any, bool) {
	out := make([]any, len(elems))
	for i, t := range elems {
		v, ok := t.Default()
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func mergeNamed(fields []Field, a, b any) (any, bool) {
	x, ok1 := a.(map[string]any)
	y, ok2 := b.(map[string]any)
	if !ok1 || !ok2 {
		return nil, false
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, ok := f.Type.Merge(x[f.Name], y[f.Name])
		if !ok {
			return nil, false
		}
		out[f.Name] = v
	}
	return out, true
}

func mergeOrdered(elems []value.Type, a, b any) (any, bool) {
	x, ok1 := a.([]any)
	y, ok2 := b.([]any)
	if !ok1 || !ok2 || len(x) != len(elems) || len(y) != len(elems) {
		return nil, false
	}
	out := make([]any, len(elems))
	for i, t := range elems {
		v, ok := t.Merge(x[i], y[i])
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func describeNamed(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + ": " + f.Type.Name()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func describeOrdered(elems []value.Type) string {
	parts := make([]string, len(elems))
	for i, t := range elems {
		parts[i] = t.Name()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func namedCtyType(fields []Field) cty.Type {
	attrs := make(map[string]cty.Type, len(fields))
	for _, f := range fields {
		ct := f.Type.CtyType()
		if ct == cty.DynamicPseudoType {
			return cty.DynamicPseudoType
		}
		attrs[f.Name] = ct
	}
	return cty.Object(attrs)
}

func orderedCtyType(elems []value.Type) cty.Type {
	types := make([]cty.Type, len(elems))
	for i, t := range elems {
		ct := t.CtyType()
		if ct == cty.DynamicPseudoType {
			return cty.DynamicPseudoType
		}
		types[i] = ct
	}
	return cty.Tuple(types)
}

func namedToCty(owner string, fields []Field, v any) (cty.Value, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return cty.NilVal, fmt.Errorf("%s: unexpected value of type %T", owner, v)
	}
	attrs := make(map[string]cty.Value, len(fields))
	for _, f := range fields {
		cv, err := f.Type.ToCty(m[f.Name])
		if err != nil {
			return cty.NilVal, fmt.Errorf("%s.%s: %w", owner, f.Name, err)
		}
		attrs[f.Name] = cv
	}
	return cty.ObjectVal(attrs), nil
}

func orderedToCty(owner string, elems []value.Type, v any) (cty.Value, error) {
	items, ok := v.([]any)
	if !ok || len(items) != len(elems) {
		return cty.NilVal, fmt.Errorf("%s: unexpected value %v", owner, v)
	}
	vals := make([]cty.Value, len(elems))
	for i, t := range elems {
		cv, err := t.ToCty(items[i])
		if err != nil {
			return cty.NilVal, fmt.Errorf("%s[%d]: %w", owner, i, err)
		}
		vals[i] = cv
	}
	return cty.TupleVal(vals), nil
}
