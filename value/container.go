package value

import (
	"fmt"
	"strings"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/zclconf/go-cty/cty"
)

// Option is the parsed value of an optional type. The zero value is None.
type Option struct {
	Value   any
	Present bool
}

// Some returns a present Option holding v.
func Some(v any) Option {
	return Option{Value: v, Present: true}
}

func (o Option) String() string {
	if !o.Present {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.Value)
}

// Optional returns the type "Some(T) | None" for elem.
func Optional(elem Type) Type {
	return optionalType{elem: elem}
}

type optionalType struct {
	elem Type
}

func (t optionalType) Children() []Type { return []Type{t.elem} }

func (t optionalType) Name() string { return "optional<" + t.elem.Name() + ">" }

func (t optionalType) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	text, ok := s.Next()
	if !ok {
		return nil, EndOfInput(s, sink, t.Name())
	}
	switch {
	case strings.HasPrefix(text, "None"):
		if err := s.Consume(len("None"), sink); err != nil {
			return nil, err
		}
		return Option{}, nil
	case strings.HasPrefix(text, "Some"):
		if err := s.Consume(len("Some"), sink); err != nil {
			return nil, err
		}
		if err := s.ConsumeChar('(', sink); err != nil {
			return nil, err
		}
		v, err := t.elem.Parse(s, sink)
		if diag.IsFinal(err) {
			return nil, err
		}
		if err := s.ConsumeChar(')', sink); err != nil {
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		return Some(v), nil
	}
	s.Errorf(0, sink, "Expected Some(%s) or None", t.elem.Name())
	return nil, diag.ErrFinal
}

// Default wraps the element default in Some when there is one and is None
// otherwise, so an optional always has a default.
func (t optionalType) Default() (any, bool) {
	if v, ok := t.elem.Default(); ok {
		return Some(v), true
	}
	return Option{}, true
}

// Merge lets None absorb into the other side and merges two present values
// with the element type.
func (t optionalType) Merge(a, b any) (any, bool) {
	x, ok1 := a.(Option)
	y, ok2 := b.(Option)
	switch {
	case !ok1 || !ok2:
		return nil, false
	case !x.Present:
		return y, true
	case !y.Present:
		return x, true
	}
	v, ok := t.elem.Merge(x.Value, y.Value)
	if !ok {
		return nil, false
	}
	return Some(v), true
}

func (t optionalType) Describe(d *Describer) {
	d.Line("%s: Some(%s) | None", t.Name(), t.elem.Name())
	d.Visit(t.elem)
}

func (t optionalType) CtyType() cty.Type { return t.elem.CtyType() }

// ToCty maps None to a null of the element type and Some to its payload.
func (t optionalType) ToCty(v any) (cty.Value, error) {
	o, ok := v.(Option)
	if !ok {
		return cty.NilVal, typeMismatch(t, v)
	}
	if !o.Present {
		return cty.NullVal(t.elem.CtyType()), nil
	}
	return t.elem.ToCty(o.Value)
}

// List returns the type "[ T, T, ... ]" for elem. Parsed lists are []any.
func List(elem Type) Type {
	return listType{elem: elem}
}

type listType struct {
	elem Type
}

func (t listType) Children() []Type { return []Type{t.elem} }

func (t listType) Name() string { return "list<" + t.elem.Name() + ">" }

// Parse reads a bracketed, comma separated sequence. A trailing comma is
// allowed. An element that fails recoverably does not stop the remaining
// elements from being read; the list as a whole then fails recoverably.
func (t listType) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	if s.IsAtEnd() {
		return nil, EndOfInput(s, sink, t.Name())
	}
	if err := s.ConsumeChar('[', sink); err != nil {
		return nil, err
	}

	out := []any{}
	var failed error
	for first := true; ; first = false {
		if s.IsAtEnd() {
			s.Errorf(0, sink, "Reached end of input while reading %s", t.Name())
			return nil, diag.ErrFinal
		}
		if r, _ := s.PeekChar(); r == ']' {
			if err := s.Consume(1, sink); err != nil {
				return nil, err
			}
			break
		}
		if !first {
			if err := s.ConsumeChar(',', sink); err != nil {
				return nil, err
			}
			if r, _ := s.PeekChar(); r == ']' {
				continue
			}
		}

		v, err := t.elem.Parse(s, sink)
		switch {
		case diag.IsFinal(err):
			return nil, err
		case err != nil:
			failed = err
		default:
			out = append(out, v)
		}
	}
	if failed != nil {
		return nil, failed
	}
	return out, nil
}

func (listType) Default() (any, bool) { return []any{}, true }

// Merge concatenates; lists never conflict.
func (listType) Merge(a, b any) (any, bool) {
	x, ok1 := a.([]any)
	y, ok2 := b.([]any)
	if !ok1 || !ok2 {
		return nil, false
	}
	out := make([]any, 0, len(x)+len(y))
	out = append(out, x...)
	return append(out, y...), true
}

func (t listType) Describe(d *Describer) {
	e := t.elem.Name()
	d.Line("%s: [ %s, %s, ... ]", t.Name(), e, e)
	d.Visit(t.elem)
}

func (t listType) CtyType() cty.Type { return sequenceType(t.elem) }

func (t listType) ToCty(v any) (cty.Value, error) {
	return sequenceToCty(t, t.elem, v)
}

// Array returns the fixed-size type "[ T, ... ]" of exactly n elements.
// Parsed arrays are []any.
func Array(elem Type, n int) Type {
	return arrayType{elem: elem, n: n}
}

type arrayType struct {
	elem Type
	n    int
}

func (t arrayType) Children() []Type { return []Type{t.elem} }

func (t arrayType) Name() string { return fmt.Sprintf("array<%s, %d>", t.elem.Name(), t.n) }

func (t arrayType) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	v, err := List(t.elem).Parse(s, sink)
	if err != nil {
		return nil, err
	}
	if got := len(v.([]any)); got != t.n {
		s.Errorf(0, sink, "Expected array of size %d, got array of size: %d", t.n, got)
		return nil, diag.ErrRecoverable
	}
	return v, nil
}

// Default needs a type-level default for every element.
func (t arrayType) Default() (any, bool) {
	out := make([]any, t.n)
	for i := range out {
		v, ok := t.elem.Default()
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Merge always conflicts: a fixed-size value cannot absorb a second one.
func (arrayType) Merge(any, any) (any, bool) { return nil, false }

func (t arrayType) Describe(d *Describer) {
	elems := make([]string, t.n)
	for i := range elems {
		elems[i] = t.elem.Name()
	}
	d.Line("%s: [ %s ]", t.Name(), strings.Join(elems, ", "))
	d.Visit(t.elem)
}

func (t arrayType) CtyType() cty.Type { return sequenceType(t.elem) }

func (t arrayType) ToCty(v any) (cty.Value, error) {
	return sequenceToCty(t, t.elem, v)
}

func sequenceType(elem Type) cty.Type {
	et := elem.CtyType()
	if et == cty.DynamicPseudoType {
		return cty.DynamicPseudoType
	}
	return cty.List(et)
}

// sequenceToCty converts a parsed list. Elements of differing cty types, as
// produced by unions, become a tuple instead of a list.
func sequenceToCty(t Type, elem Type, v any) (cty.Value, error) {
	items, ok := v.([]any)
	if !ok {
		return cty.NilVal, typeMismatch(t, v)
	}
	if len(items) == 0 {
		if et := elem.CtyType(); et != cty.DynamicPseudoType {
			return cty.ListValEmpty(et), nil
		}
		return cty.EmptyTupleVal, nil
	}

	vals := make([]cty.Value, len(items))
	uniform := true
	for i, item := range items {
		cv, err := elem.ToCty(item)
		if err != nil {
			return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
		}
		vals[i] = cv
		if !cv.Type().Equals(vals[0].Type()) {
			uniform = false
		}
	}
	if uniform {
		return cty.ListVal(vals), nil
	}
	return cty.TupleVal(vals), nil
}
