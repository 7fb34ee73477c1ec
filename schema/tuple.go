package schema

import (
	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/vk/tyconf/value"
	"github.com/zclconf/go-cty/cty"
)

// Tuple is a composite with positional elements, written "( value, ... )".
type Tuple struct {
	TypeName       string
	Elems          []value.Type
	DefaultLiteral string
	MergeFunc      MergeFunc
}

var _ value.Type = (*Tuple)(nil)

func (t *Tuple) Name() string { return t.TypeName }

// Parse reads a parenthesized tuple and returns []any.
func (t *Tuple) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	items, err := parseOrdered(s, sink, t.TypeName, t.Elems)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (t *Tuple) Children() []value.Type { return t.Elems }

func (t *Tuple) Default() (any, bool) {
	if t.DefaultLiteral != "" {
		v, err := value.ParseLiteral(t, t.DefaultLiteral)
		return v, err == nil
	}
	if value.Recursive(t) {
		return nil, false
	}
	items, ok := defaultOrdered(t.Elems)
	if !ok {
		return nil, false
	}
	return items, true
}

func (t *Tuple) Merge(a, b any) (any, bool) {
	if t.MergeFunc != nil {
		return t.MergeFunc(a, b)
	}
	return mergeOrdered(t.Elems, a, b)
}

func (t *Tuple) Describe(d *value.Describer) {
	d.Line("%s: %s", t.TypeName, describeOrdered(t.Elems))
	for _, e := range t.Elems {
		d.Visit(e)
	}
}

func (t *Tuple) CtyType() cty.Type {
	if value.Recursive(t) {
		return cty.DynamicPseudoType
	}
	return orderedCtyType(t.Elems)
}

func (t *Tuple) ToCty(v any) (cty.Value, error) {
	return orderedToCty(t.TypeName, t.Elems, v)
}
