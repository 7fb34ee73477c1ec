package schema

import (
	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/vk/tyconf/value"
	"github.com/zclconf/go-cty/cty"
)

// Record is a composite with named fields, written "{ name: value, ... }".
type Record struct {
	TypeName string
	Fields   []Field
	// DefaultLiteral, when set, is the type default of the record, written
	// in the configuration language. Otherwise the record defaults field by
	// field.
	DefaultLiteral string
	// MergeFunc, when set, replaces the field-wise merge.
	MergeFunc MergeFunc
}

var _ value.Type = (*Record)(nil)

// Name returns the type name.
func (r *Record) Name() string { return r.TypeName }

// Parse reads a brace-delimited record and returns map[string]any.
func (r *Record) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	m, err := parseNamed(s, sink, r.TypeName, r.Fields)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Children returns the field types.
func (r *Record) Children() []value.Type { return fieldTypes(r.Fields) }

// Default returns the record default: DefaultLiteral when set, otherwise a
// record of field defaults if every field has one. A recursive record has no
// field-wise default.
func (r *Record) Default() (any, bool) {
	if r.DefaultLiteral != "" {
		v, err := value.ParseLiteral(r, r.DefaultLiteral)
		return v, err == nil
	}
	if value.Recursive(r) {
		return nil, false
	}
	m, ok := defaultNamed(r.Fields)
	if !ok {
		return nil, false
	}
	return m, true
}

// Merge merges two records field by field unless MergeFunc is set.
func (r *Record) Merge(a, b any) (any, bool) {
	if r.MergeFunc != nil {
		return r.MergeFunc(a, b)
	}
	return mergeNamed(r.Fields, a, b)
}

// Describe emits "Name: {a: T, b: U}" and visits the field types.
func (r *Record) Describe(d *value.Describer) {
	d.Line("%s: %s", r.TypeName, describeNamed(r.Fields))
	for _, f := range r.Fields {
		d.Visit(f.Type)
	}
}

// CtyType is an object type, or cty.DynamicPseudoType when the record is
// recursive or a field has no static cty type.
func (r *Record) CtyType() cty.Type {
	if value.Recursive(r) {
		return cty.DynamicPseudoType
	}
	return namedCtyType(r.Fields)
}

// ToCty converts a parsed record to an object.
func (r *Record) ToCty(v any) (cty.Value, error) {
	return namedToCty(r.TypeName, r.Fields, v)
}
