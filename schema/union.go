package schema

import (
	"fmt"
	"strings"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/vk/tyconf/value"
	"github.com/zclconf/go-cty/cty"
)

// Variant is one alternative of a union. It is a unit variant when neither
// Elems nor Fields is set, a positional variant "Name(a, b)" when Elems is
// set, and a named variant "Name { a: x }" when Fields is set. MergeFunc,
// when set, merges the payloads of two occurrences of the variant.
type Variant struct {
	Name      string
	Elems     []value.Type
	Fields    []Field
	MergeFunc MergeFunc
}

func (v Variant) named() bool { return len(v.Fields) > 0 }
func (v Variant) unit() bool  { return len(v.Elems) == 0 && len(v.Fields) == 0 }

func (v Variant) describe() string {
	switch {
	case v.named():
		return v.Name + describeNamed(v.Fields)
	case v.unit():
		return v.Name
	}
	return v.Name + describeOrdered(v.Elems)
}

// Union is a tagged union of variants selected by keyword.
//
// The keyword is matched as a prefix of the input. By default the first
// declared variant whose name the input starts with wins, so with variants
// Foo and FooBar declared in that order, "FooBar" selects Foo and leaves
// "Bar" in the input. LongestMatch selects the longest matching name
// instead.
type Union struct {
	TypeName       string
	Variants       []Variant
	DefaultLiteral string
	MergeFunc      MergeFunc
	LongestMatch   bool
}

var _ value.Type = (*Union)(nil)

func (u *Union) Name() string { return u.TypeName }

// Parse reads a variant keyword and its payload and returns a Tagged value.
func (u *Union) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	text, ok := s.Next()
	if !ok {
		return nil, value.EndOfInput(s, sink, u.TypeName)
	}
	i := u.match(text)
	if i < 0 {
		s.Errorf(0, sink, "Found invalid variant !%s! for %s, expected %s", word(text), u.TypeName, u.grammar())
		return nil, diag.ErrFinal
	}
	v := u.Variants[i]
	if err := s.Consume(len(v.Name), sink); err != nil {
		return nil, err
	}

	owner := u.TypeName + "::" + v.Name
	switch {
	case v.unit():
		return Tagged{Variant: v.Name}, nil
	case v.named():
		m, err := parseNamed(s, sink, owner, v.Fields)
		if err != nil {
			return nil, err
		}
		return Tagged{Variant: v.Name, Payload: m}, nil
	}
	items, err := parseOrdered(s, sink, owner, v.Elems)
	if err != nil {
		return nil, err
	}
	return Tagged{Variant: v.Name, Payload: items}, nil
}

func (u *Union) match(text string) int {
	best := -1
	for i, v := range u.Variants {
		if !strings.HasPrefix(text, v.Name) {
			continue
		}
		if !u.LongestMatch {
			return i
		}
		if best < 0 || len(v.Name) > len(u.Variants[best].Name) {
			best = i
		}
	}
	return best
}

func (u *Union) variant(name string) (Variant, bool) {
	for _, v := range u.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

func (u *Union) grammar() string {
	parts := make([]string, len(u.Variants))
	for i, v := range u.Variants {
		parts[i] = v.describe()
	}
	return strings.Join(parts, " | ")
}

// Children returns the payload types of all variants.
func (u *Union) Children() []value.Type {
	var out []value.Type
	for _, v := range u.Variants {
		out = append(out, v.Elems...)
		out = append(out, fieldTypes(v.Fields)...)
	}
	return out
}

// Default is DefaultLiteral when set; a union has no default otherwise.
func (u *Union) Default() (any, bool) {
	if u.DefaultLiteral == "" {
		return nil, false
	}
	v, err := value.ParseLiteral(u, u.DefaultLiteral)
	return v, err == nil
}

// Merge merges the payloads of two occurrences of the same variant and
// conflicts across variants, unless MergeFunc is set.
func (u *Union) Merge(a, b any) (any, bool) {
	if u.MergeFunc != nil {
		return u.MergeFunc(a, b)
	}
	x, ok1 := a.(Tagged)
	y, ok2 := b.(Tagged)
	if !ok1 || !ok2 || x.Variant != y.Variant {
		return nil, false
	}
	v, ok := u.variant(x.Variant)
	if !ok {
		return nil, false
	}

	var payload any
	switch {
	case v.unit():
		return x, true
	case v.MergeFunc != nil:
		payload, ok = v.MergeFunc(x.Payload, y.Payload)
	case v.named():
		payload, ok = mergeNamed(v.Fields, x.Payload, y.Payload)
	default:
		payload, ok = mergeOrdered(v.Elems, x.Payload, y.Payload)
	}
	if !ok {
		return nil, false
	}
	return Tagged{Variant: x.Variant, Payload: payload}, true
}

// Describe emits "Name: A | B(T) | C{x: U}" and visits the payload types.
func (u *Union) Describe(d *value.Describer) {
	d.Line("%s: %s", u.TypeName, u.grammar())
	for _, v := range u.Variants {
		for _, e := range v.Elems {
			d.Visit(e)
		}
		for _, f := range v.Fields {
			d.Visit(f.Type)
		}
	}
}

// CtyType is dynamic: each variant converts to a differently shaped object.
func (u *Union) CtyType() cty.Type { return cty.DynamicPseudoType }

// ToCty converts a Tagged value to an object with a single attribute named
// after the variant, holding the payload: an empty object for unit
// variants, a tuple for positional ones and an object for named ones.
func (u *Union) ToCty(v any) (cty.Value, error) {
	t, ok := v.(Tagged)
	if !ok {
		return cty.NilVal, fmt.Errorf("%s: unexpected value of type %T", u.TypeName, v)
	}
	vr, ok := u.variant(t.Variant)
	if !ok {
		return cty.NilVal, fmt.Errorf("%s: unknown variant %q", u.TypeName, t.Variant)
	}

	owner := u.TypeName + "::" + vr.Name
	payload := cty.EmptyObjectVal
	var err error
	switch {
	case vr.named():
		payload, err = namedToCty(owner, vr.Fields, t.Payload)
	case !vr.unit():
		payload, err = orderedToCty(owner, vr.Elems, t.Payload)
	}
	if err != nil {
		return cty.NilVal, err
	}
	return cty.ObjectVal(map[string]cty.Value{vr.Name: payload}), nil
}
