package bind

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"reflect"

	"github.com/vk/tyconf/schema"
	"github.com/vk/tyconf/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrInvalidTarget is returned when Assign is not given a non-nil pointer.
var ErrInvalidTarget = errors.New("assign target must be a non-nil pointer")

// Assign stores v, a value parsed with the descriptor of dst's element type,
// into the value dst points to.
func (b *Binder) Assign(dst any, v any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w, got %T", ErrInvalidTarget, dst)
	}
	if _, err := b.TypeOf(rv.Elem().Type()); err != nil {
		return err
	}
	return b.assign(rv.Elem(), v)
}

func (b *Binder) assign(dst reflect.Value, v any) error {
	rt := dst.Type()
	if reflect.PointerTo(rt).Implements(unmarshalerType) {
		return dst.Addr().Interface().(Unmarshaler).UnmarshalConfig(v)
	}

	switch rt {
	case addrType:
		a, ok := v.(netip.Addr)
		if !ok {
			return mismatch(rt, v)
		}
		dst.Set(reflect.ValueOf(a))
		return nil
	case levelType:
		l, ok := v.(slog.Level)
		if !ok {
			return mismatch(rt, v)
		}
		dst.Set(reflect.ValueOf(l))
		return nil
	}

	switch rt.Kind() {
	case reflect.Pointer:
		o, ok := v.(value.Option)
		if !ok {
			return mismatch(rt, v)
		}
		if !o.Present {
			dst.SetZero()
			return nil
		}
		elem := reflect.New(rt.Elem())
		if err := b.assign(elem.Elem(), o.Value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil

	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			return mismatch(rt, v)
		}
		s := reflect.MakeSlice(rt, len(items), len(items))
		for i, item := range items {
			if err := b.assign(s.Index(i), item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(s)
		return nil

	case reflect.Array:
		items, ok := v.([]any)
		if !ok || len(items) != rt.Len() {
			return mismatch(rt, v)
		}
		for i, item := range items {
			if err := b.assign(dst.Index(i), item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil

	case reflect.Struct:
		return b.assignStruct(dst, v)

	case reflect.Int32:
		// Chars arrive as runes, which gocty would otherwise have to
		// round-trip through a number.
		if r, ok := v.(rune); ok {
			dst.SetInt(int64(r))
			return nil
		}
	}
	return assignScalar(dst, v)
}

// assignScalar converts through cty, which checks numeric ranges for the
// destination kind. A scalar of another kind, as produced by a schema that
// was not derived from dst's type, is converted to the kind dst implies
// first, so 8080 fills a string field as "8080".
func assignScalar(dst reflect.Value, v any) error {
	var cv cty.Value
	switch x := v.(type) {
	case string:
		cv = cty.StringVal(x)
	case bool:
		cv = cty.BoolVal(x)
	case float64:
		cv = cty.NumberFloatVal(x)
	default:
		rv := reflect.ValueOf(v)
		switch {
		case rv.CanInt():
			cv = cty.NumberIntVal(rv.Int())
		case rv.CanUint():
			cv = cty.NumberUIntVal(rv.Uint())
		default:
			return mismatch(dst.Type(), v)
		}
	}
	if want, err := gocty.ImpliedType(dst.Interface()); err == nil && !cv.Type().Equals(want) {
		if cv, err = convert.Convert(cv, want); err != nil {
			return fmt.Errorf("%s: %w", dst.Type(), err)
		}
	}
	if err := gocty.FromCtyValue(cv, dst.Addr().Interface()); err != nil {
		return fmt.Errorf("%s: %w", dst.Type(), err)
	}
	return nil
}

func (b *Binder) assignStruct(dst reflect.Value, v any) error {
	rt := dst.Type()
	p, err := b.planOf(rt)
	if err != nil {
		return err
	}

	switch p.kind {
	case recordKind:
		m, ok := v.(map[string]any)
		if !ok {
			return mismatch(rt, v)
		}
		return b.assignNamed(dst, p, m)

	case tupleKind:
		items, ok := v.([]any)
		if !ok {
			return mismatch(rt, v)
		}
		return b.assignOrdered(dst, p, items)
	}

	t, ok := v.(schema.Tagged)
	if !ok {
		return mismatch(rt, v)
	}
	dst.SetZero()
	for _, m := range p.members {
		if m.name != t.Variant {
			continue
		}
		f := dst.Field(m.index)
		payload := reflect.New(f.Type().Elem())
		if err := b.assignPayload(payload.Elem(), t.Payload); err != nil {
			return fmt.Errorf("%s::%s: %w", rt.Name(), t.Variant, err)
		}
		f.Set(payload)
		return nil
	}
	return fmt.Errorf("%s: unknown variant %q", rt, t.Variant)
}

// assignPayload stores a variant payload. Record and tuple payloads are read
// the way the variant was built: fields from a map, elements from a slice.
// Other payload types were wrapped as a single positional element.
func (b *Binder) assignPayload(dst reflect.Value, payload any) error {
	rt := dst.Type()
	if rt.Kind() == reflect.Struct && !reflect.PointerTo(rt).Implements(unmarshalerType) {
		p, err := b.planOf(rt)
		if err != nil {
			return err
		}
		if p.kind == unionKind {
			return b.assignElement(dst, payload)
		}
		switch x := payload.(type) {
		case nil:
			return nil
		case map[string]any:
			return b.assignNamed(dst, p, x)
		case []any:
			return b.assignOrdered(dst, p, x)
		}
		return mismatch(rt, payload)
	}

	return b.assignElement(dst, payload)
}

func (b *Binder) assignElement(dst reflect.Value, payload any) error {
	items, ok := payload.([]any)
	if !ok || len(items) != 1 {
		return mismatch(dst.Type(), payload)
	}
	return b.assign(dst, items[0])
}

func (b *Binder) assignNamed(dst reflect.Value, p *plan, m map[string]any) error {
	for _, mem := range p.members {
		fv, ok := m[mem.name]
		if !ok {
			continue
		}
		if err := b.assign(dst.Field(mem.index), fv); err != nil {
			return fmt.Errorf("%s.%s: %w", dst.Type(), mem.name, err)
		}
	}
	return nil
}

func (b *Binder) assignOrdered(dst reflect.Value, p *plan, items []any) error {
	if len(items) != len(p.members) {
		return mismatch(dst.Type(), items)
	}
	for i, mem := range p.members {
		if err := b.assign(dst.Field(mem.index), items[i]); err != nil {
			return fmt.Errorf("%s[%d]: %w", dst.Type(), i, err)
		}
	}
	return nil
}

func mismatch(rt reflect.Type, v any) error {
	return fmt.Errorf("cannot assign %T to %s", v, rt)
}
