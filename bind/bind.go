// Package bind derives type descriptors from Go types and stores parsed
// values into Go values of those types.
//
// The mapping follows the Go type:
//
//	string, bool, int*, uint*, float*  scalars of the same name (float32 reads as float64)
//	int32 with the "char" tag option   char
//	netip.Addr                         ipv4
//	slog.Level                         loglevel
//	*T                                 optional<T>, nil is None
//	[]T                                list<T>
//	[N]T                               array<T, N>
//	struct                             record of its exported fields
//	struct embedding Tuple             tuple of its exported fields, in order
//	struct embedding Union             union, one variant per pointer field
//
// Struct fields are named by the cfg tag, or by the snake_case form of the Go
// name. A default tag holds a default literal in the configuration language:
//
//	type Server struct {
//		Host string   `cfg:"host" default:"\"localhost\""`
//		Port uint16   `default:"8080"`
//		Sep  int32    `cfg:"sep,char" default:"','"`
//		Skip bool     `cfg:"-"`
//	}
//
// A union variant field points to its payload: struct{} for a unit variant,
// a struct embedding Tuple for a positional one, any other record struct for
// a named one, and any other type, unions included, for a single positional
// element. Variant names are the cfg tag or the Go field name unchanged. A
// record or tuple payload keeps its Merger for repeated occurrences of the
// variant.
//
// Types implementing Unmarshaler take over both their descriptor and their
// assignment.
package bind

import (
	"fmt"
	"log/slog"
	"net/netip"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/vk/tyconf/schema"
	"github.com/vk/tyconf/value"
)

// Tuple is embedded in a struct to read it positionally.
type Tuple struct{}

// Union is embedded in a struct to read it as a tagged union.
type Union struct{}

// Unmarshaler is implemented by types that describe their own configuration
// syntax. ConfigType is called on a zero value; UnmarshalConfig receives the
// value parsed with the returned type.
type Unmarshaler interface {
	ConfigType() value.Type
	UnmarshalConfig(v any) error
}

// Defaulter is implemented by struct types with a type-level default,
// written as a literal of the configuration language.
type Defaulter interface {
	ConfigDefault() string
}

// Merger is implemented by struct types that merge repeated occurrences
// themselves. It receives parsed values, not Go values.
type Merger interface {
	ConfigMerge(a, b any) (any, bool)
}

var (
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	defaulterType   = reflect.TypeOf((*Defaulter)(nil)).Elem()
	mergerType      = reflect.TypeOf((*Merger)(nil)).Elem()
	tupleType       = reflect.TypeOf((*Tuple)(nil)).Elem()
	unionType       = reflect.TypeOf((*Union)(nil)).Elem()
	addrType        = reflect.TypeOf((*netip.Addr)(nil)).Elem()
	levelType       = reflect.TypeOf((*slog.Level)(nil)).Elem()
)

type structKind int

const (
	recordKind structKind = iota
	tupleKind
	unionKind
)

// member binds one Go struct field to a field, element or variant.
type member struct {
	index int
	name  string
}

// plan records how a struct type maps onto its descriptor.
type plan struct {
	kind    structKind
	desc    value.Type
	members []member
	done    bool
}

// Binder caches descriptors per Go type. It is safe for concurrent use, and
// the Unmarshaler, Defaulter and Merger methods it calls may use it too.
type Binder struct {
	mu    sync.Mutex
	plans map[reflect.Type]*plan
	names map[string]bool
}

// New returns an empty Binder.
func New() *Binder {
	return &Binder{plans: make(map[reflect.Type]*plan), names: make(map[string]bool)}
}

var std = New()

// TypeOf returns the descriptor of rt using a shared cache.
func TypeOf(rt reflect.Type) (value.Type, error) {
	return std.TypeOf(rt)
}

// TypeFor returns the descriptor of T using a shared cache.
func TypeFor[T any]() (value.Type, error) {
	return std.TypeOf(reflect.TypeOf((*T)(nil)).Elem())
}

// Assign stores v, a value parsed with the descriptor of dst's element
// type, into the value dst points to.
func Assign(dst any, v any) error {
	return std.Assign(dst, v)
}

// build holds the struct plans of one TypeOf call until they are complete.
// Nothing is locked while a build runs.
type build struct {
	b      *Binder
	plans  map[reflect.Type]*plan
	order  []reflect.Type
	fixups []func()
}

// TypeOf returns the descriptor of rt. Struct descriptors are built once and
// shared, so recursive struct types resolve to themselves.
func (b *Binder) TypeOf(rt reflect.Type) (value.Type, error) {
	bd := &build{b: b, plans: make(map[reflect.Type]*plan)}
	t, err := bd.typeOf(rt, false)
	if err != nil {
		return nil, err
	}
	// Union variants whose payloads were still under construction when
	// they were first seen are completed now.
	for _, fix := range bd.fixups {
		fix()
	}
	b.commit(bd)
	if _, ok := bd.plans[rt]; ok {
		p, _ := b.cached(rt)
		return p.desc, nil
	}
	return t, nil
}

// commit publishes the plans of a finished build in creation order. When
// another build published a type first, that plan is kept and the
// duplicate only takes over its name.
func (b *Binder) commit(bd *build) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rt := range bd.order {
		p := bd.plans[rt]
		if prev, ok := b.plans[rt]; ok {
			rename(p.desc, prev.desc.Name())
			continue
		}
		rename(p.desc, b.uniqueName(rt))
		b.plans[rt] = p
	}
}

// uniqueName picks the descriptor name of rt. Descriptions list every name
// once, so a Go name already in use falls back to the package qualified
// name and then to a numbered one. Anonymous structs are "struct",
// "struct2" and so on.
func (b *Binder) uniqueName(rt reflect.Type) string {
	name := rt.Name()
	switch {
	case name == "":
		name = "struct"
	case b.names[name]:
		name = rt.String()
	}
	base := name
	for n := 2; b.names[name]; n++ {
		name = base + strconv.Itoa(n)
	}
	b.names[name] = true
	return name
}

func rename(t value.Type, name string) {
	switch d := t.(type) {
	case *schema.Record:
		d.TypeName = name
	case *schema.Tuple:
		d.TypeName = name
	case *schema.Union:
		d.TypeName = name
	}
}

func (b *Binder) cached(rt reflect.Type) (*plan, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.plans[rt]
	return p, ok
}

// planOf returns the published plan of a struct type, building it first
// when needed.
func (b *Binder) planOf(rt reflect.Type) (*plan, error) {
	if p, ok := b.cached(rt); ok {
		return p, nil
	}
	if _, err := b.TypeOf(rt); err != nil {
		return nil, err
	}
	p, _ := b.cached(rt)
	return p, nil
}

func (bd *build) typeOf(rt reflect.Type, char bool) (value.Type, error) {
	if reflect.PointerTo(rt).Implements(unmarshalerType) {
		t := reflect.New(rt).Interface().(Unmarshaler).ConfigType()
		if t == nil {
			return nil, fmt.Errorf("%s: ConfigType returned nil", rt)
		}
		return t, nil
	}

	switch rt {
	case addrType:
		return value.IPv4, nil
	case levelType:
		return value.LogLevel, nil
	}

	switch rt.Kind() {
	case reflect.String:
		return value.String, nil
	case reflect.Bool:
		return value.Bool, nil
	case reflect.Int:
		return value.Int, nil
	case reflect.Int8:
		return value.Int8, nil
	case reflect.Int16:
		return value.Int16, nil
	case reflect.Int32:
		if char {
			return value.Char, nil
		}
		return value.Int32, nil
	case reflect.Int64:
		return value.Int64, nil
	case reflect.Uint:
		return value.Uint, nil
	case reflect.Uint8:
		return value.Uint8, nil
	case reflect.Uint16:
		return value.Uint16, nil
	case reflect.Uint32:
		return value.Uint32, nil
	case reflect.Uint64:
		return value.Uint64, nil
	case reflect.Float32, reflect.Float64:
		return value.Float64, nil
	case reflect.Pointer:
		elem, err := bd.typeOf(rt.Elem(), char)
		if err != nil {
			return nil, err
		}
		return value.Optional(elem), nil
	case reflect.Slice:
		elem, err := bd.typeOf(rt.Elem(), char)
		if err != nil {
			return nil, err
		}
		return value.List(elem), nil
	case reflect.Array:
		elem, err := bd.typeOf(rt.Elem(), char)
		if err != nil {
			return nil, err
		}
		return value.Array(elem, rt.Len()), nil
	case reflect.Struct:
		p, err := bd.structPlan(rt)
		if err != nil {
			return nil, err
		}
		return p.desc, nil
	}
	return nil, fmt.Errorf("%s: unsupported kind %s", rt, rt.Kind())
}

// structPlan builds the descriptor of a struct type. The plan is recorded
// before its members are resolved, which lets members refer back to the
// struct. Its name is given on commit.
func (bd *build) structPlan(rt reflect.Type) (*plan, error) {
	if p, ok := bd.plans[rt]; ok {
		return p, nil
	}
	if p, ok := bd.b.cached(rt); ok {
		return p, nil
	}

	p := &plan{kind: recordKind}
	for i := 0; i < rt.NumField(); i++ {
		switch rt.Field(i).Type {
		case tupleType:
			p.kind = tupleKind
		case unionType:
			p.kind = unionKind
		}
	}

	var defaultLiteral string
	if reflect.PointerTo(rt).Implements(defaulterType) {
		defaultLiteral = reflect.New(rt).Interface().(Defaulter).ConfigDefault()
	}
	var merge schema.MergeFunc
	if reflect.PointerTo(rt).Implements(mergerType) {
		merge = reflect.New(rt).Interface().(Merger).ConfigMerge
	}

	bd.plans[rt] = p
	bd.order = append(bd.order, rt)
	var err error
	switch p.kind {
	case recordKind:
		rec := &schema.Record{DefaultLiteral: defaultLiteral, MergeFunc: merge}
		p.desc = rec
		rec.Fields, err = bd.fields(rt, p)
	case tupleKind:
		tup := &schema.Tuple{DefaultLiteral: defaultLiteral, MergeFunc: merge}
		p.desc = tup
		tup.Elems, err = bd.elems(rt, p)
	case unionKind:
		u := &schema.Union{DefaultLiteral: defaultLiteral, MergeFunc: merge}
		p.desc = u
		u.Variants, err = bd.variants(rt, p)
	}
	if err != nil {
		return nil, err
	}
	p.done = true
	return p, nil
}

// exported yields the struct fields that take part in binding, together
// with their parsed tags.
func exported(rt reflect.Type, fn func(i int, sf reflect.StructField, t tag) error) error {
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() || sf.Type == tupleType || sf.Type == unionType {
			continue
		}
		t := parseTag(sf)
		if t.skip {
			continue
		}
		if err := fn(i, sf, t); err != nil {
			return fmt.Errorf("%s.%s: %w", rt, sf.Name, err)
		}
	}
	return nil
}

func (bd *build) fields(rt reflect.Type, p *plan) ([]schema.Field, error) {
	var fields []schema.Field
	seen := make(map[string]bool)
	err := exported(rt, func(i int, sf reflect.StructField, t tag) error {
		name := t.name
		if name == "" {
			name = snakeCase(sf.Name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate field name %s", name)
		}
		seen[name] = true

		ft, err := bd.typeOf(sf.Type, t.char)
		if err != nil {
			return err
		}
		fields = append(fields, schema.Field{Name: name, Type: ft, Default: sf.Tag.Get("default")})
		p.members = append(p.members, member{index: i, name: name})
		return nil
	})
	return fields, err
}

func (bd *build) elems(rt reflect.Type, p *plan) ([]value.Type, error) {
	var elems []value.Type
	err := exported(rt, func(i int, sf reflect.StructField, t tag) error {
		et, err := bd.typeOf(sf.Type, t.char)
		if err != nil {
			return err
		}
		elems = append(elems, et)
		p.members = append(p.members, member{index: i})
		return nil
	})
	return elems, err
}

func (bd *build) variants(rt reflect.Type, p *plan) ([]schema.Variant, error) {
	var variants []schema.Variant
	err := exported(rt, func(i int, sf reflect.StructField, t tag) error {
		if sf.Type.Kind() != reflect.Pointer {
			return fmt.Errorf("union variant must be a pointer, got %s", sf.Type)
		}
		name := t.name
		if name == "" {
			name = sf.Name
		}
		v := schema.Variant{Name: name}

		payload := sf.Type.Elem()
		switch {
		case payload.Kind() == reflect.Struct && !reflect.PointerTo(payload).Implements(unmarshalerType):
			pp, err := bd.structPlan(payload)
			if err != nil {
				return err
			}
			if pp.kind == unionKind {
				v.Elems = []value.Type{pp.desc}
				break
			}
			if !pp.done {
				// The payload is still being built further up the stack;
				// its members are copied once it is complete.
				u, idx := p.desc.(*schema.Union), len(variants)
				bd.fixups = append(bd.fixups, func() { u.Variants[idx] = payloadVariant(name, pp) })
			}
			v = payloadVariant(name, pp)
		default:
			et, err := bd.typeOf(payload, t.char)
			if err != nil {
				return err
			}
			v.Elems = []value.Type{et}
		}
		variants = append(variants, v)
		p.members = append(p.members, member{index: i, name: name})
		return nil
	})
	if err == nil && len(variants) == 0 {
		err = fmt.Errorf("%s: union has no variants", rt)
	}
	return variants, err
}

// payloadVariant inlines a record or tuple payload into a variant. The
// payload's Merger comes along; a Defaulter does not, since a variant is
// always written out.
func payloadVariant(name string, pp *plan) schema.Variant {
	v := schema.Variant{Name: name}
	switch d := pp.desc.(type) {
	case *schema.Record:
		v.Fields, v.MergeFunc = d.Fields, d.MergeFunc
	case *schema.Tuple:
		v.Elems, v.MergeFunc = d.Elems, d.MergeFunc
	}
	return v
}

type tag struct {
	name string
	char bool
	skip bool
}

func parseTag(sf reflect.StructField) tag {
	raw, ok := sf.Tag.Lookup("cfg")
	if !ok {
		return tag{}
	}
	if raw == "-" {
		return tag{skip: true}
	}
	parts := strings.Split(raw, ",")
	t := tag{name: parts[0]}
	for _, opt := range parts[1:] {
		if opt == "char" {
			t.char = true
		}
	}
	return t
}

// snakeCase converts a Go identifier to snake_case, keeping acronyms
// together: ListenAddr -> listen_addr, HTTPPort -> http_port.
func snakeCase(name string) string {
	runes := []rune(name)
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
