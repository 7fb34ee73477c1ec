package schemafile

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/vk/tyconf/value"
)

// Builtins maps the names of the built-in scalar types to their descriptors.
var Builtins = map[string]value.Type{
	"string":   value.String,
	"char":     value.Char,
	"bool":     value.Bool,
	"int":      value.Int,
	"int8":     value.Int8,
	"int16":    value.Int16,
	"int32":    value.Int32,
	"int64":    value.Int64,
	"uint":     value.Uint,
	"uint8":    value.Uint8,
	"uint16":   value.Uint16,
	"uint32":   value.Uint32,
	"uint64":   value.Uint64,
	"float64":  value.Float64,
	"ipv4":     value.IPv4,
	"loglevel": value.LogLevel,
}

// Lookup resolves a type name that is not a built-in.
type Lookup func(name string) (value.Type, bool)

// ParseType parses a type expression:
//
//	type  = name | "optional<" type ">" | "list<" type ">" | "array<" type "," size ">"
//
// Names are built-ins first, then whatever lookup resolves. Whitespace
// between tokens is ignored.
func ParseType(expr string, lookup Lookup) (value.Type, error) {
	p := &typeParser{text: expr, lookup: lookup}
	t, err := p.typ()
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", expr, err)
	}
	p.space()
	if p.pos < len(p.text) {
		return nil, fmt.Errorf("type %q: unexpected %q at offset %d", expr, p.text[p.pos:], p.pos)
	}
	return t, nil
}

type typeParser struct {
	text   string
	pos    int
	lookup Lookup
}

func (p *typeParser) space() {
	for p.pos < len(p.text) && unicode.IsSpace(rune(p.text[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.space()
	start := p.pos
	for p.pos < len(p.text) {
		c := rune(p.text[p.pos])
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			break
		}
		p.pos++
	}
	return p.text[start:p.pos]
}

func (p *typeParser) expect(c byte) error {
	p.space()
	if p.pos >= len(p.text) || p.text[p.pos] != c {
		return fmt.Errorf("expected '%c' at offset %d", c, p.pos)
	}
	p.pos++
	return nil
}

func (p *typeParser) typ() (value.Type, error) {
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("expected a type name at offset %d", p.pos)
	}

	switch name {
	case "optional", "list":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.typ()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		if name == "optional" {
			return value.Optional(elem), nil
		}
		return value.List(elem), nil
	case "array":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.typ()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		size := p.ident()
		n, err := strconv.Atoi(size)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid array size %q", size)
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return value.Array(elem, n), nil
	}

	if t, ok := Builtins[name]; ok {
		return t, nil
	}
	if p.lookup != nil {
		if t, ok := p.lookup(name); ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unknown type %s (built-ins are %s)", name, builtinNames())
}

func builtinNames() string {
	names := make([]string, 0, len(Builtins))
	for n := range Builtins {
		names = append(names, n)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
