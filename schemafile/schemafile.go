// Package schemafile loads type descriptors from declaration documents
// written in HCL, YAML or TOML, so configuration schemas can be defined
// without Go code.
//
// Declared types may refer to each other by name in any order, and to
// themselves, as long as the reference goes through a container that can be
// empty (optional or list).
package schemafile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tyconf/internal/ctxlog"
	"github.com/vk/tyconf/schema"
	"github.com/vk/tyconf/value"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a descriptor document.
type Format int

const (
	FormatHCL Format = iota
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatHCL:
		return "hcl"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	}
	return "unknown"
}

// ErrUnknownFormat is returned for file extensions no decoder handles.
var ErrUnknownFormat = errors.New("unknown descriptor format")

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return FormatHCL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Set is the result of loading a document: every declared type by name and
// the root type configuration files are parsed with.
type Set struct {
	types map[string]value.Type
	order []string
	root  string
}

// Lookup returns the declared type called name.
func (s *Set) Lookup(name string) (value.Type, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Names returns the declared type names in declaration order: records, then
// tuples, then unions.
func (s *Set) Names() []string {
	return s.order
}

// Root returns the root type: the one named by the document's root
// attribute, or the only declared type when there is exactly one.
func (s *Set) Root() (value.Type, error) {
	if s.root != "" {
		t, ok := s.types[s.root]
		if !ok {
			return nil, fmt.Errorf("root type %s is not declared", s.root)
		}
		return t, nil
	}
	if len(s.order) == 1 {
		return s.types[s.order[0]], nil
	}
	return nil, fmt.Errorf("document declares %d types and no root", len(s.order))
}

// Load reads and resolves the descriptor document at path. The format
// follows the file extension.
func Load(ctx context.Context, path string) (*Set, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Schema loader started.", "path", path)

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	set, err := Parse(path, data, format)
	if err != nil {
		return nil, err
	}

	logger.Debug("Schema loading complete.", "path", path, "format", format.String(), "types", len(set.order))
	return set, nil
}

// Parse decodes and resolves a descriptor document. name labels it in
// error messages.
func Parse(name string, data []byte, format Format) (*Set, error) {
	doc, err := Decode(name, data, format)
	if err != nil {
		return nil, err
	}
	return Resolve(doc)
}

// Decode decodes a document without resolving it.
func Decode(name string, data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatHCL:
		file, diags := hclparse.NewParser().ParseHCL(data, name)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", name, diags)
		}
		diags = gohcl.DecodeBody(file.Body, nil, &doc)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", name, diags)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML file %s: %w", name, err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML file %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return &doc, nil
}

// Resolve turns a decoded document into type descriptors. The first pass
// allocates one descriptor per declared name, the second fills in members,
// so references may point anywhere in the document. Field and type default
// literals are checked once everything is resolved.
func Resolve(doc *Document) (*Set, error) {
	set := &Set{types: make(map[string]value.Type), root: doc.Root}

	declare := func(name string, t value.Type) error {
		if err := checkName("type", name); err != nil {
			return err
		}
		if _, ok := Builtins[name]; ok {
			return fmt.Errorf("type %s shadows a built-in type", name)
		}
		if _, ok := set.types[name]; ok {
			return fmt.Errorf("type %s is declared more than once", name)
		}
		set.types[name] = t
		set.order = append(set.order, name)
		return nil
	}

	records := make([]*schema.Record, len(doc.Records))
	for i, d := range doc.Records {
		records[i] = &schema.Record{TypeName: d.Name, DefaultLiteral: d.Default}
		if err := declare(d.Name, records[i]); err != nil {
			return nil, err
		}
	}
	tuples := make([]*schema.Tuple, len(doc.Tuples))
	for i, d := range doc.Tuples {
		tuples[i] = &schema.Tuple{TypeName: d.Name, DefaultLiteral: d.Default}
		if err := declare(d.Name, tuples[i]); err != nil {
			return nil, err
		}
	}
	unions := make([]*schema.Union, len(doc.Unions))
	for i, d := range doc.Unions {
		unions[i] = &schema.Union{TypeName: d.Name, DefaultLiteral: d.Default, LongestMatch: d.LongestMatch}
		if err := declare(d.Name, unions[i]); err != nil {
			return nil, err
		}
	}

	var err error
	for i, d := range doc.Records {
		if records[i].Fields, err = resolveFields(set, d.Name, d.Fields); err != nil {
			return nil, err
		}
	}
	for i, d := range doc.Tuples {
		if tuples[i].Elems, err = resolveElems(set, d.Name, d.Elems); err != nil {
			return nil, err
		}
	}
	for i, d := range doc.Unions {
		if unions[i].Variants, err = resolveVariants(set, d); err != nil {
			return nil, err
		}
	}

	if err := checkDefaults(set); err != nil {
		return nil, err
	}
	if doc.Root != "" {
		if _, err := set.Root(); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func resolveFields(set *Set, owner string, decls []*FieldDecl) ([]schema.Field, error) {
	fields := make([]schema.Field, 0, len(decls))
	seen := make(map[string]bool, len(decls))
	for _, d := range decls {
		if err := checkName("field", d.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", owner, err)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("%s: field %s is declared more than once", owner, d.Name)
		}
		seen[d.Name] = true

		t, err := ParseType(d.Type, set.Lookup)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", owner, d.Name, err)
		}
		fields = append(fields, schema.Field{Name: d.Name, Type: t, Default: d.Default})
	}
	return fields, nil
}

func resolveElems(set *Set, owner string, exprs []string) ([]value.Type, error) {
	elems := make([]value.Type, len(exprs))
	for i, expr := range exprs {
		t, err := ParseType(expr, set.Lookup)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", owner, i, err)
		}
		elems[i] = t
	}
	return elems, nil
}

func resolveVariants(set *Set, d *UnionDecl) ([]schema.Variant, error) {
	if len(d.Variants) == 0 {
		return nil, fmt.Errorf("union %s has no variants", d.Name)
	}
	variants := make([]schema.Variant, 0, len(d.Variants))
	seen := make(map[string]bool, len(d.Variants))
	for _, vd := range d.Variants {
		if err := checkName("variant", vd.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", d.Name, err)
		}
		if seen[vd.Name] {
			return nil, fmt.Errorf("%s: variant %s is declared more than once", d.Name, vd.Name)
		}
		seen[vd.Name] = true
		if len(vd.Elems) > 0 && len(vd.Fields) > 0 {
			return nil, fmt.Errorf("%s::%s: a variant has either elems or fields, not both", d.Name, vd.Name)
		}

		owner := d.Name + "::" + vd.Name
		v := schema.Variant{Name: vd.Name}
		var err error
		if v.Elems, err = resolveElems(set, owner, vd.Elems); err != nil {
			return nil, err
		}
		if len(v.Elems) == 0 {
			v.Elems = nil
		}
		if len(vd.Fields) > 0 {
			if v.Fields, err = resolveFields(set, owner, vd.Fields); err != nil {
				return nil, err
			}
		}
		variants = append(variants, v)
	}
	return variants, nil
}

// checkDefaults parses every default literal with the type it belongs to.
func checkDefaults(set *Set) error {
	checkFields := func(owner string, fields []schema.Field) error {
		for _, f := range fields {
			if f.Default == "" {
				continue
			}
			if _, err := value.ParseLiteral(f.Type, f.Default); err != nil {
				return fmt.Errorf("%s.%s: bad default: %w", owner, f.Name, err)
			}
		}
		return nil
	}

	for _, name := range set.order {
		var literal string
		switch t := set.types[name].(type) {
		case *schema.Record:
			if err := checkFields(name, t.Fields); err != nil {
				return err
			}
			literal = t.DefaultLiteral
		case *schema.Tuple:
			literal = t.DefaultLiteral
		case *schema.Union:
			for _, v := range t.Variants {
				if err := checkFields(name+"::"+v.Name, v.Fields); err != nil {
					return err
				}
			}
			literal = t.DefaultLiteral
		}
		if literal == "" {
			continue
		}
		if _, err := value.ParseLiteral(set.types[name], literal); err != nil {
			return fmt.Errorf("%s: bad default: %w", name, err)
		}
	}
	return nil
}

func checkName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name is empty", kind)
	}
	for i, r := range name {
		letter := r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
		if !letter && (i == 0 || r < '0' || r > '9') {
			return fmt.Errorf("%s name %q is not an identifier", kind, name)
		}
	}
	return nil
}
