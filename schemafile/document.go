package schemafile

// Document is the decoded form of a descriptor file. The same structure is
// read from HCL blocks, YAML mappings and TOML tables.
//
// In HCL:
//
//	root = "Server"
//
//	record "Server" {
//	  field "host" { type = "string" }
//	  field "port" {
//	    type    = "uint16"
//	    default = "8080"
//	  }
//	  field "mode" { type = "Mode" }
//	}
//
//	union "Mode" {
//	  default = "Off"
//	  variant "Off" {}
//	  variant "Fixed" { elems = ["int"] }
//	}
//
// Default values are literals of the configuration language, so a string
// default carries its own quotes: default = "\"localhost\"".
type Document struct {
	Root    string        `hcl:"root,optional" yaml:"root" toml:"root"`
	Records []*RecordDecl `hcl:"record,block" yaml:"records" toml:"records"`
	Tuples  []*TupleDecl  `hcl:"tuple,block" yaml:"tuples" toml:"tuples"`
	Unions  []*UnionDecl  `hcl:"union,block" yaml:"unions" toml:"unions"`
}

// RecordDecl declares a record type.
type RecordDecl struct {
	Name    string       `hcl:"name,label" yaml:"name" toml:"name"`
	Default string       `hcl:"default,optional" yaml:"default" toml:"default"`
	Fields  []*FieldDecl `hcl:"field,block" yaml:"fields" toml:"fields"`
}

// TupleDecl declares a tuple type; Elems are type expressions.
type TupleDecl struct {
	Name    string   `hcl:"name,label" yaml:"name" toml:"name"`
	Default string   `hcl:"default,optional" yaml:"default" toml:"default"`
	Elems   []string `hcl:"elems,optional" yaml:"elems" toml:"elems"`
}

// UnionDecl declares a union type.
type UnionDecl struct {
	Name         string         `hcl:"name,label" yaml:"name" toml:"name"`
	Default      string         `hcl:"default,optional" yaml:"default" toml:"default"`
	LongestMatch bool           `hcl:"longest_match,optional" yaml:"longest_match" toml:"longest_match"`
	Variants     []*VariantDecl `hcl:"variant,block" yaml:"variants" toml:"variants"`
}

// VariantDecl declares a union variant. At most one of Elems and Fields may
// be set; with neither the variant is a unit variant.
type VariantDecl struct {
	Name   string       `hcl:"name,label" yaml:"name" toml:"name"`
	Elems  []string     `hcl:"elems,optional" yaml:"elems" toml:"elems"`
	Fields []*FieldDecl `hcl:"field,block" yaml:"fields" toml:"fields"`
}

// FieldDecl declares a named field of a record or variant.
type FieldDecl struct {
	Name    string `hcl:"name,label" yaml:"name" toml:"name"`
	Type    string `hcl:"type" yaml:"type" toml:"type"`
	Default string `hcl:"default,optional" yaml:"default" toml:"default"`
}
