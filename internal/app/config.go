package app

import "errors"

// Config holds everything an App needs for one check.
type Config struct {
	SchemaPath string // hcl, yaml or toml descriptor document
	ConfigPath string // configuration file to check
	TypeName   string // schema type to check against; the document root if empty

	Describe   bool // print the grammar of the type instead of checking
	JSON       bool // print the parsed value as JSON
	NoIncludes bool
	Extension  string

	LogFormat      string
	LogLevel       string
	LogDiagnostics bool // also log each diagnostic through the logger
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.SchemaPath == "" {
		return nil, errors.New("SchemaPath is a required configuration field and cannot be empty")
	}
	if cfg.ConfigPath == "" && !cfg.Describe {
		return nil, errors.New("ConfigPath is required unless the schema is only described")
	}
	if cfg.Describe && cfg.JSON {
		return nil, errors.New("Describe and JSON cannot be combined")
	}
	return &cfg, nil
}
