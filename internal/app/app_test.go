package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serviceSchema = `
root = "Service"

record "Service" {
  field "name" { type = "string" }
  field "port" {
    type    = "uint16"
    default = "8080"
  }
  field "tags" { type = "list<string>" }
}

tuple "Window" {
  elems = ["int", "int"]
}
`

// setupApp writes the schema and config into a temp dir and returns an App
// checking them, with its output and log buffers.
func setupApp(t *testing.T, config string, edit func(*Config)) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.hcl")
	configPath := filepath.Join(dir, "service.conf")
	require.NoError(t, os.WriteFile(schemaPath, []byte(serviceSchema), 0o600))
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	cfg := Config{SchemaPath: schemaPath, ConfigPath: configPath, LogLevel: "debug", LogFormat: "text"}
	if edit != nil {
		edit(&cfg)
	}
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	return NewApp(out, logs, &cfg), out, logs
}

func TestRunValid(t *testing.T) {
	a, out, logs := setupApp(t, "{\n  name: \"api\",\n}\n", nil)

	require.NoError(t, a.Run(context.Background()))
	assert.True(t, strings.HasSuffix(out.String(), "service.conf: ok\n"), out.String())
	assert.Contains(t, logs.String(), "Configuration is valid.")
	assert.Contains(t, logs.String(), "Schema loading complete.")
	assert.Contains(t, logs.String(), "Parse finished.")
}

func TestRunJSON(t *testing.T) {
	a, out, _ := setupApp(t, `{ name: "api", tags: ["a"] }`, func(c *Config) { c.JSON = true })

	require.NoError(t, a.Run(context.Background()))
	assert.JSONEq(t, `{"name":"api","port":8080,"tags":["a"]}`, out.String())
}

func TestRunDescribe(t *testing.T) {
	a, out, _ := setupApp(t, "", func(c *Config) {
		c.Describe = true
		c.TypeName = "Window"
	})

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, "Window: (int, int)\nint: digits\n", out.String())
}

func TestRunInvalid(t *testing.T) {
	a, out, logs := setupApp(t, "{\n  name: \"api\",\n  port: x,\n}\n", func(c *Config) { c.LogDiagnostics = true })

	err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "is not a valid Service")
	assert.Contains(t, out.String(), "Failed to parse 'x' into an uint16")
	assert.Contains(t, out.String(), "service.conf line 3")
	assert.Contains(t, logs.String(), "Config diagnostic.")
}

func TestRunErrors(t *testing.T) {
	a, _, _ := setupApp(t, "{}", func(c *Config) { c.TypeName = "Nope" })
	assert.ErrorContains(t, a.Run(context.Background()), "declares no type Nope (declared: Service, Window)")

	a, _, _ = setupApp(t, "{}", func(c *Config) { c.ConfigPath += ".missing" })
	err := a.Run(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "failed to read configuration")

	a, _, _ = setupApp(t, "{}", func(c *Config) { c.SchemaPath += ".json" })
	assert.ErrorContains(t, a.Run(context.Background()), "failed to load schema")
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.ErrorContains(t, err, "SchemaPath is a required")

	_, err = NewConfig(Config{SchemaPath: "s.hcl"})
	assert.ErrorContains(t, err, "ConfigPath is required")

	_, err = NewConfig(Config{SchemaPath: "s.hcl", Describe: true, JSON: true})
	assert.Error(t, err)

	cfg, err := NewConfig(Config{SchemaPath: "s.hcl", Describe: true})
	require.NoError(t, err)
	assert.Equal(t, "s.hcl", cfg.SchemaPath)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger("trace", "text", &buf).Log(context.Background(), slog.LevelDebug-4, "deep")
	assert.Contains(t, buf.String(), "msg=deep")
}
