package tyconf

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/schema"
	"github.com/vk/tyconf/value"
)

func serviceType() *schema.Record {
	mode := &schema.Union{
		TypeName:       "Mode",
		DefaultLiteral: "Off",
		Variants: []schema.Variant{
			{Name: "Off"},
			{Name: "Fixed", Elems: []value.Type{value.Int, value.Int}},
		},
	}
	return &schema.Record{
		TypeName: "Service",
		Fields: []schema.Field{
			{Name: "name", Type: value.String},
			{Name: "port", Type: value.Uint16, Default: "8080"},
			{Name: "tags", Type: value.List(value.String)},
			{Name: "mode", Type: mode},
			{Name: "backup", Type: value.Optional(value.IPv4)},
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	v, err := Parse(context.Background(), "svc.conf", `
# service definition
{
  name: "api",
  tags: ["a"],
  mode: Fixed(1, 5),
  tags: ["b"],
}
`, serviceType())
	require.NoError(t, err)

	want := map[string]any{
		"name":   "api",
		"port":   uint16(8080),
		"tags":   []any{"a", "b"},
		"mode":   schema.Tagged{Variant: "Fixed", Payload: []any{1, 5}},
		"backup": value.Option{},
	}
	assert.Equal(t, want, v, spew.Sdump(v))
}

func TestParseTrailingInput(t *testing.T) {
	_, err := Parse(context.Background(), "svc.conf", `{ name: "api" } extra`, serviceType())
	require.ErrorIs(t, err, diag.ErrFinal)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	last := perr.Diagnostics[len(perr.Diagnostics)-1]
	assert.Equal(t, "Expected end of input after Service", last.Summary)
	assert.Equal(t, "svc.conf", last.Subject.Filename)
	assert.Equal(t, 17, last.Subject.Start.Column)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(context.Background(), "svc.conf", "{\n  port: x,\n}", serviceType())
	require.ErrorIs(t, err, diag.ErrRecoverable)
	assert.False(t, errors.Is(err, diag.ErrFinal))

	var perr *Error
	require.ErrorAs(t, err, &perr)
	summaries := make([]string, len(perr.Diagnostics))
	for i, d := range perr.Diagnostics {
		summaries[i] = d.Summary
	}
	assert.Contains(t, summaries[0], "Failed to parse 'x' into an uint16")
	assert.Contains(t, summaries, "Couldn't default name. You need to provide a value")
	assert.Equal(t, 2, perr.Diagnostics[0].Subject.Start.Line)
	assert.Equal(t, 9, perr.Diagnostics[0].Subject.Start.Column)
	assert.Contains(t, err.Error(), "recoverable parse error")

	var out bytes.Buffer
	require.NoError(t, WriteDiagnostics(&out, err, nil))
	assert.Contains(t, out.String(), "on svc.conf line 2")
	assert.Contains(t, out.String(), "port: x,")

	_, err = Parse(context.Background(), "svc.conf", `{ nme: "api" }`, serviceType())
	require.ErrorIs(t, err, diag.ErrFinal)
	assert.Contains(t, err.Error(), "Found invalid field name !nme! in Service")
}

func TestUnresolvedFieldPointsAtClosingBrace(t *testing.T) {
	text := "{\n  port: x,\n  tags: [\"a\"],\n}"
	_, err := Parse(context.Background(), "svc.conf", text, serviceType())
	require.ErrorIs(t, err, diag.ErrRecoverable)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	subjects := make(map[string]hcl.Pos)
	for _, d := range perr.Diagnostics {
		require.NotNil(t, d.Subject, d.Summary)
		subjects[d.Summary] = d.Subject.Start
	}
	assert.Equal(t, hcl.Pos{Line: 4, Column: 1, Byte: 28}, subjects["Couldn't default name. You need to provide a value"])
	assert.Equal(t, 4, subjects["Can't get a value for port since something failed."].Line)

	var out bytes.Buffer
	require.NoError(t, WriteDiagnostics(&out, err, nil))
	assert.Contains(t, out.String(), "Error: Couldn't default name. You need to provide a value\n\n")
	assert.Contains(t, out.String(), "  on svc.conf line 4")
}

func TestWriteDiagnosticsPlainError(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteDiagnostics(&out, errors.New("boom"), nil))
	assert.Equal(t, "Error: boom\n", out.String())
}

func TestParseFileWithIncludes(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.conf")
	writeFile(t, main, "{\n  name: \"api\",\n  @include \"parts\"\n  port: 9000,\n}\n")
	writeFile(t, filepath.Join(dir, "parts", "a.conf"), "tags: [\"a\"],\n")
	writeFile(t, filepath.Join(dir, "parts", "b.conf"), "# second part\ntags: [\"b\"],\n")
	writeFile(t, filepath.Join(dir, "parts", "notes.txt"), "ignored")

	v, err := ParseFile(context.Background(), main, serviceType())
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, []any{"a", "b"}, m["tags"])
	assert.Equal(t, uint16(9000), m["port"])

	_, err = ParseFile(context.Background(), main, serviceType(), WithoutIncludes())
	require.ErrorIs(t, err, diag.ErrFinal)
	assert.Contains(t, err.Error(), "Found invalid field name !@! in Service")

	_, err = ParseFile(context.Background(), filepath.Join(dir, "missing.conf"), serviceType())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestIncludedFileDiagnostics(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.conf")
	part := filepath.Join(dir, "part.conf")
	writeFile(t, main, "{\n  name: \"api\",\n  @include \"part.conf\"\n}\n")
	writeFile(t, part, "backup: Some(10.0.0.300),\n")

	_, err := ParseFile(context.Background(), main, serviceType())
	require.ErrorIs(t, err, diag.ErrRecoverable)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, part, perr.Diagnostics[0].Subject.Filename)
	assert.Contains(t, perr.Files, part)

	var out bytes.Buffer
	require.NoError(t, WriteDiagnostics(&out, err, nil))
	assert.Contains(t, out.String(), "part.conf line 1")
	assert.Contains(t, out.String(), "backup: Some(10.0.0.300),")
}

func TestWithExtensionAndSink(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "parts", "a.cfg"), "tags: [\"cfg\"],\n")
	writeFile(t, filepath.Join(dir, "parts", "b.conf"), "tags: [\"conf\"],\n")
	main := filepath.Join(dir, "main.conf")
	writeFile(t, main, "{\n  name: \"api\",\n  @include parts\n}\n")

	v, err := ParseFile(context.Background(), main, serviceType(), WithExtension(".cfg"))
	require.NoError(t, err)
	assert.Equal(t, []any{"cfg"}, v.(map[string]any)["tags"])

	var lines []string
	sink := diag.SinkFunc(func(msg string) { lines = append(lines, msg) })
	_, err = Parse(context.Background(), "inline", `{ name: 1 }`, serviceType(), WithSink(sink))
	require.Error(t, err)
	require.NotEmpty(t, lines)
	assert.Equal(t, "Encountered error in inline:1,9", lines[0])
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Parse(context.Background(), "svc.conf", `{ name: "api" }`, serviceType(), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Parse started.")
	assert.Contains(t, buf.String(), "Parse finished.")
	assert.Contains(t, buf.String(), "source=svc.conf")
	assert.Contains(t, buf.String(), "type=Service")
}

type appConfig struct {
	Name    string     `cfg:"name"`
	Port    uint16     `cfg:"port" default:"8080"`
	Level   slog.Level `cfg:"level"`
	Tags    []string   `cfg:"tags"`
	Retries *int       `cfg:"retries"`
}

func TestUnmarshal(t *testing.T) {
	var cfg appConfig
	err := Unmarshal(context.Background(), "app.conf", []byte(`{ name: "api", level: Debug, retries: Some(3) }`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, "api", cfg.Name)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.Equal(t, []string{}, cfg.Tags)
	require.NotNil(t, cfg.Retries)
	assert.Equal(t, 3, *cfg.Retries)

	err = Unmarshal(context.Background(), "app.conf", []byte(`{}`), cfg)
	assert.ErrorContains(t, err, "non-nil pointer")

	err = Unmarshal(context.Background(), "app.conf", []byte(`{ level: Loud }`), &cfg)
	require.ErrorIs(t, err, diag.ErrRecoverable)
}

func TestUnmarshalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.conf")
	writeFile(t, path, "{\n  name: \"worker\",\n  tags: [\"x\", \"y\"],\n}\n")

	var cfg appConfig
	require.NoError(t, UnmarshalFile(context.Background(), path, &cfg))
	assert.Equal(t, "worker", cfg.Name)
	assert.Equal(t, slog.LevelWarn, cfg.Level)
	assert.Equal(t, []string{"x", "y"}, cfg.Tags)
	assert.Nil(t, cfg.Retries)
}

func TestDescribe(t *testing.T) {
	got, err := DescribeFor[appConfig]()
	require.NoError(t, err)
	want := strings.Join([]string{
		"appConfig: {name: string, port: uint16, level: loglevel, tags: list<string>, retries: optional<int>}",
		`string: "text"`,
		"uint16: digits",
		"loglevel: Error | Warn | Info | Debug | Trace",
		"list<string>: [ string, string, ... ]",
		"optional<int>: Some(int) | None",
		"int: digits",
	}, "\n")
	assert.Equal(t, want, got)

	assert.Equal(t, "Mode: Off | Fixed(int, int)\nint: digits", Describe(serviceType().Fields[3].Type))
}

func TestMarshalJSON(t *testing.T) {
	typ := serviceType()
	v, err := Parse(context.Background(), "svc.conf", `{ name: "api", tags: ["a"], mode: Fixed(1, 5), backup: Some(10.0.0.9) }`, typ)
	require.NoError(t, err)

	data, err := MarshalJSON(typ, v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"api","port":8080,"tags":["a"],"mode":{"Fixed":[1,5]},"backup":"10.0.0.9"}`, string(data))

	v, err = Parse(context.Background(), "svc.conf", `{ name: "api" }`, typ)
	require.NoError(t, err)
	data, err = MarshalJSON(typ, v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"api","port":8080,"tags":[],"mode":{"Off":{}},"backup":null}`, string(data))

	_, err = ToCty(typ, "not a record")
	assert.ErrorContains(t, err, "failed to convert Service")
}
