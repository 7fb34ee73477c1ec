package value

import (
	"log/slog"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/zclconf/go-cty/cty"
)

// parse runs t over text and returns the value, what is left on the current
// line, the collected diagnostics and the error.
func parse(t Type, text string) (any, string, *diag.Collector, error) {
	var c diag.Collector
	s := scanner.FromString(text)
	v, err := t.Parse(s, &c)
	rest, _ := s.Next()
	return v, rest, &c, err
}

func TestScalarParse(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		in   string
		want any
		rest string
	}{
		{"string", String, "\"This is\\n \\\"a line\"var", "This is\n \"a line", "var"},
		{"char", Char, "'\\\\'var", '\\', "var"},
		{"bool true", Bool, "true, x", true, ", x"},
		{"bool false", Bool, "false}", false, "}"},
		{"int32", Int32, "42, 43", int32(42), ", 43"},
		{"int8 negative", Int8, "-7)", int8(-7), ")"},
		{"int plus sign", Int, "+12", 12, ""},
		{"uint64", Uint64, "18446744073709551615 ]", uint64(18446744073709551615), "]"},
		{"float", Float64, "2.5e3 x", 2500.0, "x"},
		{"ipv4", IPv4, "127.0.0.1var", netip.AddrFrom4([4]byte{127, 0, 0, 1}), "var"},
		{"log level", LogLevel, "Debug,", slog.LevelDebug, ","},
		{"trace level", LogLevel, "Trace", LevelTrace, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, rest, c, err := parse(tc.typ, tc.in)
			require.NoError(t, err, c.String())
			assert.Equal(t, tc.want, v)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestScalarParseRecoverable(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		in      string
		message string
		rest    string
	}{
		{"int out of range", Uint8, "300, 1", "Failed to parse '300' into an uint8: value out of range", ", 1"},
		{"int syntax", Int32, "12ab ]", "Failed to parse '12ab' into an int32: invalid syntax", "]"},
		{"int empty token", Int32, ", 1", "Failed to parse '' into an int32", ", 1"},
		{"float NaN", Float64, "NaN", "NaN is not a number", ""},
		{"float infinity", Float64, "-Inf, 1", "Failed to parse '-Inf' into a float64: infinity is not a decimal number", ", 1"},
		{"float overflow", Float64, "1e400 x", "value out of range", "x"},
		{"float hex", Float64, "0x1p-2 x", "hexadecimal floats are not decimal numbers", "x"},
		{"bool", Bool, "yes x", "Expected true or false, found \"yes\"", "x"},
		{"ipv4 short address", IPv4, "1.2.3 x", "Failed to parse '1.2.3' into an ipv4 address", "x"},
		{"log level", LogLevel, "Verbose,", "Unknown log level \"Verbose\"", ","},
		{"bad escape skipped", String, `"a\qb" next`, "unknown character escape", "next"},
		{"string without quote", String, "word", "expected '\"'", "word"},
		{"char too long", Char, "'ab' x", "exactly one character", "x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, rest, c, err := parse(tc.typ, tc.in)
			require.ErrorIs(t, err, diag.ErrRecoverable)
			assert.Contains(t, c.String(), tc.message)
			assert.Equal(t, "Encountered error in memory:1,1", c.Messages()[0])
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestEndOfInputIsFinal(t *testing.T) {
	types := []Type{
		String, Char, Bool, Int, Uint16, Float64, IPv4, LogLevel,
		Optional(String), List(Char), Array(Int, 2),
	}
	for _, typ := range types {
		t.Run(typ.Name(), func(t *testing.T) {
			_, _, c, err := parse(typ, "   ")
			require.ErrorIs(t, err, diag.ErrFinal)
			assert.Contains(t, c.String(), "Reached end of input")
		})
	}
}

func TestUnterminatedLiteralIsFinal(t *testing.T) {
	_, _, _, err := parse(String, `"never closed`)
	require.ErrorIs(t, err, diag.ErrFinal)

	_, _, _, err = parse(Char, `'x`)
	require.ErrorIs(t, err, diag.ErrFinal)
}

func TestListParse(t *testing.T) {
	v, rest, _, err := parse(List(Char), "[]")
	require.NoError(t, err)
	assert.Equal(t, []any{}, v)
	assert.Empty(t, rest)

	v, rest, _, err = parse(List(Char), "[ '1', '2', '3' ]")
	require.NoError(t, err)
	assert.Equal(t, []any{'1', '2', '3'}, v)
	assert.Empty(t, rest)

	v, _, _, err = parse(List(Int), "[1, 2,]")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v)

	s := scanner.FromLines("memory", "[", "  \"a\",", "  # comment", "  \"b\"", "]")
	v, err = List(String).Parse(s, diag.Discard)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)
	assert.True(t, s.IsAtEnd())
}

func TestListParseFailures(t *testing.T) {
	_, _, c, err := parse(List(Char), "[")
	require.ErrorIs(t, err, diag.ErrFinal)
	assert.Contains(t, c.String(), "Reached end of input while reading list<char>")

	_, _, _, err = parse(List(Char), "[ '1', ")
	require.ErrorIs(t, err, diag.ErrFinal)

	_, _, _, err = parse(List(Char), "[ '1' '2' ]")
	require.ErrorIs(t, err, diag.ErrFinal)

	_, _, _, err = parse(List(Char), "'1'")
	require.ErrorIs(t, err, diag.ErrFinal)

	// A bad element is reported and skipped; the rest of the list is read.
	_, rest, c, err := parse(List(Int), "[1, x, 3] rest")
	require.ErrorIs(t, err, diag.ErrRecoverable)
	assert.Equal(t, "rest", rest)
	assert.Contains(t, c.String(), "Failed to parse 'x' into an int")
}

func TestOptionalParse(t *testing.T) {
	v, rest, _, err := parse(Optional(String), "None")
	require.NoError(t, err)
	assert.Equal(t, Option{}, v)
	assert.Empty(t, rest)

	v, rest, _, err = parse(Optional(String), "Some(\"TestStr\")")
	require.NoError(t, err)
	assert.Equal(t, Some("TestStr"), v)
	assert.Empty(t, rest)

	v, _, _, err = parse(Optional(Optional(Int)), "Some ( Some(3) )")
	require.NoError(t, err)
	assert.Equal(t, Some(Some(3)), v)

	_, _, _, err = parse(Optional(Int), "Some(x)")
	require.ErrorIs(t, err, diag.ErrRecoverable)

	_, _, _, err = parse(Optional(Int), "Some(3")
	require.ErrorIs(t, err, diag.ErrFinal)

	_, _, c, err := parse(Optional(Int), "Maybe(3)")
	require.ErrorIs(t, err, diag.ErrFinal)
	assert.Contains(t, c.String(), "Expected Some(int) or None")
}

func TestDefaults(t *testing.T) {
	for _, typ := range []Type{String, Char, Bool, Int32, Float64, IPv4, Array(Int, 2)} {
		_, ok := typ.Default()
		assert.False(t, ok, typ.Name())
	}

	v, ok := Optional(String).Default()
	require.True(t, ok)
	assert.Equal(t, Option{}, v)

	v, ok = Optional(Optional(String)).Default()
	require.True(t, ok)
	assert.Equal(t, Some(Option{}), v)

	v, ok = List(Int).Default()
	require.True(t, ok)
	assert.Equal(t, []any{}, v)

	v, ok = LogLevel.Default()
	require.True(t, ok)
	assert.Equal(t, slog.LevelWarn, v)

	v, ok = Array(LogLevel, 2).Default()
	require.True(t, ok)
	assert.Equal(t, []any{slog.LevelWarn, slog.LevelWarn}, v)
}

func TestMerge(t *testing.T) {
	v, ok := List(String).Merge([]any{"A"}, []any{"B"})
	require.True(t, ok)
	assert.Equal(t, []any{"A", "B"}, v)

	v, ok = String.Merge("x", "x")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = String.Merge("x", "y")
	assert.False(t, ok)

	_, ok = Int32.Merge(int32(1), int32(2))
	assert.False(t, ok)

	opt := Optional(List(Int))
	v, ok = opt.Merge(Option{}, Some([]any{1}))
	require.True(t, ok)
	assert.Equal(t, Some([]any{1}), v)

	v, ok = opt.Merge(Some([]any{1}), Option{})
	require.True(t, ok)
	assert.Equal(t, Some([]any{1}), v)

	v, ok = opt.Merge(Some([]any{1}), Some([]any{2}))
	require.True(t, ok)
	assert.Equal(t, Some([]any{1, 2}), v)

	_, ok = Optional(Int).Merge(Some(1), Some(2))
	assert.False(t, ok)

	_, ok = Array(Int, 1).Merge([]any{1}, []any{1})
	assert.False(t, ok)
}

func TestArrayParse(t *testing.T) {
	v, _, _, err := parse(Array(Int, 2), "[1, 2]")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v)

	_, _, c, err := parse(Array(Int, 2), "[1]")
	require.ErrorIs(t, err, diag.ErrRecoverable)
	assert.Contains(t, c.String(), "Expected array of size 2, got array of size: 1")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, `string: "text"`, Format(String))
	assert.Equal(t, "optional<string>: Some(string) | None\nstring: \"text\"", Format(Optional(String)))
	assert.Equal(t, "list<char>: [ char, char, ... ]\nchar: 'c'", Format(List(Char)))
	assert.Equal(t, "array<int, 3>: [ int, int, int ]\nint: digits", Format(Array(Int, 3)))
	assert.Equal(t, "loglevel: Error | Warn | Info | Debug | Trace", Format(LogLevel))

	d := NewDescriber()
	d.Visit(List(Optional(String)))
	d.Visit(Optional(String))
	d.Visit(String)
	assert.Equal(t, []string{
		"list<optional<string>>: [ optional<string>, optional<string>, ... ]",
		"optional<string>: Some(string) | None",
		`string: "text"`,
	}, d.Lines())
}

func TestToCty(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		in   any
		want cty.Value
	}{
		{"string", String, "s", cty.StringVal("s")},
		{"char", Char, 'ß', cty.StringVal("ß")},
		{"int", Int32, int32(-3), cty.NumberIntVal(-3)},
		{"uint", Uint8, uint8(200), cty.NumberUIntVal(200)},
		{"ipv4", IPv4, netip.MustParseAddr("10.0.0.1"), cty.StringVal("10.0.0.1")},
		{"level", LogLevel, slog.LevelInfo, cty.StringVal("Info")},
		{"none", Optional(String), Option{}, cty.NullVal(cty.String)},
		{"some", Optional(String), Some("x"), cty.StringVal("x")},
		{"list", List(Int32), []any{int32(1), int32(2)}, cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)})},
		{"empty list", List(Bool), []any{}, cty.ListValEmpty(cty.Bool)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.typ.ToCty(tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.RawEquals(got), "got %#v", got)
			assert.True(t, got.Type().Equals(tc.typ.CtyType()))
		})
	}

	_, err := String.ToCty(3)
	require.Error(t, err)
}

func TestToken(t *testing.T) {
	assert.Equal(t, "abc", Token("abc def"))
	assert.Equal(t, "-12", Token("-12,"))
	assert.Equal(t, "x", Token("x)"))
	assert.Equal(t, "", Token("]"))
	assert.Equal(t, "all", Token("all"))
}
