package value

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/zclconf/go-cty/cty"
)

// Integer is the set of Go integer types a configuration integer can be
// parsed into.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Built-in numeric types. Integers parse into the Go type of the same name,
// Float64 into float64. None of them has a type-level default.
var (
	Int    Type = integer[int]{"int"}
	Int8   Type = integer[int8]{"int8"}
	Int16  Type = integer[int16]{"int16"}
	Int32  Type = integer[int32]{"int32"}
	Int64  Type = integer[int64]{"int64"}
	Uint   Type = integer[uint]{"uint"}
	Uint8  Type = integer[uint8]{"uint8"}
	Uint16 Type = integer[uint16]{"uint16"}
	Uint32 Type = integer[uint32]{"uint32"}
	Uint64 Type = integer[uint64]{"uint64"}

	Float64 Type = floatType{}
)

type integer[T Integer] struct {
	name string
}

func (t integer[T]) Name() string { return t.name }

func (t integer[T]) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	text, ok := s.Next()
	if !ok {
		return nil, EndOfInput(s, sink, t.name)
	}
	tok := Token(text)
	v, err := parseInteger[T](tok)
	if err != nil {
		return nil, Reject(s, sink, len(tok), "Failed to parse '%s' into an %s: %s", tok, t.name, err)
	}
	if err := s.Consume(len(tok), sink); err != nil {
		return nil, err
	}
	return v, nil
}

func parseInteger[T Integer](tok string) (T, error) {
	var zero T
	bits := reflect.TypeOf((*T)(nil)).Elem().Bits()
	if ^zero < 0 {
		n, err := strconv.ParseInt(tok, 10, bits)
		return T(n), numError(err)
	}
	n, err := strconv.ParseUint(tok, 10, bits)
	return T(n), numError(err)
}

// numError strips the strconv function name and input from err, both of
// which are already part of the surrounding message.
func numError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}

func (integer[T]) Default() (any, bool)       { return nil, false }
func (integer[T]) Merge(a, b any) (any, bool) { return mergeEqual(a, b) }
func (t integer[T]) Describe(d *Describer)    { d.Line("%s: digits", t.name) }
func (integer[T]) CtyType() cty.Type          { return cty.Number }

func (t integer[T]) ToCty(v any) (cty.Value, error) {
	n, ok := v.(T)
	if !ok {
		return cty.NilVal, typeMismatch(t, v)
	}
	var zero T
	if ^zero < 0 {
		return cty.NumberIntVal(int64(n)), nil
	}
	return cty.NumberUIntVal(uint64(n)), nil
}

type floatType struct{}

func (floatType) Name() string { return "float64" }

func (t floatType) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	text, ok := s.Next()
	if !ok {
		return nil, EndOfInput(s, sink, t.Name())
	}
	tok := Token(text)
	v, err := strconv.ParseFloat(tok, 64)
	switch {
	case err != nil:
	case math.IsNaN(v):
		err = errors.New("NaN is not a number")
	case math.IsInf(v, 0):
		err = errors.New("infinity is not a decimal number")
	case strings.ContainsAny(tok, "xX"):
		err = errors.New("hexadecimal floats are not decimal numbers")
	}
	if err != nil {
		return nil, Reject(s, sink, len(tok), "Failed to parse '%s' into a %s: %s", tok, t.Name(), numError(err))
	}
	if err := s.Consume(len(tok), sink); err != nil {
		return nil, err
	}
	return v, nil
}

func (floatType) Default() (any, bool)       { return nil, false }
func (floatType) Merge(a, b any) (any, bool) { return mergeEqual(a, b) }
func (t floatType) Describe(d *Describer)    { d.Line("%s: decimal number", t.Name()) }
func (floatType) CtyType() cty.Type          { return cty.Number }

func (t floatType) ToCty(v any) (cty.Value, error) {
	f, ok := v.(float64)
	if !ok {
		return cty.NilVal, typeMismatch(t, v)
	}
	return cty.NumberFloatVal(f), nil
}
