package value

import (
	"errors"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/literal"
	"github.com/vk/tyconf/scanner"
	"github.com/zclconf/go-cty/cty"
)

// Built-in scalar types. Parsed values are string, rune and bool.
var (
	String Type = stringType{}
	Char   Type = charType{}
	Bool   Type = boolType{}
)

// mergeEqual accepts a repeated key only when both occurrences agree.
func mergeEqual(a, b any) (any, bool) {
	return a, a == b
}

// literalError turns a literal lexer error into a parse error. An
// unterminated literal leaves nothing to resynchronize on and is Final; any
// other malformed literal is skipped as a whole.
func literalError(s *scanner.Scanner, sink diag.Sink, err error) error {
	var le *literal.Error
	if !errors.As(err, &le) {
		s.Errorf(0, sink, "%s", err)
		return diag.ErrFinal
	}
	if le.Unterminated {
		s.Errorf(0, sink, "%s", le.Msg)
		return diag.ErrFinal
	}
	return Reject(s, sink, le.Extent, "%s", le.Msg)
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (t stringType) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	text, ok := s.Next()
	if !ok {
		return nil, EndOfInput(s, sink, t.Name())
	}
	v, n, err := literal.ParseString(text)
	if err != nil {
		return nil, literalError(s, sink, err)
	}
	if err := s.Consume(n, sink); err != nil {
		return nil, err
	}
	return v, nil
}

func (stringType) Default() (any, bool)       { return nil, false }
func (stringType) Merge(a, b any) (any, bool) { return mergeEqual(a, b) }
func (t stringType) Describe(d *Describer)    { d.Line(`%s: "text"`, t.Name()) }
func (stringType) CtyType() cty.Type          { return cty.String }

func (t stringType) ToCty(v any) (cty.Value, error) {
	s, ok := v.(string)
	if !ok {
		return cty.NilVal, typeMismatch(t, v)
	}
	return cty.StringVal(s), nil
}

type charType struct{}

func (charType) Name() string { return "char" }

func (t charType) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	text, ok := s.Next()
	if !ok {
		return nil, EndOfInput(s, sink, t.Name())
	}
	r, n, err := literal.ParseChar(text)
	if err != nil {
		return nil, literalError(s, sink, err)
	}
	if err := s.Consume(n, sink); err != nil {
		return nil, err
	}
	return r, nil
}

func (charType) Default() (any, bool)       { return nil, false }
func (charType) Merge(a, b any) (any, bool) { return mergeEqual(a, b) }
func (t charType) Describe(d *Describer)    { d.Line("%s: 'c'", t.Name()) }
func (charType) CtyType() cty.Type          { return cty.String }

func (t charType) ToCty(v any) (cty.Value, error) {
	r, ok := v.(rune)
	if !ok {
		return cty.NilVal, typeMismatch(t, v)
	}
	return cty.StringVal(string(r)), nil
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (t boolType) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	text, ok := s.Next()
	if !ok {
		return nil, EndOfInput(s, sink, t.Name())
	}
	tok := Token(text)
	var v bool
	switch tok {
	case "true":
		v = true
	case "false":
	default:
		return nil, Reject(s, sink, len(tok), "Expected true or false, found %q", tok)
	}
	if err := s.Consume(len(tok), sink); err != nil {
		return nil, err
	}
	return v, nil
}

func (boolType) Default() (any, bool)       { return nil, false }
func (boolType) Merge(a, b any) (any, bool) { return mergeEqual(a, b) }
func (t boolType) Describe(d *Describer)    { d.Line("%s: true | false", t.Name()) }
func (boolType) CtyType() cty.Type          { return cty.Bool }

func (t boolType) ToCty(v any) (cty.Value, error) {
	b, ok := v.(bool)
	if !ok {
		return cty.NilVal, typeMismatch(t, v)
	}
	return cty.BoolVal(b), nil
}
