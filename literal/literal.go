// Package literal decodes string and character literals of the configuration
// language, including escape sequences, from the raw text of a line.
//
// The functions here are pure: they do not know about scanners or cursors.
// They report how many bytes of the input the literal occupied, and the
// caller advances its cursor by that amount.
package literal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Error describes a malformed literal.
type Error struct {
	Msg string
	// Extent is the byte length of the malformed literal up to and including
	// its closing delimiter. It is zero when no closing delimiter exists.
	Extent int
	// Unterminated is set when the text ended before the closing delimiter.
	Unterminated bool
}

func (e *Error) Error() string { return e.Msg }

func newError(text string, delim byte, format string, args ...any) *Error {
	ext := extent(text, delim)
	return &Error{
		Msg:          fmt.Sprintf(format, args...),
		Extent:       max(ext, 0),
		Unterminated: ext < 0,
	}
}

// extent returns the length of the literal starting at text[0] up to and
// including the first unescaped delim, or -1 if there is none.
func extent(text string, delim byte) int {
	for i := 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case delim:
			return i + 1
		}
	}
	return -1
}

// ParseString decodes the string literal at the start of text. It returns the
// decoded value and the number of bytes consumed, including both quotes.
func ParseString(text string) (string, int, error) {
	if text == "" {
		return "", 0, &Error{Msg: "tried to parse string literal, got empty text", Unterminated: true}
	}
	if text[0] != '"' {
		r, _ := utf8.DecodeRuneInString(text)
		return "", 0, &Error{Msg: fmt.Sprintf("expected '\"' at beginning of string literal, found %q", r)}
	}

	var sb strings.Builder
	i := 1
	for i < len(text) {
		switch c := text[i]; c {
		case '"':
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(text) {
				return "", 0, &Error{Msg: "string literal ends inside an escape sequence", Unterminated: true}
			}
			switch text[i+1] {
			case '\n':
				i = skipSpace(text, i+2)
				continue
			case '\r':
				if i+2 < len(text) && text[i+2] == '\n' {
					i = skipSpace(text, i+3)
					continue
				}
				return "", 0, newError(text, '"', "bare carriage return after '\\' in string literal")
			}
			r, n, err := unescape(text[i:], true)
			if err != nil {
				return "", 0, newError(text, '"', "%s", err)
			}
			sb.WriteRune(r)
			i += n
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				sb.WriteByte('\n')
				i += 2
				continue
			}
			return "", 0, newError(text, '"', "bare carriage return in string literal")
		default:
			r, n := utf8.DecodeRuneInString(text[i:])
			sb.WriteRune(r)
			i += n
		}
	}
	return "", 0, &Error{Msg: "didn't find closing '\"' for string literal", Unterminated: true}
}

// ParseChar decodes the character literal at the start of text. It returns
// the character and the number of bytes consumed, including both quotes.
func ParseChar(text string) (rune, int, error) {
	if text == "" || text[0] != '\'' {
		return 0, 0, &Error{Msg: "expected \"'\" at beginning of char literal"}
	}
	if len(text) < 2 {
		return 0, 0, &Error{Msg: "char literal is not closed", Unterminated: true}
	}

	var (
		r rune
		n int
	)
	switch text[1] {
	case '\'':
		return 0, 0, &Error{Msg: "empty char literal", Extent: 2}
	case '\\':
		var err error
		r, n, err = unescape(text[1:], false)
		if err != nil {
			return 0, 0, newError(text, '\'', "%s", err)
		}
	default:
		r, n = utf8.DecodeRuneInString(text[1:])
	}

	end := 1 + n
	if end >= len(text) {
		return 0, 0, &Error{Msg: "expected \"'\" at end of char literal", Unterminated: true}
	}
	if text[end] != '\'' {
		return 0, 0, newError(text, '\'', "char literal must contain exactly one character")
	}
	return r, end + 1, nil
}

// unescape decodes one escape sequence at the start of text, which must
// begin with a backslash.
func unescape(text string, inString bool) (rune, int, error) {
	if len(text) < 2 {
		return 0, 0, fmt.Errorf("incomplete escape sequence")
	}
	switch text[1] {
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case '\\':
		return '\\', 2, nil
	case '0':
		return 0, 2, nil
	case '\'':
		return '\'', 2, nil
	case '"':
		if inString {
			return '"', 2, nil
		}
		return 0, 0, fmt.Errorf("escape '\\\"' is not allowed in a char literal")
	case 'x':
		if len(text) < 4 {
			return 0, 0, fmt.Errorf("'\\x' must be followed by two hex digits")
		}
		v, err := strconv.ParseUint(text[2:4], 16, 8)
		if err != nil {
			return 0, 0, fmt.Errorf("'\\x' must be followed by two hex digits, found %q", text[2:4])
		}
		if v > 0x7f {
			return 0, 0, fmt.Errorf("'\\x%s' is out of range, must be at most \\x7f", text[2:4])
		}
		return rune(v), 4, nil
	case 'u':
		if len(text) < 3 || text[2] != '{' {
			return 0, 0, fmt.Errorf("'\\u' must be followed by '{'")
		}
		end := strings.IndexByte(text, '}')
		if end < 0 {
			return 0, 0, fmt.Errorf("unterminated unicode escape")
		}
		digits := text[3:end]
		if len(digits) == 0 || len(digits) > 6 {
			return 0, 0, fmt.Errorf("unicode escape must have 1 to 6 hex digits, found %q", digits)
		}
		v, err := strconv.ParseUint(digits, 16, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid unicode escape %q", digits)
		}
		if !utf8.ValidRune(rune(v)) {
			return 0, 0, fmt.Errorf("unicode escape %q is not a valid scalar value", digits)
		}
		return rune(v), end + 1, nil
	}
	r, _ := utf8.DecodeRuneInString(text[1:])
	return 0, 0, fmt.Errorf("unknown character escape '\\%c'", r)
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}
