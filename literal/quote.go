package literal

import (
	"fmt"
	"strings"
	"unicode"
)

// Quote returns s as a string literal that ParseString decodes back to s.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' {
			sb.WriteString(`\"`)
			continue
		}
		writeEscaped(&sb, r)
	}
	sb.WriteByte('"')
	return sb.String()
}

// QuoteChar returns r as a char literal that ParseChar decodes back to r.
func QuoteChar(r rune) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	if r == '\'' {
		sb.WriteString(`\'`)
	} else {
		writeEscaped(&sb, r)
	}
	sb.WriteByte('\'')
	return sb.String()
}

func writeEscaped(sb *strings.Builder, r rune) {
	switch r {
	case '\n':
		sb.WriteString(`\n`)
	case '\r':
		sb.WriteString(`\r`)
	case '\t':
		sb.WriteString(`\t`)
	case '\\':
		sb.WriteString(`\\`)
	case 0:
		sb.WriteString(`\0`)
	default:
		switch {
		case r < 0x80 && !unicode.IsPrint(r):
			fmt.Fprintf(sb, `\x%02x`, r)
		case !unicode.IsPrint(r):
			fmt.Fprintf(sb, `\u{%x}`, r)
		default:
			sb.WriteRune(r)
		}
	}
}
