package value

import (
	"net/netip"
	"strings"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/zclconf/go-cty/cty"
)

// IPv4 parses a dotted-quad address such as 127.0.0.1 into a netip.Addr.
var IPv4 Type = ipv4Type{}

type ipv4Type struct{}

func (ipv4Type) Name() string { return "ipv4" }

func (t ipv4Type) Parse(s *scanner.Scanner, sink diag.Sink) (any, error) {
	text, ok := s.Next()
	if !ok {
		return nil, EndOfInput(s, sink, t.Name())
	}
	end := strings.IndexFunc(text, func(r rune) bool {
		return r != '.' && (r < '0' || r > '9')
	})
	if end < 0 {
		end = len(text)
	}
	tok := text[:end]
	addr, err := netip.ParseAddr(tok)
	if err != nil || !addr.Is4() {
		return nil, Reject(s, sink, len(tok), "Failed to parse '%s' into an ipv4 address", tok)
	}
	if err := s.Consume(len(tok), sink); err != nil {
		return nil, err
	}
	return addr, nil
}

func (ipv4Type) Default() (any, bool)       { return nil, false }
func (ipv4Type) Merge(a, b any) (any, bool) { return mergeEqual(a, b) }
func (t ipv4Type) Describe(d *Describer)    { d.Line("%s: a.b.c.d", t.Name()) }
func (ipv4Type) CtyType() cty.Type          { return cty.String }

func (t ipv4Type) ToCty(v any) (cty.Value, error) {
	addr, ok := v.(netip.Addr)
	if !ok {
		return cty.NilVal, typeMismatch(t, v)
	}
	return cty.StringVal(addr.String()), nil
}
