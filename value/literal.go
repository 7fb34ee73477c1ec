package value

import (
	"fmt"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
)

// ParseLiteral parses text, written in the configuration language, as a value
// of t. The whole text must be consumed. Schema defaults are given this way.
func ParseLiteral(t Type, text string) (any, error) {
	var c diag.Collector
	s := scanner.FromString(text)
	v, err := t.Parse(s, &c)
	if err != nil {
		return nil, fmt.Errorf("invalid %s literal %q: %s", t.Name(), text, lastMessage(&c))
	}
	if rest, ok := s.Next(); ok {
		return nil, fmt.Errorf("invalid %s literal %q: unexpected %q after value", t.Name(), text, rest)
	}
	return v, nil
}

func lastMessage(c *diag.Collector) string {
	diags := c.Diagnostics()
	if len(diags) == 0 {
		return "no details"
	}
	return diags[len(diags)-1].Summary
}
