package diag

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Entry is a single collected message together with the most recent source
// range that had been located when it was reported.
type Entry struct {
	Message string
	Subject *hcl.Range
}

// Collector accumulates messages in order. The zero value is ready to use.
type Collector struct {
	entries []Entry
	subject *hcl.Range
}

// Report appends msg.
func (c *Collector) Report(msg string) {
	c.entries = append(c.entries, Entry{Message: msg, Subject: c.subject})
}

// Locate records rng as the subject of the messages that follow.
func (c *Collector) Locate(rng hcl.Range) {
	c.subject = &rng
}

// Entries returns the collected entries.
func (c *Collector) Entries() []Entry {
	return c.entries
}

// Messages returns the collected message texts in report order.
func (c *Collector) Messages() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Message
	}
	return out
}

// String joins all messages with newlines.
func (c *Collector) String() string {
	return strings.Join(c.Messages(), "\n")
}

// Len returns the number of collected messages.
func (c *Collector) Len() int {
	return len(c.entries)
}

// Reset drops everything collected so far.
func (c *Collector) Reset() {
	c.entries = nil
	c.subject = nil
}

// Diagnostics converts the descriptive messages into error diagnostics.
// Positional lines are not repeated as diagnostics of their own; their range
// becomes the Subject of the messages that follow them.
func (c *Collector) Diagnostics() hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, e := range c.entries {
		if strings.HasPrefix(e.Message, PositionPrefix) || strings.HasPrefix(e.Message, IncludedFromPrefix) {
			continue
		}
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  e.Message,
			Subject:  e.Subject,
		})
	}
	return diags
}
