package tyconf

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/tyconf/diag"
)

// Error is a failed parse. Kind is diag.ErrFinal or diag.ErrRecoverable.
type Error struct {
	Kind        error
	Diagnostics hcl.Diagnostics
	// Files holds the sources read by the parse, keyed by source label, for
	// rendering snippets.
	Files map[string][]byte
}

func newError(kind error, c *diag.Collector, files map[string][]byte) *Error {
	return &Error{Kind: kind, Diagnostics: c.Diagnostics(), Files: files}
}

func (e *Error) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Diagnostics.Error())
}

// Unwrap exposes both the error class and the diagnostics.
func (e *Error) Unwrap() []error {
	if len(e.Diagnostics) == 0 {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Diagnostics}
}

// WriteDiagnostics renders the diagnostics of err, which must be or wrap an
// *Error, with source snippets. files supplements the sources recorded in
// the error. Other errors are written as a single line.
func WriteDiagnostics(w io.Writer, err error, files map[string][]byte) error {
	var perr *Error
	if !errors.As(err, &perr) {
		_, werr := fmt.Fprintf(w, "Error: %s\n", err)
		return werr
	}

	all := make(map[string][]byte, len(perr.Files)+len(files))
	for name, data := range perr.Files {
		all[name] = data
	}
	for name, data := range files {
		all[name] = data
	}
	return diag.WriteText(w, perr.Diagnostics, all, 0)
}
