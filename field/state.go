// Package field tracks the resolution of one named field while the record
// that owns it is being parsed.
//
// A State starts Empty, may receive a schema default, and then collects every
// occurrence of the field in the input, merging repeated occurrences. Once
// the record is closed, Value picks the final value: merged occurrences first,
// then the schema default, then the type default. States are values; every
// transition returns a new State.
package field

import (
	"fmt"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/scanner"
	"github.com/vk/tyconf/value"
)

// Kind is the resolution stage of a field.
type Kind int

const (
	// Empty: nothing parsed and no schema default.
	Empty Kind = iota
	// Default: nothing parsed, a schema default is installed.
	Default
	// Found: at least one occurrence was parsed.
	Found
	// Failed: an occurrence failed to parse or could not be merged.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Default:
		return "Default"
	case Found:
		return "Found"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// State is the resolution state of one field.
type State struct {
	name  string
	typ   value.Type
	kind  Kind
	value any
}

// New returns an Empty state for the field name of type t.
func New(name string, t value.Type) State {
	return State{name: name, typ: t}
}

// Name returns the field name.
func (st State) Name() string { return st.name }

// Type returns the field type.
func (st State) Type() value.Type { return st.typ }

// Kind returns the resolution stage.
func (st State) Kind() Kind { return st.kind }

// Failed reports whether the field can no longer be resolved.
func (st State) Failed() bool { return st.kind == Failed }

// SetDefault installs a schema default. It only applies before anything was
// parsed for the field; later states are returned unchanged.
func (st State) SetDefault(v any) State {
	if st.kind != Empty && st.kind != Default {
		return st
	}
	st.kind, st.value = Default, v
	return st
}

// PushFound records the outcome of parsing one occurrence of the field.
//
// A parsed value replaces a default or is merged into an earlier occurrence;
// a merge conflict is reported at the cursor and fails the field. A
// recoverable parse error fails the field but returns nil so the record can
// go on with its other fields. A final error is returned as is. Once failed,
// the field ignores further occurrences.
func (st State) PushFound(v any, err error, s *scanner.Scanner, sink diag.Sink) (State, error) {
	switch {
	case diag.IsFinal(err):
		return st, err
	case err != nil:
		sink.Report(fmt.Sprintf("Tried to push Recoverable error for %s. Will continue", st.name))
		return st.fail(), nil
	}

	switch st.kind {
	case Failed:
		return st, nil
	case Found:
		merged, ok := st.typ.Merge(st.value, v)
		if !ok {
			s.PrintError(0, sink)
			sink.Report(fmt.Sprintf("Couldn't merge %s.", st.name))
			return st.fail(), nil
		}
		st.value = merged
		return st, nil
	}
	st.kind, st.value = Found, v
	return st, nil
}

func (st State) fail() State {
	st.kind, st.value = Failed, nil
	return st
}

// Value returns the resolved value: the merged occurrences, else the schema
// default, else the type default. A field with none of these, or a failed
// field, is a recoverable error.
func (st State) Value(sink diag.Sink) (any, error) {
	switch st.kind {
	case Found, Default:
		return st.value, nil
	case Failed:
		sink.Report(fmt.Sprintf("Can't get a value for %s since something failed.", st.name))
		return nil, diag.ErrRecoverable
	}
	if v, ok := st.typ.Default(); ok {
		return v, nil
	}
	sink.Report(fmt.Sprintf("Couldn't default %s. You need to provide a value", st.name))
	return nil, diag.ErrRecoverable
}
