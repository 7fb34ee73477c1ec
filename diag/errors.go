package diag

import "errors"

// ErrRecoverable marks a local failure: a value failed to parse or two
// occurrences of a key could not be merged. The enclosing record absorbs it
// and keeps reading sibling fields.
var ErrRecoverable = errors.New("recoverable parse error")

// ErrFinal marks a structural failure that leaves the scanner in an unusable
// state. It aborts the whole parse.
var ErrFinal = errors.New("final parse error")

// IsFinal reports whether err is, or wraps, ErrFinal.
func IsFinal(err error) bool {
	return errors.Is(err, ErrFinal)
}

// IsRecoverable reports whether err is, or wraps, ErrRecoverable.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrRecoverable)
}
