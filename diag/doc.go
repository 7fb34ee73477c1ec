// Package diag carries human-readable parse diagnostics from the point where a
// problem is detected to whoever is interested in them.
//
// Parsing code never writes to a stream directly. Every parsing call takes a
// Sink and reports text through it synchronously; the returned error only
// carries the coarse class (ErrRecoverable or ErrFinal). This lets the same
// parser run silently, accumulate messages for tests, or log through slog.
//
// Sinks that also implement Locator receive the source range of each
// positional report, which the Collector uses to build hcl.Diagnostics with
// a Subject so they can be rendered with source snippets.
package diag
