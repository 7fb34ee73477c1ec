package tyconf

import (
	"log/slog"

	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/source"
)

type options struct {
	sink      diag.Sink
	opener    source.Opener
	includes  bool
	logger    *slog.Logger
	extension string
}

// Option configures a parse.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{includes: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithSink additionally sends every diagnostic line to sink as it is
// reported. Diagnostics are collected into the returned *Error either way.
func WithSink(sink diag.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithOpener resolves include directives with opener instead of the local
// file system.
func WithOpener(opener source.Opener) Option {
	return func(o *options) {
		o.opener = opener
	}
}

// WithoutIncludes treats include directives as ordinary content.
func WithoutIncludes() Option {
	return func(o *options) {
		o.includes = false
	}
}

// WithLogger logs parse milestones to logger instead of the one carried by
// the context.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithExtension sets the file extension directory includes pick up. The
// default is source.DefaultExtension.
func WithExtension(ext string) Option {
	return func(o *options) {
		o.extension = ext
	}
}
