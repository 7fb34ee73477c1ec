// Package tyconf parses typed configuration files.
//
// A configuration file holds one value of a schema type: usually a record
//
//	{
//	  host: "0.0.0.0",
//	  port: 8080,
//	  mode: Fixed(1, 5),
//	  upstreams: [ { addr: 10.0.0.1, weight: Some(3) } ],
//	}
//
// Schemas come from Go types (Unmarshal, see package bind), from descriptor
// documents (see package schemafile), or are assembled directly from the
// descriptors in packages value and schema (Parse).
//
// Repeated record fields are merged, missing ones fall back to their
// defaults. Lines starting with '#' are comments, and a line
//
//	@include "other.conf"
//
// splices another file, or every .conf file of a directory, into the input.
//
// Failures are returned as *Error, which carries the diagnostics and
// wraps diag.ErrFinal or diag.ErrRecoverable.
package tyconf

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/tyconf/bind"
	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/internal/ctxlog"
	"github.com/vk/tyconf/scanner"
	"github.com/vk/tyconf/source"
	"github.com/vk/tyconf/value"
)

// Parse parses text as a value of t. name labels the text in diagnostics
// and anchors relative include paths at the working directory.
func Parse(ctx context.Context, name, text string, t value.Type, opts ...Option) (any, error) {
	o := newOptions(opts)
	files := map[string][]byte{name: []byte(text)}
	return run(ctx, source.FromString(name, text), t, o, files)
}

// ParseFile parses the file at path as a value of t. Relative include
// paths are resolved against the directory of the including file.
func ParseFile(ctx context.Context, path string, t value.Type, opts ...Option) (any, error) {
	o := newOptions(opts)
	fo := source.NewFileOpener(o.extension)
	lines, err := fo.Load(path)
	if err != nil {
		return nil, err
	}
	if o.includes && o.opener == nil {
		o.opener = fo
	}
	return run(ctx, lines, t, o, fo.Files())
}

// Unmarshal parses data into the value dst points to. The schema is derived
// from dst's type with package bind.
func Unmarshal(ctx context.Context, name string, data []byte, dst any, opts ...Option) error {
	t, err := typeOfTarget(dst)
	if err != nil {
		return err
	}
	v, err := Parse(ctx, name, string(data), t, opts...)
	if err != nil {
		return err
	}
	return bind.Assign(dst, v)
}

// UnmarshalFile parses the file at path into the value dst points to.
func UnmarshalFile(ctx context.Context, path string, dst any, opts ...Option) error {
	t, err := typeOfTarget(dst)
	if err != nil {
		return err
	}
	v, err := ParseFile(ctx, path, t, opts...)
	if err != nil {
		return err
	}
	return bind.Assign(dst, v)
}

// Describe returns the grammar of t and of every type it refers to.
func Describe(t value.Type) string {
	return value.Format(t)
}

// DescribeFor returns the grammar of the schema derived from T.
func DescribeFor[T any]() (string, error) {
	t, err := bind.TypeFor[T]()
	if err != nil {
		return "", err
	}
	return value.Format(t), nil
}

func typeOfTarget(dst any) (value.Type, error) {
	rt := reflect.TypeOf(dst)
	if rt == nil || rt.Kind() != reflect.Pointer || reflect.ValueOf(dst).IsNil() {
		return nil, fmt.Errorf("%w, got %T", bind.ErrInvalidTarget, dst)
	}
	return bind.TypeOf(rt.Elem())
}

// run drives one parse over src. The root value must cover the whole input.
func run(ctx context.Context, src source.LineSource, t value.Type, o *options, files map[string][]byte) (any, error) {
	ctx = ctxlog.WithLogger(ctx, o.logger)
	logger := ctxlog.FromContext(ctx).With("source", src.Name(), "type", t.Name())
	logger.Debug("Parse started.", "includes", o.includes)

	var collected diag.Collector
	sink := diag.Tee(&collected, o.sink)

	var scanOpts []scanner.Option
	if o.includes {
		opener := o.opener
		if opener == nil {
			opener = source.NewFileOpener(o.extension)
		}
		if fo, ok := opener.(*source.FileOpener); ok {
			// Files() is the opener's live registry; included files loaded
			// during the parse are picked up on return.
			defer mergeFiles(files, fo.Files())
		}
		scanOpts = append(scanOpts, scanner.WithOpener(opener))
	}

	s, err := scanner.New(src, sink, scanOpts...)
	if err != nil {
		logger.Debug("Parse finished.", "ok", false, "diagnostics", collected.Len())
		return nil, newError(err, &collected, files)
	}

	v, err := t.Parse(s, sink)
	if err == nil && !s.IsAtEnd() {
		s.Errorf(0, sink, "Expected end of input after %s", t.Name())
		err = diag.ErrFinal
	}
	logger.Debug("Parse finished.", "ok", err == nil, "diagnostics", collected.Len())
	if err != nil {
		return nil, newError(err, &collected, files)
	}
	return v, nil
}

// mergeFiles adds the files an opener loaded to the set diagnostics are
// rendered against.
func mergeFiles(dst, src map[string][]byte) {
	for name, data := range src {
		if _, ok := dst[name]; !ok {
			dst[name] = data
		}
	}
}
