package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/tyconf"
	"github.com/vk/tyconf/diag"
	"github.com/vk/tyconf/internal/ctxlog"
	"github.com/vk/tyconf/schemafile"
	"github.com/vk/tyconf/value"
)

// ErrInvalidConfig is returned by Run when the configuration file does not
// parse. The diagnostics have already been written to the output by then.
var ErrInvalidConfig = errors.New("invalid configuration")

// App runs one check with its own logger.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp returns an App printing results to outW and logging to logW.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")
	return &App{outW: outW, logger: logger, config: cfg}
}

// Run loads the schema, picks the type and either describes it or checks
// the configuration file against it.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	set, err := schemafile.Load(ctx, a.config.SchemaPath)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	t, err := a.pickType(set)
	if err != nil {
		return err
	}
	a.logger.Debug("Schema type selected.", "type", t.Name())

	if a.config.Describe {
		_, err := fmt.Fprintln(a.outW, tyconf.Describe(t))
		return err
	}

	v, err := tyconf.ParseFile(ctx, a.config.ConfigPath, t, a.parseOptions()...)
	if err != nil {
		var perr *tyconf.Error
		if !errors.As(err, &perr) {
			return fmt.Errorf("failed to read configuration: %w", err)
		}
		if werr := tyconf.WriteDiagnostics(a.outW, err, nil); werr != nil {
			return werr
		}
		return fmt.Errorf("%w: %s is not a valid %s", ErrInvalidConfig, a.config.ConfigPath, t.Name())
	}

	if a.config.JSON {
		data, err := tyconf.MarshalJSON(t, v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.outW, "%s\n", data)
		return err
	}

	a.logger.Info("Configuration is valid.", "path", a.config.ConfigPath, "type", t.Name())
	_, err = fmt.Fprintf(a.outW, "%s: ok\n", a.config.ConfigPath)
	return err
}

func (a *App) pickType(set *schemafile.Set) (value.Type, error) {
	if a.config.TypeName == "" {
		t, err := set.Root()
		if err != nil {
			return nil, fmt.Errorf("no type selected: %w", err)
		}
		return t, nil
	}
	t, ok := set.Lookup(a.config.TypeName)
	if !ok {
		return nil, fmt.Errorf("schema %s declares no type %s (declared: %s)",
			a.config.SchemaPath, a.config.TypeName, strings.Join(set.Names(), ", "))
	}
	return t, nil
}

func (a *App) parseOptions() []tyconf.Option {
	opts := []tyconf.Option{tyconf.WithLogger(a.logger)}
	if a.config.NoIncludes {
		opts = append(opts, tyconf.WithoutIncludes())
	}
	if a.config.Extension != "" {
		opts = append(opts, tyconf.WithExtension(a.config.Extension))
	}
	if a.config.LogDiagnostics {
		opts = append(opts, tyconf.WithSink(diag.LogSink(a.logger)))
	}
	return opts
}
