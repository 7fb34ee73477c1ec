package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/tyconf/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("tyconf", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
tyconf - check configuration files against a typed schema.

Usage:
  tyconf -schema SCHEMA [options] CONFIG_PATH
  tyconf -schema SCHEMA -describe [-type NAME]

Arguments:
  CONFIG_PATH
    Path to the configuration file to check.

Options:
`)
		flagSet.PrintDefaults()
	}

	schemaFlag := flagSet.String("schema", "", "Path to the schema document (.hcl, .yaml, .yml or .toml).")
	sFlag := flagSet.String("s", "", "Path to the schema document (shorthand).")
	typeFlag := flagSet.String("type", "", "Schema type to check against. Defaults to the document root.")
	describeFlag := flagSet.Bool("describe", false, "Print the grammar of the type and exit.")
	jsonFlag := flagSet.Bool("json", false, "Print the parsed configuration as JSON.")
	noIncludesFlag := flagSet.Bool("no-includes", false, "Treat @include lines as ordinary content.")
	extFlag := flagSet.String("ext", "", "File extension picked up by directory includes. Defaults to .conf.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'trace', 'debug', 'info', 'warn', 'error'.")
	logDiagsFlag := flagSet.Bool("log-diagnostics", false, "Also log every diagnostic at warn level.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	schemaPath := *schemaFlag
	if schemaPath == "" {
		schemaPath = *sFlag
	}
	if schemaPath == "" && flagSet.NArg() == 0 {
		slog.Debug("No schema or config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected one config path, got %d", flagSet.NArg())}
	}

	ext := *extFlag
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'trace', 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		SchemaPath:     schemaPath,
		ConfigPath:     flagSet.Arg(0),
		TypeName:       *typeFlag,
		Describe:       *describeFlag,
		JSON:           *jsonFlag,
		NoIncludes:     *noIncludesFlag,
		Extension:      ext,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		LogDiagnostics: *logDiagsFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
