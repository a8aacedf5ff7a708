package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/evalgrid/evalgrid/internal/app"
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
	flagSet := flag.NewFlagSet("evalgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
EvalGrid - Declarative large-model evaluation pipelines on managed infrastructure.

Usage:
  evalgrid [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to the YAML pipeline description.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the YAML pipeline description.")
	cFlag := flagSet.String("c", "", "Path to the YAML pipeline description (shorthand).")
	inputDataFlag := flagSet.String("input-data-path", "", "Object-store root holding the input data, e.g. s3://bucket/prefix. Defaults to the account's artifact bucket.")
	roleFlag := flagSet.String("role-arn", "", "Execution role ARN assumed by the remote pipeline steps.")
	regionFlag := flagSet.String("region", "", "Platform region. Defaults to the environment's resolved region.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Render and print the pipeline definition without submitting it.")
	waitFlag := flagSet.Bool("wait", false, "Block until the started execution reaches a terminal status.")
	pollFlag := flagSet.Duration("poll-interval", 0, "How often to poll a waited-on execution. 0 selects the default.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Config path determined.", "path", path)

	if path == "" {
		slog.Debug("No config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *pollFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid poll-interval: must not be negative"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:    path,
		InputDataPath: *inputDataFlag,
		RoleARN:       *roleFlag,
		Region:        *regionFlag,
		DryRun:        *dryRunFlag,
		Wait:          *waitFlag,
		PollInterval:  *pollFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
