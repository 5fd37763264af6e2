// Package cli parses command-line arguments into an app configuration and a
// batch of flow requests.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/icflow/internal/app"
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

// Invocation is everything one CLI run asks for.
type Invocation struct {
	Config   *app.Config
	Requests []app.Request
	// Eval, when non-empty, is an expression to send to the database server
	// instead of running jobs.
	Eval string
}

// Parse processes command-line arguments. It returns a populated Invocation,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	flagSet := flag.NewFlagSet("icflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
icflow - orchestration layer for long-lived external CAD tools.

Usage:
  icflow [options] REQUEST...

Arguments:
  REQUEST
    One flow operation of the form kind:cell[:corner], where kind is one of
    drc, lvs, rcx, sim. Example: rcx:amp1:tt

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an .hcl config file or directory.")
	cFlag := flagSet.String("c", "", "Path to an .hcl config file or directory (shorthand).")
	evalFlag := flagSet.String("eval", "", "Send one expression to the database server and print the reply.")
	keepFlag := flagSet.Bool("keep-temps", false, "Keep rendered control files after job cleanup.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = *cFlag
	}
	if configPath == "" {
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

	var requests []app.Request
	for _, arg := range flagSet.Args() {
		req, err := app.ParseRequest(arg)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		requests = append(requests, req)
	}
	if len(requests) == 0 && *evalFlag == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		ConfigPath:      configPath,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		KeepTemporaries: *keepFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return &Invocation{Config: config, Requests: requests, Eval: *evalFlag}, false, nil
}
