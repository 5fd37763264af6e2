package config

import (
	"errors"
	"fmt"
)

// ErrUndefinedVariable marks a reference to an environment variable that is
// not set and has no default.
var ErrUndefinedVariable = errors.New("undefined environment variable")

// ConfigError reports bad or missing configuration. It is fatal to the
// requested operation and never retried.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return "config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
