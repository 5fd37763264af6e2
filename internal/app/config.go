package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/icflow/internal/job"
)

// Config holds everything an App instance needs to run.
type Config struct {
	// ConfigPath is an .hcl file or a directory of .hcl files.
	ConfigPath string

	LogFormat string
	LogLevel  string

	// KeepTemporaries preserves rendered control files past job cleanup,
	// overriding the configured default when true.
	KeepTemporaries bool
}

// NewConfig validates an app configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}

// Request is one flow operation: run a job of some kind for a cell,
// optionally at a named process corner.
type Request struct {
	Kind   job.Kind
	Cell   string
	Corner string
	// Params are explicit caller overrides merged over the configured
	// parameter block at highest precedence.
	Params map[string]string
}

// ParseRequest parses the command-line request form "kind:cell[:corner]",
// e.g. "rcx:amp1" or "sim:amp1:tt".
func ParseRequest(s string) (Request, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Request{}, fmt.Errorf("invalid request %q: want kind:cell[:corner]", s)
	}
	kind, err := job.ParseKind(parts[0])
	if err != nil {
		return Request{}, fmt.Errorf("invalid request %q: %w", s, err)
	}
	if parts[1] == "" {
		return Request{}, fmt.Errorf("invalid request %q: empty cell name", s)
	}
	req := Request{Kind: kind, Cell: parts[1]}
	if len(parts) == 3 {
		req.Corner = parts[2]
	}
	return req, nil
}
