package dbclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vk/icflow/internal/ctxlog"
)

// ErrServerUnavailable marks a discovery that did not find a ready server
// within the configured timeout.
var ErrServerUnavailable = errors.New("dbclient: database server unavailable")

// Endpoint is the runtime-discovered server address. The port is produced by
// the server at its own startup and published through the port file; it is
// never static configuration.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// DiscoverEndpoint polls for the port file until it appears with a parseable
// port number, backing off between attempts. The file's appearance is the
// readiness signal and its content is authoritative. Fails with
// ErrServerUnavailable once the timeout elapses.
func DiscoverEndpoint(ctx context.Context, host, portFile string, timeout time.Duration, backoff BackoffConfig) (Endpoint, error) {
	logger := ctxlog.FromContext(ctx)
	if backoff.InitialDelay <= 0 {
		backoff = defaultBackoff()
	}

	deadline := time.Now().Add(timeout)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 1; ; attempt++ {
		port, err := readPortFile(portFile)
		if err == nil {
			logger.Debug("Server endpoint discovered.", "host", host, "port", port, "attempts", attempt)
			return Endpoint{Host: host, Port: port}, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			// The file exists but is unreadable or garbled; the server may
			// still be mid-write, so keep polling until the deadline.
			logger.Debug("Port file not ready.", "path", portFile, "error", err)
		}

		delay := nextBackoffDelay(backoff, attempt, rng)
		if time.Now().Add(delay).After(deadline) {
			return Endpoint{}, fmt.Errorf("%w: port file %s did not appear within %s",
				ErrServerUnavailable, portFile, timeout)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Endpoint{}, fmt.Errorf("%w: %v", ErrServerUnavailable, ctx.Err())
		}
	}
}

// readPortFile parses the port number from the discovery file.
func readPortFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("malformed port file %s: %w", path, err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port file %s holds invalid port %d", path, port)
	}
	return port, nil
}
