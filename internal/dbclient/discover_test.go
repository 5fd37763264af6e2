package dbclient

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverEndpoint_PortFilePresent(t *testing.T) {
	t.Parallel()
	portFile := filepath.Join(t.TempDir(), "server.port")
	require.NoError(t, os.WriteFile(portFile, []byte("4815\n"), 0o644))

	ep, err := DiscoverEndpoint(context.Background(), "localhost", portFile, time.Second, BackoffConfig{})
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Host: "localhost", Port: 4815}, ep)
	assert.Equal(t, "localhost:4815", ep.Addr())
}

func TestDiscoverEndpoint_AbsentFileTimesOut(t *testing.T) {
	t.Parallel()
	portFile := filepath.Join(t.TempDir(), "never.port")

	start := time.Now()
	_, err := DiscoverEndpoint(context.Background(), "localhost", portFile, 300*time.Millisecond, BackoffConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second, "discovery must fail, not hang")
}

func TestDiscoverEndpoint_FileAppearsMidPoll(t *testing.T) {
	t.Parallel()
	portFile := filepath.Join(t.TempDir(), "server.port")

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = os.WriteFile(portFile, []byte("9021"), 0o644)
	}()

	ep, err := DiscoverEndpoint(context.Background(), "localhost", portFile, 5*time.Second, BackoffConfig{})
	require.NoError(t, err)
	assert.Equal(t, 9021, ep.Port)
}

func TestDiscoverEndpoint_MalformedContentKeepsPolling(t *testing.T) {
	t.Parallel()
	portFile := filepath.Join(t.TempDir(), "server.port")
	require.NoError(t, os.WriteFile(portFile, []byte("not-a-port"), 0o644))

	// The server may still be mid-write; a garbled file is retried, and a
	// later rewrite wins.
	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = os.WriteFile(portFile, []byte("7777"), 0o644)
	}()

	ep, err := DiscoverEndpoint(context.Background(), "localhost", portFile, 5*time.Second, BackoffConfig{})
	require.NoError(t, err)
	assert.Equal(t, 7777, ep.Port)
}

func TestDiscoverEndpoint_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := DiscoverEndpoint(ctx, "localhost", filepath.Join(t.TempDir(), "never.port"), time.Minute, BackoffConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerUnavailable)
}

func TestNextBackoffDelay_Grows(t *testing.T) {
	t.Parallel()
	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2.0, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, nextBackoffDelay(cfg, 1, nil))
	assert.Equal(t, 200*time.Millisecond, nextBackoffDelay(cfg, 2, nil))
	assert.Equal(t, 400*time.Millisecond, nextBackoffDelay(cfg, 3, nil))
	assert.Equal(t, time.Second, nextBackoffDelay(cfg, 10, nil), "delay is clamped at MaxDelay")
}
