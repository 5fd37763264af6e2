package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/icflow/internal/config"
	"github.com/vk/icflow/internal/ctxlog"
	"github.com/vk/icflow/internal/dbclient"
	"github.com/vk/icflow/internal/job"
	"github.com/vk/icflow/internal/scheduler"
)

// App encapsulates the orchestrator's dependencies, configuration and
// lifecycle: one resolver, one scheduler, and at most one database-server
// channel.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	resolver *config.Resolver
	sched    *scheduler.Scheduler
}

// NewApp constructs the application. It loads and expands the configuration
// once; a failure to load is a fatal startup error and panics, to be
// recovered at the entrypoint.
func NewApp(outW io.Writer, appConfig *Config) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := config.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	resolver := config.NewResolver(model)
	logger.Debug("Configuration loaded and expanded.", "kinds", len(resolver.Kinds()))

	caps := make(map[job.Kind]int)
	for _, kind := range resolver.Kinds() {
		caps[kind] = resolver.MaxWorkers(kind)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		resolver: resolver,
		sched:    scheduler.New(caps),
	}
}

// Resolver exposes the immutable config resolver. Primarily for testing.
func (a *App) Resolver() *config.Resolver {
	return a.resolver
}

// DialDatabase discovers the database server's endpoint through its port
// file and opens the single pipelined session to it.
func (a *App) DialDatabase(ctx context.Context) (*dbclient.Client, error) {
	sock := a.resolver.Socket()
	if sock == nil {
		return nil, &config.ConfigError{Msg: "no socket block configured"}
	}
	ctx = ctxlog.WithLogger(ctx, a.logger)

	ep, err := dbclient.DiscoverEndpoint(ctx, sock.Host, sock.PortFile, sock.DiscoveryTimeout, dbclient.BackoffConfig{})
	if err != nil {
		return nil, err
	}
	return dbclient.Dial(ctx, ep, dbclient.Options{
		PipelineDepth: sock.PipelineDepth,
		WireLog:       a.wireLogger(sock.LogFile),
	})
}

// wireLogger opens the dedicated socket wire log. Failure to open it is
// reported once and the session proceeds without it: wire logging must never
// abort a request.
func (a *App) wireLogger(path string) *slog.Logger {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		a.logger.Warn("Cannot open socket wire log, continuing without it.", "path", path, "error", err)
		return nil
	}
	return slog.New(slog.NewJSONHandler(f, nil))
}
