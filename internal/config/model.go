package config

import (
	"time"

	"github.com/vk/icflow/internal/job"
)

// Socket is the resolved configuration of the database-server channel.
type Socket struct {
	Host string
	// PortFile is the well-known file the server writes its listening port
	// to at startup. Runtime-discovered state, not static config.
	PortFile string
	// LogFile receives the dedicated wire log. Empty disables it.
	LogFile          string
	PipelineDepth    int
	DiscoveryTimeout time.Duration
}

// KindConfig is the per-job-kind configuration block, after environment
// expansion but before defaults and caller overrides are merged in.
type KindConfig struct {
	Kind job.Kind
	Tool string
	// Args are fixed tool arguments placed before the control-file path.
	Args       []string
	MaxWorkers int
	RootDir    string
	Template   string
	Env        map[string]string
	LinkFiles  []job.LinkFile
	Params     map[string]string
	Artifacts  []string

	Timeout          time.Duration
	CancelGrace      time.Duration
	ReminderInterval time.Duration
}

// Defaults is the process-wide configuration merged under every kind block.
type Defaults struct {
	RootDir          string
	MaxWorkers       int
	Timeout          time.Duration
	CancelGrace      time.Duration
	ReminderInterval time.Duration
	KeepTemporaries  bool
	Env              map[string]string
}

// Model is the loaded, fully expanded configuration.
type Model struct {
	Socket   *Socket
	Kinds    map[job.Kind]*KindConfig
	Defaults Defaults
}
