package config

import (
	"maps"
	"time"

	"github.com/vk/icflow/internal/job"
)

// Overrides are the per-operation parameters a caller supplies on top of the
// configured blocks. Zero values mean "not overridden".
type Overrides struct {
	Tool     string
	RootDir  string
	Template string
	Timeout  time.Duration

	Env       map[string]string
	Params    map[string]string
	Artifacts []string

	KeepTemporaries *bool
}

// Resolver turns (kind, overrides) pairs into fully resolved job
// configurations. It is constructed once at startup from the loaded model
// and never mutated; resolution is a pure function of its inputs.
type Resolver struct {
	model *Model
}

// NewResolver wraps a loaded model.
func NewResolver(model *Model) *Resolver {
	return &Resolver{model: model}
}

// Socket returns the socket-channel configuration, or nil when none is
// configured.
func (r *Resolver) Socket() *Socket {
	return r.model.Socket
}

// Kinds returns the kinds that have a configuration block.
func (r *Resolver) Kinds() []job.Kind {
	var kinds []job.Kind
	for _, k := range job.Kinds() {
		if _, ok := r.model.Kinds[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// MaxWorkers returns the effective concurrency cap for a kind.
func (r *Resolver) MaxWorkers(kind job.Kind) int {
	kc, ok := r.model.Kinds[kind]
	if !ok {
		return 0
	}
	return pickInt(kc.MaxWorkers, r.model.Defaults.MaxWorkers, defaultMaxWorkers)
}

// Resolve produces the job configuration for one operation. Precedence,
// highest first: explicit overrides, the per-kind block, process-wide
// defaults.
func (r *Resolver) Resolve(kind job.Kind, ov Overrides) (job.Config, error) {
	kc, ok := r.model.Kinds[kind]
	if !ok {
		return job.Config{}, configErrorf("no configuration block for kind %q", kind)
	}
	def := r.model.Defaults

	cfg := job.Config{
		Kind:             kind,
		Tool:             pickString(ov.Tool, kc.Tool, ""),
		Args:             append([]string(nil), kc.Args...),
		RootDir:          pickString(ov.RootDir, kc.RootDir, def.RootDir),
		TemplatePath:     pickString(ov.Template, kc.Template, ""),
		Environment:      mergeMaps(def.Env, kc.Env, ov.Env),
		Params:           mergeMaps(nil, kc.Params, ov.Params),
		LinkFiles:        append([]job.LinkFile(nil), kc.LinkFiles...),
		Artifacts:        pickSlice(ov.Artifacts, kc.Artifacts),
		Timeout:          pickDuration(ov.Timeout, kc.Timeout, def.Timeout),
		CancelGrace:      pickDuration(0, kc.CancelGrace, def.CancelGrace),
		ReminderInterval: pickDuration(0, kc.ReminderInterval, def.ReminderInterval),
		KeepTemporaries:  def.KeepTemporaries,
	}
	if ov.KeepTemporaries != nil {
		cfg.KeepTemporaries = *ov.KeepTemporaries
	}
	if cfg.CancelGrace <= 0 {
		cfg.CancelGrace = defaultCancelGrace
	}

	if cfg.Tool == "" {
		return job.Config{}, configErrorf("kind %q resolves to an empty tool selector", kind)
	}
	if cfg.TemplatePath == "" {
		return job.Config{}, configErrorf("kind %q resolves to an empty template path", kind)
	}
	if cfg.RootDir == "" {
		return job.Config{}, configErrorf("kind %q resolves to an empty root directory", kind)
	}
	return cfg, nil
}

func pickString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pickInt(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func pickDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func pickSlice(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return append([]string(nil), v...)
		}
	}
	return nil
}

// mergeMaps layers maps lowest-precedence first.
func mergeMaps(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
