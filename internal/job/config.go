package job

import "time"

// LinkFile is one (source path, link name) pair materialized into the run
// directory before the tool process starts. Order matters: later links may
// legitimately shadow earlier ones.
type LinkFile struct {
	Source string
	Name   string
}

// Config is a fully resolved job configuration. Every path has already been
// environment-expanded by the config layer; nothing here is re-expanded at
// use time.
type Config struct {
	Kind Kind

	// Tool is the external-tool command resolved from the tool selector.
	Tool string
	// Args are fixed arguments placed before the control-file path.
	Args []string

	// RootDir is the exclusive run directory for this job. It is created if
	// missing before launch.
	RootDir string

	// Environment is applied on top of the ambient process environment;
	// resolved keys override ambient keys of the same name.
	Environment map[string]string

	LinkFiles    []LinkFile
	TemplatePath string

	// Params feed the template variable context alongside the per-request
	// variables (cell name, corner, netlist path).
	Params map[string]string

	// Artifacts are the expected output files, relative to RootDir unless
	// absolute. Entries may contain {{ name }} placeholders resolved with
	// the same variable context as the control file.
	Artifacts []string

	Timeout          time.Duration
	CancelGrace      time.Duration
	ReminderInterval time.Duration

	// KeepTemporaries preserves the rendered control file and run artifacts
	// past job cleanup.
	KeepTemporaries bool
}
