package config

import "github.com/zclconf/go-cty/cty"

// fileRoot is the decode target for every top-level block in a config file.
type fileRoot struct {
	Socket     *socketBlock     `hcl:"socket,block"`
	Defaults   *defaultsBlock   `hcl:"defaults,block"`
	Checkers   []*checkerBlock  `hcl:"checker,block"`
	Simulation *simulationBlock `hcl:"simulation,block"`
}

type socketBlock struct {
	Host               string `hcl:"host,optional"`
	PortFile           string `hcl:"port_file"`
	LogFile            string `hcl:"log_file,optional"`
	PipelineDepth      int    `hcl:"pipeline_depth,optional"`
	DiscoveryTimeoutMS int64  `hcl:"discovery_timeout_ms,optional"`
}

type linkFileBlock struct {
	Source string `hcl:"source"`
	Name   string `hcl:"name"`
}

// checkerBlock configures one verification-checker kind. The label is the
// kind name (drc, lvs, rcx or a canonical long form).
type checkerBlock struct {
	Kind            string            `hcl:"kind,label"`
	Tool            string            `hcl:"tool_selector"`
	Args            []string          `hcl:"args,optional"`
	MaxWorkers      int               `hcl:"max_workers,optional"`
	RootDir         string            `hcl:"root_dir,optional"`
	Template        string            `hcl:"template"`
	EnvVars         map[string]string `hcl:"env_vars,optional"`
	Params          cty.Value         `hcl:"params,optional"`
	Artifacts       []string          `hcl:"artifacts,optional"`
	TimeoutMS       int64             `hcl:"timeout_ms,optional"`
	CancelTimeoutMS int64             `hcl:"cancel_timeout_ms,optional"`
	UpdateTimeoutMS int64             `hcl:"update_timeout_ms,optional"`
	LinkFiles       []*linkFileBlock  `hcl:"link_file,block"`
}

type simulationBlock struct {
	Command         string            `hcl:"command"`
	Args            []string          `hcl:"args,optional"`
	MaxWorkers      int               `hcl:"max_workers,optional"`
	RootDir         string            `hcl:"root_dir,optional"`
	Template        string            `hcl:"template"`
	Env             map[string]string `hcl:"env,optional"`
	Options         cty.Value         `hcl:"options,optional"`
	Artifacts       []string          `hcl:"artifacts,optional"`
	TimeoutMS       int64             `hcl:"timeout_ms,optional"`
	CancelTimeoutMS int64             `hcl:"cancel_timeout_ms,optional"`
	UpdateTimeoutMS int64             `hcl:"update_timeout_ms,optional"`
	LinkFiles       []*linkFileBlock  `hcl:"link_file,block"`
}

type defaultsBlock struct {
	RootDir         string            `hcl:"root_dir,optional"`
	MaxWorkers      int               `hcl:"max_workers,optional"`
	TimeoutMS       int64             `hcl:"timeout_ms,optional"`
	CancelTimeoutMS int64             `hcl:"cancel_timeout_ms,optional"`
	UpdateTimeoutMS int64             `hcl:"update_timeout_ms,optional"`
	KeepTemporaries bool              `hcl:"keep_temporaries,optional"`
	EnvVars         map[string]string `hcl:"env_vars,optional"`
}
