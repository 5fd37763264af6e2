package config

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/icflow/internal/ctxlog"
	"github.com/vk/icflow/internal/fsutil"
	"github.com/vk/icflow/internal/job"
)

const (
	defaultHost             = "localhost"
	defaultPipelineDepth    = 8
	defaultDiscoveryTimeout = 30 * time.Second
	defaultCancelGrace      = 10 * time.Second
	defaultMaxWorkers       = 1
)

// Load parses every .hcl file under the given paths and returns the fully
// expanded configuration model. A path may be a single file or a directory;
// files are merged, later files extending earlier ones. All environment
// references in path-valued fields are expanded here, once.
func Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findConfigFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, configErrorf("no .hcl configuration files found under %v", paths)
	}
	logger.Debug("Discovered configuration files.", "count", len(files))

	model := &Model{Kinds: make(map[job.Kind]*KindConfig)}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, &ConfigError{Msg: fmt.Sprintf("failed to parse %s", file), Err: diags}
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, &ConfigError{Msg: fmt.Sprintf("failed to decode %s", file), Err: diags}
		}

		if err := mergeFile(model, &root); err != nil {
			return nil, err
		}
	}

	logger.Debug("Configuration loaded.",
		"kinds", len(model.Kinds), "has_socket", model.Socket != nil)
	return model, nil
}

// mergeFile folds one decoded file into the model.
func mergeFile(model *Model, root *fileRoot) error {
	if root.Defaults != nil {
		d, err := translateDefaults(root.Defaults)
		if err != nil {
			return err
		}
		model.Defaults = d
	}
	if root.Socket != nil {
		s, err := translateSocket(root.Socket)
		if err != nil {
			return err
		}
		model.Socket = s
	}
	for _, blk := range root.Checkers {
		kc, err := translateChecker(blk)
		if err != nil {
			return err
		}
		if _, dup := model.Kinds[kc.Kind]; dup {
			return configErrorf("duplicate checker block for kind %q", kc.Kind)
		}
		model.Kinds[kc.Kind] = kc
	}
	if root.Simulation != nil {
		kc, err := translateSimulation(root.Simulation)
		if err != nil {
			return err
		}
		if _, dup := model.Kinds[job.Simulation]; dup {
			return configErrorf("duplicate simulation block")
		}
		model.Kinds[job.Simulation] = kc
	}
	return nil
}

func translateSocket(blk *socketBlock) (*Socket, error) {
	portFile, err := Expand(blk.PortFile)
	if err != nil {
		return nil, err
	}
	logFile, err := Expand(blk.LogFile)
	if err != nil {
		return nil, err
	}
	s := &Socket{
		Host:             blk.Host,
		PortFile:         portFile,
		LogFile:          logFile,
		PipelineDepth:    blk.PipelineDepth,
		DiscoveryTimeout: time.Duration(blk.DiscoveryTimeoutMS) * time.Millisecond,
	}
	if s.Host == "" {
		s.Host = defaultHost
	}
	if s.PipelineDepth <= 0 {
		s.PipelineDepth = defaultPipelineDepth
	}
	if s.DiscoveryTimeout <= 0 {
		s.DiscoveryTimeout = defaultDiscoveryTimeout
	}
	return s, nil
}

func translateDefaults(blk *defaultsBlock) (Defaults, error) {
	rootDir, err := Expand(blk.RootDir)
	if err != nil {
		return Defaults{}, err
	}
	env, err := expandMap(blk.EnvVars)
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{
		RootDir:          rootDir,
		MaxWorkers:       blk.MaxWorkers,
		Timeout:          time.Duration(blk.TimeoutMS) * time.Millisecond,
		CancelGrace:      time.Duration(blk.CancelTimeoutMS) * time.Millisecond,
		ReminderInterval: time.Duration(blk.UpdateTimeoutMS) * time.Millisecond,
		KeepTemporaries:  blk.KeepTemporaries,
		Env:              env,
	}, nil
}

func translateChecker(blk *checkerBlock) (*KindConfig, error) {
	kind, err := job.ParseKind(blk.Kind)
	if err != nil {
		return nil, &ConfigError{Msg: "invalid checker block label", Err: err}
	}
	if kind == job.Simulation {
		return nil, configErrorf("simulation is configured by its own block, not checker %q", blk.Kind)
	}
	kc := &KindConfig{
		Kind:             kind,
		Tool:             blk.Tool,
		MaxWorkers:       blk.MaxWorkers,
		Timeout:          time.Duration(blk.TimeoutMS) * time.Millisecond,
		CancelGrace:      time.Duration(blk.CancelTimeoutMS) * time.Millisecond,
		ReminderInterval: time.Duration(blk.UpdateTimeoutMS) * time.Millisecond,
	}
	if err := fillCommon(kc, blk.RootDir, blk.Template, blk.Args, blk.EnvVars, blk.Params, blk.Artifacts, blk.LinkFiles); err != nil {
		return nil, err
	}
	return kc, nil
}

func translateSimulation(blk *simulationBlock) (*KindConfig, error) {
	kc := &KindConfig{
		Kind:             job.Simulation,
		Tool:             blk.Command,
		MaxWorkers:       blk.MaxWorkers,
		Timeout:          time.Duration(blk.TimeoutMS) * time.Millisecond,
		CancelGrace:      time.Duration(blk.CancelTimeoutMS) * time.Millisecond,
		ReminderInterval: time.Duration(blk.UpdateTimeoutMS) * time.Millisecond,
	}
	if err := fillCommon(kc, blk.RootDir, blk.Template, blk.Args, blk.Env, blk.Options, blk.Artifacts, blk.LinkFiles); err != nil {
		return nil, err
	}
	return kc, nil
}

// fillCommon expands and assigns the fields shared by checker and simulation
// blocks.
func fillCommon(kc *KindConfig, rootDir, template string, args []string, env map[string]string, params cty.Value, artifacts []string, links []*linkFileBlock) error {
	var err error
	if kc.RootDir, err = Expand(rootDir); err != nil {
		return err
	}
	if kc.Args, err = expandSlice(args); err != nil {
		return err
	}
	if kc.Template, err = Expand(template); err != nil {
		return err
	}
	if kc.Env, err = expandMap(env); err != nil {
		return err
	}
	if kc.Params, err = paramsToStrings(params); err != nil {
		return err
	}
	if kc.Artifacts, err = expandSlice(artifacts); err != nil {
		return err
	}
	for _, l := range links {
		src, err := Expand(l.Source)
		if err != nil {
			return err
		}
		kc.LinkFiles = append(kc.LinkFiles, job.LinkFile{Source: src, Name: l.Name})
	}
	return nil
}

// paramsToStrings converts a params/options object into a flat string map.
// Numbers and bools are converted through cty so that e.g. thresholds keep
// their HCL rendering.
func paramsToStrings(v cty.Value) (map[string]string, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, configErrorf("params must be an object, got %s", v.Type().FriendlyName())
	}
	out := make(map[string]string, v.LengthInt())
	for key, val := range v.AsValueMap() {
		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, configErrorf("param %q is not a scalar: %v", key, err)
		}
		if str.IsNull() {
			continue
		}
		expanded, expErr := Expand(str.AsString())
		if expErr != nil {
			return nil, expErr
		}
		out[key] = expanded
	}
	return out, nil
}

// findConfigFiles resolves each path to the .hcl files beneath it. An
// explicitly configured path that does not exist is an error.
func findConfigFiles(paths []string) ([]string, error) {
	files, err := fsutil.FindByExtension(paths, ".hcl")
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("cannot access config path(s) %v", paths), Err: err}
	}
	return files, nil
}
