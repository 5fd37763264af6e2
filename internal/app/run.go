package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/icflow/internal/collect"
	"github.com/vk/icflow/internal/config"
	"github.com/vk/icflow/internal/ctxlog"
	"github.com/vk/icflow/internal/job"
	"github.com/vk/icflow/internal/render"
	"github.com/vk/icflow/internal/scheduler"
)

// preparedJob pairs a submitted job with the variable context its control
// file was rendered from, so artifact templates resolve identically.
type preparedJob struct {
	cfg  job.Config
	ctl  *render.ControlFile
	vars render.Context
}

// Run resolves, renders, schedules and collects a batch of requests.
// Configuration and template errors are fatal and surface before any process
// is launched; job failures are values inside the returned results.
func (a *App) Run(ctx context.Context, requests []Request) ([]job.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if len(requests) == 0 {
		a.logger.Warn("No requests given, nothing to run.")
		return nil, nil
	}

	// Phase 1: resolve and render everything up front, so a bad request
	// cannot fail a batch midway with processes already running.
	prepared := make([]preparedJob, 0, len(requests))
	used := make(map[string]struct{}, len(requests))
	for _, req := range requests {
		p, err := a.prepare(req, uniqueRunName(req, used))
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, p)
	}

	// Phase 2: submit everything; the scheduler enforces the per-kind caps.
	jobs := make([]*scheduler.Job, len(prepared))
	for i, p := range prepared {
		j, err := a.sched.Submit(ctx, p.cfg, p.ctl)
		if err != nil {
			return nil, err
		}
		jobs[i] = j
		a.logger.Info("Job submitted.", "jobID", j.ID, "kind", p.cfg.Kind.String())
	}

	// Phase 3: await completion, normalize outcomes, drop the job records.
	results := make([]job.Result, len(jobs))
	for i, j := range jobs {
		<-j.Done()
		results[i] = collect.Collect(ctx, j, prepared[i].vars)
		a.sched.Release(j.ID)
	}
	return results, nil
}

// uniqueRunName derives the run-directory name for a request and reserves it
// in used. Repeated (kind, cell, corner) tuples in one batch get a numeric
// suffix, so every job keeps an exclusive working tree.
func uniqueRunName(req Request, used map[string]struct{}) string {
	name := req.Kind.Short() + "_" + req.Cell
	if req.Corner != "" {
		name += "_" + req.Corner
	}
	if _, dup := used[name]; dup {
		base := name
		for n := 2; ; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
			if _, dup := used[name]; !dup {
				break
			}
		}
	}
	used[name] = struct{}{}
	return name
}

// prepare resolves one request into a job config and renders its control
// file into the job's exclusive run directory.
func (a *App) prepare(req Request, runName string) (preparedJob, error) {
	ov := config.Overrides{Params: req.Params}
	if a.config.KeepTemporaries {
		keep := true
		ov.KeepTemporaries = &keep
	}

	cfg, err := a.resolver.Resolve(req.Kind, ov)
	if err != nil {
		return preparedJob{}, err
	}

	// Run directories are exclusive per job: no two concurrent jobs share a
	// working tree.
	cfg.RootDir = filepath.Join(cfg.RootDir, runName)

	vars := make(render.Context, len(cfg.Params)+4)
	for k, v := range cfg.Params {
		vars[k] = v
	}
	vars["cell_name"] = req.Cell
	vars["corner"] = req.Corner
	vars["run_dir"] = cfg.RootDir
	if _, ok := vars["netlist"]; !ok {
		vars["netlist"] = filepath.Join(cfg.RootDir, req.Cell+".netlist")
	}

	ctlPath := filepath.Join(cfg.RootDir, "control"+filepath.Ext(cfg.TemplatePath))
	ctl, err := render.RenderFile(cfg.TemplatePath, ctlPath, vars)
	if err != nil {
		return preparedJob{}, err
	}
	a.logger.Debug("Control file rendered.",
		"kind", req.Kind.String(), "cell", req.Cell, "path", ctl.Path)

	return preparedJob{cfg: cfg, ctl: ctl, vars: vars}, nil
}

// Summarize logs one line per result and reports whether every job
// succeeded with a complete artifact set.
func (a *App) Summarize(results []job.Result) bool {
	ok := true
	for _, res := range results {
		attrs := []any{
			"jobID", res.JobID,
			"kind", res.Kind.String(),
			"status", res.Status.String(),
			"errors", res.Summary.Errors,
			"warnings", res.Summary.Warnings,
		}
		if res.OK() {
			a.logger.Info("Job result.", attrs...)
			continue
		}
		ok = false
		if res.Err != nil {
			attrs = append(attrs, "anomaly", res.Err.Error())
		}
		if res.Status == job.Failed {
			attrs = append(attrs, "exitCode", res.ExitCode)
		}
		a.logger.Error(fmt.Sprintf("Job did not complete cleanly (log: %s).", res.RawLogPath), attrs...)
	}
	return ok
}
