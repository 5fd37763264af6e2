// Package collect maps finished jobs onto normalized outcome records. It
// verifies the kind-specific expected artifacts and parses only the minimal
// structured signal from tool logs: error and warning counts, never
// tool-specific detail.
package collect

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/vk/icflow/internal/ctxlog"
	"github.com/vk/icflow/internal/job"
	"github.com/vk/icflow/internal/render"
	"github.com/vk/icflow/internal/scheduler"
)

// Collect normalizes one terminal job into a Result. vars is the same
// variable context the job's control file was rendered with, so artifact
// name templates like "{{ cell_name }}.spf" resolve identically.
//
// A zero-exit run with missing expected artifacts keeps Status Succeeded but
// carries an IncompleteResultError, since these tools' exit codes do not
// guarantee artifact completeness.
func Collect(ctx context.Context, j *scheduler.Job, vars render.Context) job.Result {
	logger := ctxlog.FromContext(ctx).With("jobID", j.ID, "kind", j.Config.Kind.String())

	res := job.Result{
		JobID:      j.ID,
		Kind:       j.Config.Kind,
		Status:     j.Status(),
		ExitCode:   j.ExitCode(),
		RawLogPath: j.LogPath(),
		Err:        j.Err(),
	}

	if res.RawLogPath != "" {
		res.Summary = parseSummary(res.RawLogPath)
		if res.Status != job.Succeeded {
			res.LogTail = readTail(res.RawLogPath, tailBytes)
		}
	}

	if res.Status != job.Succeeded || res.Err != nil {
		return res
	}

	present, missing, err := checkArtifacts(j.Config, vars)
	if err != nil {
		// A bad artifact template is a result anomaly, not a job failure.
		res.Err = err
		return res
	}
	res.ArtifactPaths = present
	if len(missing) > 0 {
		logger.Warn("Tool exited zero but artifacts are missing.", "missing", missing)
		res.Err = &job.IncompleteResultError{Missing: missing}
	}
	return res
}

// checkArtifacts expands each expected artifact name and splits them into
// present and missing paths. Relative entries resolve against the run
// directory.
func checkArtifacts(cfg job.Config, vars render.Context) (present, missing []string, err error) {
	for _, tmpl := range cfg.Artifacts {
		name, err := render.ExpandString(tmpl, vars)
		if err != nil {
			return nil, nil, err
		}
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.RootDir, name)
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			missing = append(missing, name)
		} else {
			present = append(present, path)
		}
	}
	return present, missing, nil
}
