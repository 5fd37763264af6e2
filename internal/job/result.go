package job

import (
	"fmt"
	"strings"
)

// Summary holds the minimal structured signal parsed from a tool's output:
// counts only, no tool-specific detail.
type Summary struct {
	Errors   int
	Warnings int
}

// Result is the normalized outcome record for one job. Failed, timed-out and
// cancelled outcomes are values here, not Go errors, so batch runs can keep
// processing other jobs.
type Result struct {
	JobID  string
	Kind   Kind
	Status Status

	// ExitCode is the tool's exit code; meaningful for Succeeded and Failed.
	ExitCode int

	Summary       Summary
	ArtifactPaths []string
	RawLogPath    string

	// LogTail carries the last lines of the tool log for non-succeeded
	// outcomes, so failures are diagnosable without opening the log.
	LogTail string

	// Err records a result-level anomaly: a LaunchError for spawn failures,
	// or an IncompleteResultError when a zero-exit run is missing expected
	// artifacts. The job-level Status is not downgraded by it.
	Err error
}

// OK reports whether the job succeeded and produced a complete artifact set.
func (r Result) OK() bool {
	return r.Status == Succeeded && r.Err == nil
}

// IncompleteResultError reports expected artifacts missing after a zero-exit
// tool run. A zero exit code from these tools does not guarantee artifact
// completeness, so this is carried in the Result rather than raised.
type IncompleteResultError struct {
	Missing []string
}

func (e *IncompleteResultError) Error() string {
	return fmt.Sprintf("expected artifacts missing: %s", strings.Join(e.Missing, ", "))
}

// LaunchError reports a failure to start the tool process at all (missing
// binary, permissions), as opposed to a tool-reported failure.
type LaunchError struct {
	Tool string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Tool, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
