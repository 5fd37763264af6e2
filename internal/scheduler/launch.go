package scheduler

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vk/icflow/internal/ctxlog"
	"github.com/vk/icflow/internal/job"
)

// logFileName is the per-job tool output capture inside the run directory.
// Run directories are exclusive to one job, so the name is fixed.
const logFileName = "run.log"

// execute launches the tool process for a running job and drives it to a
// terminal state. Launch failures leave the job failed with a LaunchError in
// j.err; everything after a successful start is reported through status and
// exit code.
func (s *Scheduler) execute(ctx context.Context, j *Job) {
	logger := ctxlog.FromContext(ctx).With("jobID", j.ID, "kind", j.Config.Kind.String())
	cfg := j.Config

	if err := ensureRunDir(cfg.RootDir); err != nil {
		j.fail(&job.LaunchError{Tool: cfg.Tool, Err: err})
		return
	}
	if err := materializeLinks(cfg.RootDir, cfg.LinkFiles); err != nil {
		j.fail(&job.LaunchError{Tool: cfg.Tool, Err: err})
		return
	}

	j.logPath = filepath.Join(cfg.RootDir, logFileName)
	logFile, err := os.Create(j.logPath)
	if err != nil {
		j.fail(&job.LaunchError{Tool: cfg.Tool, Err: err})
		return
	}
	defer logFile.Close()

	args := append(append([]string(nil), cfg.Args...), j.ControlFile.Path)
	cmd := exec.Command(cfg.Tool, args...)
	cmd.Dir = cfg.RootDir
	cmd.Env = mergedEnv(cfg.Environment)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		j.fail(&job.LaunchError{Tool: cfg.Tool, Err: err})
		return
	}

	j.StartedAt = time.Now()
	if cfg.Timeout > 0 {
		j.Deadline = j.StartedAt.Add(cfg.Timeout)
	}
	defer j.cleanup()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var deadlineCh <-chan time.Time
	if cfg.Timeout > 0 {
		deadline := time.NewTimer(cfg.Timeout)
		defer deadline.Stop()
		deadlineCh = deadline.C
	}

	var remindCh <-chan time.Time
	if cfg.ReminderInterval > 0 {
		reminder := time.NewTicker(cfg.ReminderInterval)
		defer reminder.Stop()
		remindCh = reminder.C
	}

	for {
		select {
		case err := <-waitCh:
			j.exitCode = exitCode(err)
			if err == nil {
				j.setStatus(job.Succeeded)
			} else {
				j.setStatus(job.Failed)
			}
			return

		case <-deadlineCh:
			logger.Warn("Job deadline elapsed, terminating.", "timeout", cfg.Timeout)
			s.terminate(ctx, cmd, cfg.CancelGrace, waitCh)
			j.exitCode = -1
			j.setStatus(job.TimedOut)
			return

		case <-j.cancelCh:
			logger.Info("Job cancellation requested, terminating.")
			s.terminate(ctx, cmd, cfg.CancelGrace, waitCh)
			j.exitCode = -1
			j.setStatus(job.Cancelled)
			return

		case <-ctx.Done():
			logger.Info("Context cancelled, terminating job.")
			s.terminate(ctx, cmd, cfg.CancelGrace, waitCh)
			j.exitCode = -1
			j.setStatus(job.Cancelled)
			return

		case <-remindCh:
			logger.Info("Job still running.",
				"elapsed", time.Since(j.StartedAt).Round(time.Second).String())
		}
	}
}

// terminate applies the cooperative-then-forced sequence: SIGTERM, wait out
// the grace period, then SIGKILL. It returns once the process has exited.
func (s *Scheduler) terminate(ctx context.Context, cmd *exec.Cmd, grace time.Duration, waitCh <-chan error) {
	logger := ctxlog.FromContext(ctx)
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		logger.Debug("Cooperative signal failed, killing.", "error", err)
		_ = cmd.Process.Kill()
		<-waitCh
		return
	}

	graceTimer := time.NewTimer(grace)
	defer graceTimer.Stop()
	select {
	case <-waitCh:
	case <-graceTimer.C:
		logger.Warn("Grace period elapsed, killing process.")
		_ = cmd.Process.Kill()
		<-waitCh
	}
}

// fail records a launch failure: the process never ran.
func (j *Job) fail(err error) {
	j.err = err
	j.exitCode = -1
	j.setStatus(job.Failed)
}

// cleanup removes the rendered control file unless the job keeps its
// temporaries.
func (j *Job) cleanup() {
	if j.Config.KeepTemporaries || j.ControlFile == nil {
		return
	}
	_ = os.Remove(j.ControlFile.Path)
}

// ensureRunDir creates the run directory. Creation is retried once to ride
// out transient directory-creation races on shared filesystems.
func ensureRunDir(dir string) error {
	err := os.MkdirAll(dir, 0o755)
	if err == nil {
		return nil
	}
	time.Sleep(50 * time.Millisecond)
	return os.MkdirAll(dir, 0o755)
}

// materializeLinks places the configured link files into the run directory,
// in order. Existing links are replaced.
func materializeLinks(dir string, links []job.LinkFile) error {
	for _, l := range links {
		target := filepath.Join(dir, l.Name)
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.Symlink(l.Source, target); err != nil {
			return err
		}
	}
	return nil
}

// mergedEnv applies the resolved environment on top of the ambient process
// environment; resolved keys win.
func mergedEnv(resolved map[string]string) []string {
	if len(resolved) == 0 {
		return nil // exec uses the ambient environment
	}
	env := os.Environ()
	for k, v := range resolved {
		env = append(env, k+"="+v)
	}
	return env
}

// exitCode extracts the process exit code from cmd.Wait's error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
