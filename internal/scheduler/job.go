package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vk/icflow/internal/job"
	"github.com/vk/icflow/internal/render"
)

// Job is one scheduled external-tool invocation. It is created by Submit and
// owned by the scheduler; callers observe it through Status, Done and the
// post-completion accessors.
type Job struct {
	ID          string
	Config      job.Config
	ControlFile *render.ControlFile

	StartedAt time.Time
	Deadline  time.Time

	state atomic.Int32

	// exitCode and err are written by the run goroutine before done is
	// closed; reading them is only valid after Done.
	exitCode int
	err      error
	logPath  string

	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan struct{}
}

func newJob(cfg job.Config, ctl *render.ControlFile) *Job {
	j := &Job{
		ID:          uuid.NewString(),
		Config:      cfg,
		ControlFile: ctl,
		cancelCh:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	j.state.Store(int32(job.Queued))
	return j
}

// Status returns the job's current lifecycle state.
func (j *Job) Status() job.Status {
	return job.Status(j.state.Load())
}

func (j *Job) setStatus(s job.Status) {
	j.state.Store(int32(s))
}

// Done is closed once the job has reached a terminal state and its process
// handle has been released.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel requests cancellation. A queued job is removed from its queue; a
// running job gets the cooperative-then-forced termination sequence.
// Cancelling a finished job is a no-op.
func (j *Job) Cancel() {
	j.cancelOnce.Do(func() { close(j.cancelCh) })
}

// ExitCode returns the tool's exit code. Valid only after Done; -1 when the
// process never exited normally.
func (j *Job) ExitCode() int {
	return j.exitCode
}

// Err returns the launch error, if the tool process could not be started.
func (j *Job) Err() error {
	return j.err
}

// LogPath returns the path of the captured tool output, or empty if the job
// never started.
func (j *Job) LogPath() string {
	return j.logPath
}
