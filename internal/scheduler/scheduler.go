package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/icflow/internal/ctxlog"
	"github.com/vk/icflow/internal/job"
	"github.com/vk/icflow/internal/render"
)

// Scheduler admits jobs per kind while that kind's running count is below
// its configured cap. It is safe for concurrent use.
type Scheduler struct {
	slots map[job.Kind]chan struct{}

	mu   sync.Mutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

// New builds a scheduler with the given per-kind concurrency caps. Kinds
// absent from caps cannot be submitted.
func New(caps map[job.Kind]int) *Scheduler {
	slots := make(map[job.Kind]chan struct{}, len(caps))
	for kind, limit := range caps {
		if limit < 1 {
			limit = 1
		}
		slots[kind] = make(chan struct{}, limit)
	}
	return &Scheduler{
		slots: slots,
		jobs:  make(map[string]*Job),
	}
}

// Submit queues one job. The returned Job is already registered; its run
// goroutine waits for a free slot of the job's kind, then executes the tool
// process to a terminal state.
func (s *Scheduler) Submit(ctx context.Context, cfg job.Config, ctl *render.ControlFile) (*Job, error) {
	slot, ok := s.slots[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("scheduler: no worker pool for kind %q", cfg.Kind)
	}

	j := newJob(cfg, ctl)
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, j, slot)
	return j, nil
}

// Job looks up a submitted job by id.
func (s *Scheduler) Job(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// Cancel requests cancellation of a job by id. It reports whether the id was
// known.
func (s *Scheduler) Cancel(id string) bool {
	j, ok := s.Job(id)
	if ok {
		j.Cancel()
	}
	return ok
}

// Release drops the record of a terminal job once its results have been
// consumed, so a long-lived scheduler does not accumulate finished jobs.
// Releasing an unknown or still-active job is a no-op.
func (s *Scheduler) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok && j.Status().Terminal() {
		delete(s.jobs, id)
	}
}

// Wait blocks until every submitted job has reached a terminal state.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// run carries one job from queued to a terminal state.
func (s *Scheduler) run(ctx context.Context, j *Job, slot chan struct{}) {
	defer s.wg.Done()
	defer close(j.done)

	logger := ctxlog.FromContext(ctx).With("jobID", j.ID, "kind", j.Config.Kind.String())

	// Admission: wait for a slot of this kind. A job cancelled while queued
	// is simply removed.
	select {
	case slot <- struct{}{}:
	case <-j.cancelCh:
		logger.Info("Job cancelled while queued.")
		j.setStatus(job.Cancelled)
		return
	case <-ctx.Done():
		logger.Info("Job abandoned while queued.", "reason", ctx.Err())
		j.setStatus(job.Cancelled)
		return
	}
	defer func() { <-slot }()

	// Cancellation may have raced the slot acquisition.
	select {
	case <-j.cancelCh:
		logger.Info("Job cancelled while queued.")
		j.setStatus(job.Cancelled)
		return
	default:
	}

	j.setStatus(job.Running)
	logger.Debug("Job admitted.", "tool", j.Config.Tool)
	s.execute(ctx, j)
	logger.Info("Job finished.", "status", j.Status().String(), "exitCode", j.exitCode)
}
