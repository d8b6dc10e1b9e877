package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"listing-counter/models"
	"listing-counter/utils"
)

var (
	ErrQueueFull     = errors.New("runner: job queue is full")
	ErrRunnerStopped = errors.New("runner: stopped")
)

// CycleFunc runs one collection cycle.
type CycleFunc func(ctx context.Context) ([]models.Record, error)

// Job is one requested cycle. It completes exactly once.
type Job struct {
	ID        string
	Trigger   string
	Submitted time.Time

	done    chan struct{}
	mu      sync.Mutex
	records []models.Record
	err     error
}

func newJob(trigger string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Submitted: time.Now(),
		done:      make(chan struct{}),
	}
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes or ctx ends, returning the job's
// error or the context's.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) Records() []models.Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.records
}

func (j *Job) finish(records []models.Record, err error) {
	j.mu.Lock()
	j.records = records
	j.err = err
	j.mu.Unlock()
	close(j.done)
}

// Runner serialises cycles on a single worker fed by a bounded queue. Both
// the daily schedule and on-demand triggers go through Submit, so two cycles
// never run at once.
type Runner struct {
	cycle  CycleFunc
	jobs   chan *Job
	logger *utils.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewRunner creates a runner holding up to depth pending jobs.
func NewRunner(cycle CycleFunc, depth int, logger *utils.Logger) *Runner {
	if depth < 1 {
		depth = 1
	}
	return &Runner{
		cycle:  cycle,
		jobs:   make(chan *Job, depth),
		logger: logger,
	}
}

// Start launches the worker. Cycles run with ctx.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for job := range r.jobs {
			if r.isStopped() {
				job.finish(nil, ErrRunnerStopped)
				continue
			}
			r.run(ctx, job)
		}
	}()
}

// Submit enqueues a cycle without blocking.
func (r *Runner) Submit(trigger string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return nil, ErrRunnerStopped
	}

	job := newJob(trigger)
	select {
	case r.jobs <- job:
		r.logger.Info("[runner] Queued job %s (%s)", job.ID, trigger)
		return job, nil
	default:
		return nil, ErrQueueFull
	}
}

// Stop rejects new jobs, fails the queued ones with ErrRunnerStopped and
// waits for the running cycle to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.jobs)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

func (r *Runner) run(ctx context.Context, job *Job) {
	log := r.logger.With("job_id", job.ID, "trigger", job.Trigger)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("runner: cycle panicked: %v", rec)
			log.Error("[runner] Job %s crashed: %v", job.ID, rec)
			job.finish(nil, err)
		}
	}()

	log.Info("[runner] Running job %s (%s)", job.ID, job.Trigger)
	records, err := r.cycle(ctx)
	if err != nil {
		log.Error("[runner] Job %s failed after %v: %v", job.ID, time.Since(start).Round(time.Millisecond), err)
	} else {
		log.Info("[runner] Job %s finished in %v with %d records", job.ID, time.Since(start).Round(time.Millisecond), len(records))
	}
	job.finish(records, err)
}

// ScheduleDaily submits a "schedule" job at hour:00 local time every day
// until ctx ends. It blocks.
func (r *Runner) ScheduleDaily(ctx context.Context, hour int) {
	for {
		next := nextRun(time.Now(), hour)
		r.logger.Info("[scheduler] Next scheduled cycle at %s", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := r.Submit("schedule"); err != nil {
			r.logger.Warn("[scheduler] Could not queue scheduled cycle: %v", err)
			if errors.Is(err, ErrRunnerStopped) {
				return
			}
		}
	}
}

// nextRun returns the first hour:00 strictly after now, in now's location.
// Hours outside 0-23 are clamped.
func nextRun(now time.Time, hour int) time.Time {
	hour = max(0, min(23, hour))
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
