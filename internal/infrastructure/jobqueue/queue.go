// Package jobqueue is an in-process, at-least-once job queue with retries and
// a dead-letter list.
//
// Jobs live only in memory and are lost on restart. A single worker executes
// at most one job per tick, in FIFO order.
package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/retailhub/retailhub/internal/shared/goroutine"
	"github.com/retailhub/retailhub/internal/shared/id"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

const (
	DefaultTickInterval = 250 * time.Millisecond
	DefaultMaxAttempts  = 3
)

var ErrNoHandler = errors.New("no handler registered")

// Job is one unit of deferred work.
type Job struct {
	ID         string
	Type       string
	Payload    any
	Attempts   int
	EnqueuedAt time.Time

	// Set on dead-lettered jobs.
	LastError string
	DeadAt    time.Time
}

// Handler executes a job. Handlers must tolerate being run more than once
// for the same job: a failure after a partial side effect is retried from
// the start.
type Handler func(ctx context.Context, job Job) error

type Queue struct {
	clock       clock.Clock
	tick        time.Duration
	maxAttempts int
	logger      logger.Interface

	mu       sync.Mutex
	handlers map[string]Handler
	pending  []Job
	dead     []Job

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

type Option func(*Queue)

func WithClock(c clock.Clock) Option {
	return func(q *Queue) {
		q.clock = c
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.tick = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

func New(logger logger.Interface, opts ...Option) *Queue {
	q := &Queue{
		clock:       clock.New(),
		tick:        DefaultTickInterval,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger,
		handlers:    make(map[string]Handler),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// RegisterHandler sets the handler for jobType, replacing any earlier one.
func (q *Queue) RegisterHandler(jobType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = h
}

// Enqueue appends a job and returns its id. It never waits for execution.
func (q *Queue) Enqueue(jobType string, payload any) (string, error) {
	if jobType == "" {
		return "", fmt.Errorf("job type is required")
	}
	job := Job{
		ID:         id.New(id.PrefixJob),
		Type:       jobType,
		Payload:    payload,
		EnqueuedAt: q.clock.Now(),
	}

	q.mu.Lock()
	q.pending = append(q.pending, job)
	depth := len(q.pending)
	q.mu.Unlock()

	q.logger.Debugw("job enqueued", "job_id", job.ID, "job_type", jobType, "depth", depth)
	return job.ID, nil
}

// Start launches the worker loop. Calling it again has no effect.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	q.logger.Infow("starting job queue worker", "tick", q.tick, "max_attempts", q.maxAttempts)

	ticker := q.clock.Ticker(q.tick)
	goroutine.SafeGo(q.logger, "jobqueue-worker", func() {
		defer close(q.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				q.logger.Infow("job queue worker stopped due to context cancellation")
				return
			case <-q.stopCh:
				q.logger.Infow("job queue worker stopped")
				return
			case <-ticker.C:
				q.ProcessNext(ctx)
			}
		}
	})
}

// Stop ends the worker loop and waits for the job in flight, if any.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
	})
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()
	if started {
		<-q.done
	}
}

// ProcessNext executes the oldest pending job. It returns false when the
// queue was empty.
func (q *Queue) ProcessNext(ctx context.Context) bool {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return false
	}
	job := q.pending[0]
	q.pending[0] = Job{}
	q.pending = q.pending[1:]
	h, ok := q.handlers[job.Type]
	q.mu.Unlock()

	log := q.logger.With("job_id", job.ID, "job_type", job.Type)

	if !ok {
		q.deadLetter(job, ErrNoHandler)
		log.Errorw("job dead-lettered", "reason", ErrNoHandler.Error())
		return true
	}

	job.Attempts++
	err := goroutine.Call(func() error { return h(ctx, job) })
	if err == nil {
		log.Debugw("job completed", "attempts", job.Attempts)
		return true
	}

	if job.Attempts >= q.maxAttempts {
		q.deadLetter(job, err)
		log.Errorw("job dead-lettered", "attempts", job.Attempts, "error", err)
		return true
	}

	q.mu.Lock()
	q.pending = append(q.pending, job)
	q.mu.Unlock()
	log.Warnw("job failed, requeued", "attempts", job.Attempts, "error", err)
	return true
}

func (q *Queue) deadLetter(job Job, err error) {
	job.LastError = err.Error()
	job.DeadAt = q.clock.Now()
	q.mu.Lock()
	q.dead = append(q.dead, job)
	q.mu.Unlock()
}

// DeadLetterJobs returns a copy of the dead-letter list, oldest first.
func (q *Queue) DeadLetterJobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, len(q.dead))
	copy(out, q.dead)
	return out
}

// Len is the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
