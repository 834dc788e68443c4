package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"narrative_framework/logging"
	"narrative_framework/metrics"
)

// Job encapsulates a unit of work processed by the worker pool.
type Job struct {
	ID       string
	Source   string
	Work     func(context.Context) error
	OnFinish func(error)
}

// Stats exposes current queue metrics.
type Stats struct {
	Length      int
	Capacity    int
	WorkerCount int
	Processed   uint64
	Failed      uint64
}

// Queue represents a bounded job queue with a fixed worker pool.
type Queue struct {
	jobs        chan Job
	workerCount int
	timeout     time.Duration
	started     bool
	stopped     bool
	mu          sync.RWMutex
	wg          sync.WaitGroup
	processed   uint64
	failed      uint64
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the queue logger.
func WithLogger(l *logging.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithMetrics reports queue depth and job outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// New creates a new Queue with the provided capacity, worker count, and per-job timeout.
func New(capacity, workerCount int, timeout time.Duration, opts ...Option) *Queue {
	q := &Queue{
		jobs:        make(chan Job, capacity),
		workerCount: workerCount,
		timeout:     timeout,
		logger:      logging.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the worker pool.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.reportDepth()
}

// Enqueue attempts to queue a job without blocking. Returns false if queue is full or not started.
func (q *Queue) Enqueue(j Job) bool {
	return q.tryEnqueue(withID(j), true)
}

// EnqueueWithRetry attempts to queue a job with a bounded retry window. Returns (enqueued, droppedFull).
func (q *Queue) EnqueueWithRetry(ctx context.Context, j Job, window time.Duration, interval time.Duration) (bool, bool) {
	j = withID(j)
	deadline := time.Now().Add(window)
	attempt := func() bool {
		return q.tryEnqueue(j, false)
	}
	if attempt() {
		return true, false
	}
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false, false
		case <-time.After(interval):
			if attempt() {
				return true, false
			}
		}
	}
	q.logger.Warn("job dropped after retry window", "job", j.ID, "job_source", j.Source, "window_ms", window.Milliseconds())
	return false, true
}

// Submit blocks until the job is queued or ctx is done. Batch callers use it
// so a full queue applies backpressure instead of dropping records.
func (q *Queue) Submit(ctx context.Context, j Job) error {
	j = withID(j)
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.started || q.stopped {
		return fmt.Errorf("queue not accepting jobs (job %s)", j.ID)
	}
	select {
	case q.jobs <- j:
		q.reportDepthLocked()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func withID(j Job) Job {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return j
}

func (q *Queue) tryEnqueue(j Job, logDrop bool) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.started || q.stopped {
		if logDrop {
			q.logger.Warn("enqueue called while queue not running", "job", j.ID)
		}
		return false
	}
	select {
	case q.jobs <- j:
		q.reportDepthLocked()
		return true
	default:
		if logDrop {
			q.logger.Warn("job queue full, dropping job", "job", j.ID, "job_source", j.Source)
		}
		return false
	}
}

// Stop stops accepting new jobs and waits for workers to drain until context is done.
func (q *Queue) Stop(ctx context.Context) {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		q.logger.Warn("queue stop timed out before workers drained", "pending", len(q.jobs))
	}
}

// Stats returns current queue metrics.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return Stats{
		Length:      len(q.jobs),
		Capacity:    cap(q.jobs),
		WorkerCount: q.workerCount,
		Processed:   atomic.LoadUint64(&q.processed),
		Failed:      atomic.LoadUint64(&q.failed),
	}
}

func (q *Queue) reportDepth() {
	q.mu.RLock()
	defer q.mu.RUnlock()
	q.reportDepthLocked()
}

func (q *Queue) reportDepthLocked() {
	q.metrics.UpdateQueue(len(q.jobs), cap(q.jobs), q.workerCount)
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-q.jobs:
			if !ok {
				return
			}
			q.handleJob(ctx, j)
		}
	}
}

func (q *Queue) handleJob(ctx context.Context, j Job) {
	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panic: %v", r)
			q.logger.Error("job panic recovered", "job", j.ID, "error", fmt.Sprint(r))
		}
		if j.OnFinish != nil {
			j.OnFinish(err)
		}
		atomic.AddUint64(&q.processed, 1)
		if err != nil {
			atomic.AddUint64(&q.failed, 1)
		}
		q.metrics.RecordJobCompletion(err)
		q.metrics.UpdateQueue(len(q.jobs), cap(q.jobs), q.workerCount)

		status := "success"
		if err != nil {
			status = err.Error()
		}
		q.logger.Info("job finished", "job_source", j.Source, "job", j.ID, "duration_ms", time.Since(start).Milliseconds(), "status", status)
	}()

	jobCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	err = j.Work(jobCtx)
}

// Healthy returns true if the queue has been started and not stopped.
func (q *Queue) Healthy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.started && !q.stopped
}
