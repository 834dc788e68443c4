package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"narrative_framework/logging"
	"narrative_framework/metrics"
)

func newTestQueue(capacity, workers int, timeout time.Duration, m *metrics.Metrics) *Queue {
	return New(capacity, workers, timeout, WithLogger(logging.Discard()), WithMetrics(m))
}

func TestQueueProcessesJob(t *testing.T) {
	q := newTestQueue(10, 1, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var processed int32
	done := make(chan struct{})
	ok := q.Enqueue(Job{
		ID:     "job1",
		Source: "test",
		Work: func(ctx context.Context) error {
			atomic.AddInt32(&processed, 1)
			close(done)
			return nil
		},
	})
	if !ok {
		t.Fatalf("expected enqueue to succeed")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job did not complete")
	}
	if atomic.LoadInt32(&processed) != 1 {
		t.Fatalf("job not processed")
	}
}

func TestQueueTimeoutAndBounded(t *testing.T) {
	q := newTestQueue(1, 0, 100*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	ok := q.Enqueue(Job{ID: "slow", Source: "test", Work: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	if !ok {
		t.Fatalf("expected first enqueue to succeed")
	}

	if ok := q.Enqueue(Job{ID: "drop", Source: "test", Work: func(ctx context.Context) error { return nil }}); ok {
		t.Fatalf("expected enqueue to be rejected when queue is full")
	}
}

func TestEnqueueWithRetryDropsWhenFull(t *testing.T) {
	q := newTestQueue(1, 0, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	first := q.Enqueue(Job{ID: "first", Source: "test", Work: func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }})
	if !first {
		t.Fatalf("expected initial enqueue to succeed")
	}

	enqueued, dropped := q.EnqueueWithRetry(ctx, Job{ID: "retry", Source: "test", Work: func(ctx context.Context) error { return nil }}, 200*time.Millisecond, 50*time.Millisecond)
	if enqueued {
		t.Fatalf("expected enqueue to fail due to full queue")
	}
	if !dropped {
		t.Fatalf("expected enqueue to be reported as dropped after retries")
	}
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := newTestQueue(1, 1, time.Second, nil)
	if q.Enqueue(Job{Work: func(context.Context) error { return nil }}) {
		t.Fatalf("expected enqueue before start to fail")
	}
	if err := q.Submit(context.Background(), Job{Work: func(context.Context) error { return nil }}); err == nil {
		t.Fatalf("expected submit before start to fail")
	}
}

func TestPanicIsCountedAsFailure(t *testing.T) {
	m := metrics.New()
	q := newTestQueue(2, 1, time.Second, m)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	finished := make(chan error, 1)
	q.Enqueue(Job{
		Source:   "test",
		Work:     func(context.Context) error { panic("boom") },
		OnFinish: func(err error) { finished <- err },
	})

	select {
	case err := <-finished:
		if err == nil {
			t.Fatalf("expected panic to surface as error")
		}
	case <-time.After(time.Second):
		t.Fatalf("job did not finish")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	q.Stop(stopCtx)

	stats := q.Stats()
	if stats.Processed != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	snap := m.Snapshot()
	if snap.ProcessedJobs != 1 || snap.FailedJobs != 1 || snap.WorkerCount != 1 || snap.QueueCapacity != 2 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestSubmitAppliesBackpressure(t *testing.T) {
	q := newTestQueue(1, 2, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var done int32
	errBad := errors.New("bad record")
	for i := 0; i < 10; i++ {
		i := i
		err := q.Submit(ctx, Job{Source: "batch", Work: func(context.Context) error {
			atomic.AddInt32(&done, 1)
			if i%5 == 0 {
				return errBad
			}
			return nil
		}})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	q.Stop(stopCtx)

	if got := atomic.LoadInt32(&done); got != 10 {
		t.Fatalf("expected 10 jobs run, got %d", got)
	}
	if stats := q.Stats(); stats.Failed != 2 {
		t.Fatalf("expected 2 failures, got %+v", stats)
	}
	if q.Healthy() {
		t.Fatalf("stopped queue reported healthy")
	}
	if q.Enqueue(Job{Work: func(context.Context) error { return nil }}) {
		t.Fatalf("expected enqueue after stop to fail")
	}
}

func TestSubmitHonorsContext(t *testing.T) {
	q := newTestQueue(1, 0, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	if err := q.Submit(ctx, Job{Work: func(context.Context) error { return nil }}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	short, shortCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer shortCancel()
	if err := q.Submit(short, Job{Work: func(context.Context) error { return nil }}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
