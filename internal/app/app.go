// Package app wires configuration, the record inbox, the worker queue, the
// narrative assembler and the optional embedding hook together for the batch
// and watch commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"narrative_framework/backfill"
	"narrative_framework/config"
	"narrative_framework/embedding"
	"narrative_framework/internal/events"
	"narrative_framework/internal/inbox"
	"narrative_framework/internal/watch"
	"narrative_framework/logging"
	"narrative_framework/metrics"
	"narrative_framework/narrative"
	"narrative_framework/queue"
)

const (
	defaultStableInterval = 200 * time.Millisecond
	stablePolls           = 2
	enqueueRetryWindow    = 2 * time.Second
	enqueueRetryInterval  = 100 * time.Millisecond
	metricsFlushInterval  = 15 * time.Second
	embedLoadRetryDelay   = 2 * time.Second
)

// App owns the long-lived components for one run.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	metrics   *metrics.Metrics
	bus       *events.Bus
	store     *inbox.Store
	assembler *narrative.Assembler
	queue     *queue.Queue
	embedder  embedding.Embedder
	readiness *embedding.Readiness
	loader    *embedding.Loader
	hook      *embedding.Hook

	running        sync.Map
	stableInterval time.Duration
}

// Option customizes an App.
type Option func(*App)

// WithEmbedder replaces the configured HTTP embedder.
func WithEmbedder(e embedding.Embedder) Option {
	return func(a *App) { a.embedder = e }
}

// WithStableInterval sets how often a freshly written record is polled
// before it is read.
func WithStableInterval(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.stableInterval = d
		}
	}
}

// New builds an App from cfg.
func New(cfg config.Config, logger *logging.Logger, m *metrics.Metrics, opts ...Option) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	store, err := inbox.Open(cfg.InboxDir, cfg.OutboxDir)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:            cfg,
		logger:         logger,
		metrics:        m,
		bus:            events.NewBus(),
		store:          store,
		stableInterval: defaultStableInterval,
	}
	if cfg.Embedding.Enabled {
		a.embedder = embedding.NewHTTPEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.APIKey,
			time.Duration(cfg.Embedding.TimeoutSec)*time.Second)
	}
	for _, opt := range opts {
		opt(a)
	}

	assemblerOpts := []narrative.Option{
		narrative.WithPhrases(cfg.Phrases.ToPhrases()),
		narrative.WithLogger(logger.With("component", "assembler")),
		narrative.WithMetrics(m),
	}
	if a.embedder != nil {
		a.readiness = embedding.NewReadiness()
		a.loader = embedding.NewLoader(a.embedder, a.readiness, cfg.Embedding.LoadAttempts, embedLoadRetryDelay, logger.With("component", "embedding"))
		a.hook = embedding.NewHook(a.embedder, a.readiness, time.Duration(cfg.Embedding.TimeoutSec)*time.Second, logger.With("component", "embedding"), m)
		assemblerOpts = append(assemblerOpts, narrative.WithObserver(a.hook))
	}
	a.assembler = narrative.NewAssembler(assemblerOpts...)

	timeout := time.Duration(cfg.JobTimeoutSec) * time.Second
	a.queue = queue.New(cfg.JobQueueSize, cfg.WorkerCount, timeout, queue.WithLogger(logger.With("component", "queue")), queue.WithMetrics(m))
	return a, nil
}

// Events returns the outcome bus.
func (a *App) Events() *events.Bus { return a.bus }

// Assembler returns the shared narrative assembler.
func (a *App) Assembler() *narrative.Assembler { return a.assembler }

// Store returns the record store.
func (a *App) Store() *inbox.Store { return a.store }

// Readiness returns the embedding model state, or nil when embedding is off.
func (a *App) Readiness() *embedding.Readiness { return a.readiness }

// ProcessFile generates and stores the narrative for one record file.
func (a *App) ProcessFile(ctx context.Context, filename string) error {
	return a.process(ctx, filename, false)
}

func (a *App) process(ctx context.Context, filename string, waitStable bool) error {
	start := time.Now()
	if waitStable {
		if err := inbox.WaitForStable(ctx, a.store.RecordPath(filename), a.stableInterval, stablePolls); err != nil {
			a.publishFailure(events.KindFailed, filename, err, start)
			return err
		}
	}
	rec, err := a.store.Read(filename)
	if err != nil {
		kind := events.KindFailed
		if errors.Is(err, narrative.ErrInvalidRecord) {
			kind = events.KindInvalid
			a.metrics.RecordInvalidRecord()
		}
		a.publishFailure(kind, filename, err, start)
		return fmt.Errorf("%s: %w", filename, err)
	}

	text := a.assembler.Generate(ctx, rec)
	out, err := a.store.WriteNarrative(filename, text)
	if err != nil {
		a.publishFailure(events.KindFailed, filename, err, start)
		return fmt.Errorf("write narrative for %s: %w", filename, err)
	}
	a.bus.Publish(events.Event{
		Kind:     events.KindGenerated,
		File:     filename,
		Unit:     rec.UnitName(),
		Status:   string(rec.Status),
		Output:   out,
		Duration: time.Since(start),
	})
	a.logger.Info("narrative written", "file", filename, "unit", rec.UnitName(), "status", string(rec.Status), "output", out)
	return nil
}

func (a *App) publishFailure(kind events.Kind, filename string, err error, start time.Time) {
	a.logger.Warn("record not processed", "file", filename, "kind", string(kind), "error", err.Error())
	a.bus.Publish(events.Event{Kind: kind, File: filename, Err: err.Error(), Duration: time.Since(start)})
}

// enqueue queues filename unless it is already waiting or running.
func (a *App) enqueue(ctx context.Context, filename, source string) backfill.EnqueueResult {
	if _, busy := a.running.LoadOrStore(filename, struct{}{}); busy {
		return backfill.EnqueueResult{}
	}
	job := queue.Job{
		Source:   source,
		Work:     func(ctx context.Context) error { return a.process(ctx, filename, true) },
		OnFinish: func(error) { a.running.Delete(filename) },
	}
	enqueued, dropped := a.queue.EnqueueWithRetry(ctx, job, enqueueRetryWindow, enqueueRetryInterval)
	if !enqueued {
		a.running.Delete(filename)
	}
	return backfill.EnqueueResult{Enqueued: enqueued, DroppedFull: dropped}
}

// ReloadPhrases re-reads the phrase configuration. On failure the current
// wording stays in effect.
func (a *App) ReloadPhrases() error {
	pc, err := config.LoadPhraseConfig(a.cfg.PhrasesConfigPath)
	if err != nil {
		a.logger.Warn("phrase reload failed, keeping current phrases", "path", a.cfg.PhrasesConfigPath, "error", err.Error())
		return err
	}
	a.assembler.SetPhrases(pc.ToPhrases())
	a.logger.Info("phrases reloaded", "path", a.cfg.PhrasesConfigPath)
	a.bus.Publish(events.Event{Kind: events.KindReloaded, File: a.cfg.PhrasesConfigPath})
	return nil
}

// BatchResult reports a completed batch run.
type BatchResult struct {
	Summary   backfill.Summary
	Processed uint64
	Failed    uint64
}

// Batch generates narratives for every pending record in the inbox, or for
// every record when force is set, and waits for the queue to drain.
func (a *App) Batch(ctx context.Context, force bool) (BatchResult, error) {
	a.startEmbedding(ctx)
	a.queue.Start(ctx)
	repo := &repository{app: a, force: force, blocking: true}
	summary, err := backfill.Execute(ctx, repo, 0, a.logger.With("component", "backfill"))
	a.queue.Stop(context.Background())
	a.hook.Wait()
	a.flushMetrics()

	stats := a.queue.Stats()
	return BatchResult{Summary: summary, Processed: stats.Processed, Failed: stats.Failed}, err
}

// Watch processes pending records, then every new or changed record and
// phrase config edit, until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	defer a.bus.Close()
	a.startEmbedding(ctx)
	a.queue.Start(ctx)

	w := watch.New(a.cfg.InboxDir, a.cfg.PhrasesConfigPath, watch.Handlers{
		OnRecord: func(ctx context.Context, filename string) {
			a.enqueue(ctx, filename, "watch")
		},
		OnPhrases: func(context.Context) {
			_ = a.ReloadPhrases()
		},
	}, a.logger.With("component", "watch"))
	if err := w.Start(ctx); err != nil {
		a.queue.Stop(context.Background())
		return fmt.Errorf("start watcher: %w", err)
	}
	backfill.Run(ctx, &repository{app: a}, 0, a.logger.With("component", "backfill"))

	ticker := time.NewTicker(metricsFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.JobTimeoutSec)*time.Second)
			a.queue.Stop(stopCtx)
			cancel()
			a.hook.Wait()
			a.flushMetrics()
			return nil
		case <-ticker.C:
			a.flushMetrics()
		}
	}
}

func (a *App) startEmbedding(ctx context.Context) {
	if a.loader != nil {
		a.loader.Start(ctx)
	}
}

func (a *App) flushMetrics() {
	if a.cfg.MetricsTextfile == "" || a.metrics == nil {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.logger.Warn("metrics textfile write failed", "path", a.cfg.MetricsTextfile, "error", err.Error())
	}
}

// repository adapts the inbox and queue to backfill.Repository.
type repository struct {
	app      *App
	force    bool
	blocking bool
}

func (r *repository) ListCandidates(ctx context.Context) ([]backfill.Record, error) {
	records, err := r.app.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if r.force {
		for i := range records {
			records[i].Status = backfill.StatusPending
		}
	}
	return records, nil
}

func (r *repository) QueueRecord(ctx context.Context, rec backfill.Record) (backfill.EnqueueResult, error) {
	if !r.blocking {
		return r.app.enqueue(ctx, rec.Filename, "backfill"), nil
	}
	filename := rec.Filename
	err := r.app.queue.Submit(ctx, queue.Job{
		Source: "batch",
		Work:   func(ctx context.Context) error { return r.app.process(ctx, filename, false) },
	})
	if err != nil {
		return backfill.EnqueueResult{}, err
	}
	return backfill.EnqueueResult{Enqueued: true}, nil
}

func (r *repository) OnBackfillComplete(summary backfill.Summary) {
	r.app.flushMetrics()
}
