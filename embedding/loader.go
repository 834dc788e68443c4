package embedding

import (
	"context"
	"fmt"
	"time"

	"narrative_framework/logging"
)

const probeText = "Unit was dispatched to a medical emergency."

// Loader drives a Readiness through a model load by issuing a probe
// embedding, retrying with a fixed delay.
type Loader struct {
	embedder  Embedder
	readiness *Readiness
	attempts  int
	delay     time.Duration
	logger    *logging.Logger
}

// NewLoader creates a Loader. attempts below one are raised to one.
func NewLoader(e Embedder, r *Readiness, attempts int, delay time.Duration, logger *logging.Logger) *Loader {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Loader{embedder: e, readiness: r, attempts: attempts, delay: delay, logger: logger}
}

// Load probes the model until it answers or attempts run out. It is a no-op
// when a load is already running or has succeeded.
func (l *Loader) Load(ctx context.Context) error {
	if !l.readiness.BeginLoading() {
		return nil
	}
	var lastErr error
probe:
	for attempt := 1; attempt <= l.attempts; attempt++ {
		_, err := l.embedder.Embed(ctx, probeText)
		if err == nil {
			l.readiness.MarkReady()
			l.logger.Info("embedding model ready", "attempt", attempt)
			return nil
		}
		lastErr = err
		l.logger.Warn("embedding model load failed", "attempt", attempt, "error", err.Error())
		if attempt == l.attempts {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break probe
		case <-time.After(l.delay):
		}
	}
	err := fmt.Errorf("load embedding model: %w", lastErr)
	l.readiness.MarkFailed(err)
	return err
}

// Start runs Load in the background. Narratives generated before the model is
// ready simply skip embedding.
func (l *Loader) Start(ctx context.Context) {
	go func() {
		_ = l.Load(ctx)
	}()
}
