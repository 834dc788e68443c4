package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"narrative_framework/logging"
	"narrative_framework/metrics"
)

const defaultHookTimeout = 5 * time.Second

// Hook calls the embedder on finished narrative text in the background and
// discards the result. Failures are logged and counted, never returned.
type Hook struct {
	embedder  Embedder
	readiness *Readiness
	timeout   time.Duration
	logger    *logging.Logger
	metrics   *metrics.Metrics
	inflight  sync.WaitGroup
}

// NewHook creates a Hook. A non-positive timeout uses five seconds.
func NewHook(e Embedder, r *Readiness, timeout time.Duration, logger *logging.Logger, m *metrics.Metrics) *Hook {
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	if r == nil {
		r = NewReadiness()
	}
	return &Hook{embedder: e, readiness: r, timeout: timeout, logger: logger, metrics: m}
}

// Observe starts embedding text when the model is ready and returns without
// waiting. The call outlives ctx cancellation but is bounded by the hook
// timeout.
func (h *Hook) Observe(ctx context.Context, text string) {
	if h == nil || h.embedder == nil || text == "" {
		return
	}
	if state := h.readiness.State(); state != Ready {
		h.logger.Debug("embedding skipped", "model_state", state.String())
		return
	}
	embedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer cancel()
		h.embed(embedCtx, text)
	}()
}

// Wait blocks until every embedding started by Observe has finished.
func (h *Hook) Wait() {
	if h == nil {
		return
	}
	h.inflight.Wait()
}

func (h *Hook) embed(ctx context.Context, text string) {
	defer func() {
		if r := recover(); r != nil {
			h.metrics.RecordEmbedFailure()
			h.logger.Warn("embedding panic recovered", "error", fmt.Sprint(r))
		}
	}()

	start := time.Now()
	vec, err := h.embedder.Embed(ctx, text)
	if err != nil {
		h.metrics.RecordEmbedFailure()
		h.logger.Warn("embedding failed", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		return
	}
	h.logger.Debug("embedding computed", "dimensions", len(vec), "duration_ms", time.Since(start).Milliseconds())
}
