package metrics

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "narrative"

// Metrics captures shared operational stats for narrative generation and the
// worker queue. All methods are safe on a nil receiver.
type Metrics struct {
	queueLength   int64
	queueCapacity int64
	workerCount   int64

	processedJobs int64
	failedJobs    int64

	activeNarratives    int64
	cancelledNarratives int64
	fallbacks           int64
	embedFailures       int64
	invalidRecords      int64
}

// Snapshot provides a consistent view of the current metrics.
type Snapshot struct {
	QueueLength         int
	QueueCapacity       int
	WorkerCount         int
	ProcessedJobs       int64
	FailedJobs          int64
	ActiveNarratives    int64
	CancelledNarratives int64
	Fallbacks           int64
	EmbedFailures       int64
	InvalidRecords      int64
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// UpdateQueue records the current queue stats.
func (m *Metrics) UpdateQueue(length, capacity, workers int) {
	if m == nil {
		return
	}
	atomic.StoreInt64(&m.queueLength, int64(length))
	atomic.StoreInt64(&m.queueCapacity, int64(capacity))
	atomic.StoreInt64(&m.workerCount, int64(workers))
}

// RecordJobCompletion increments processed/failed counters based on outcome.
func (m *Metrics) RecordJobCompletion(err error) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.processedJobs, 1)
	if err != nil {
		atomic.AddInt64(&m.failedJobs, 1)
	}
}

// RecordNarrative counts a generated narrative by path.
func (m *Metrics) RecordNarrative(cancelled bool) {
	if m == nil {
		return
	}
	if cancelled {
		atomic.AddInt64(&m.cancelledNarratives, 1)
		return
	}
	atomic.AddInt64(&m.activeNarratives, 1)
}

// RecordFallback counts narratives replaced by the fallback sentence.
func (m *Metrics) RecordFallback() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.fallbacks, 1)
}

// RecordEmbedFailure counts swallowed embedding errors.
func (m *Metrics) RecordEmbedFailure() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.embedFailures, 1)
}

// RecordInvalidRecord counts records rejected at the boundary.
func (m *Metrics) RecordInvalidRecord() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.invalidRecords, 1)
}

// Snapshot returns a read-only view of metrics.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		QueueLength:         int(atomic.LoadInt64(&m.queueLength)),
		QueueCapacity:       int(atomic.LoadInt64(&m.queueCapacity)),
		WorkerCount:         int(atomic.LoadInt64(&m.workerCount)),
		ProcessedJobs:       atomic.LoadInt64(&m.processedJobs),
		FailedJobs:          atomic.LoadInt64(&m.failedJobs),
		ActiveNarratives:    atomic.LoadInt64(&m.activeNarratives),
		CancelledNarratives: atomic.LoadInt64(&m.cancelledNarratives),
		Fallbacks:           atomic.LoadInt64(&m.fallbacks),
		EmbedFailures:       atomic.LoadInt64(&m.embedFailures),
		InvalidRecords:      atomic.LoadInt64(&m.invalidRecords),
	}
}

// Register exposes the counters on reg as Prometheus collectors that read the
// atomic values at scrape time.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	load := func(p *int64) func() float64 {
		return func() float64 { return float64(atomic.LoadInt64(p)) }
	}
	narratives := func(path string) prometheus.Collector {
		p := &m.activeNarratives
		if path == "cancelled" {
			p = &m.cancelledNarratives
		}
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "generated_total",
			Help:        "Narratives generated, by call path",
			ConstLabels: prometheus.Labels{"path": path},
		}, load(p))
	}
	collectors := []prometheus.Collector{
		narratives("active"),
		narratives("cancelled"),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "fallbacks_total",
			Help: "Narratives replaced by the fallback sentence",
		}, load(&m.fallbacks)),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "embed_failures_total",
			Help: "Embedding calls that failed and were ignored",
		}, load(&m.embedFailures)),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "invalid_records_total",
			Help: "Call records rejected by validation",
		}, load(&m.invalidRecords)),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "queue", Name: "processed_total",
			Help: "Jobs processed by the worker pool",
		}, load(&m.processedJobs)),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "queue", Name: "failed_total",
			Help: "Jobs that returned an error",
		}, load(&m.failedJobs)),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "queue", Name: "length",
			Help: "Jobs waiting in the queue",
		}, load(&m.queueLength)),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "queue", Name: "capacity",
			Help: "Queue capacity",
		}, load(&m.queueCapacity)),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "queue", Name: "workers",
			Help: "Worker goroutines",
		}, load(&m.workerCount)),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register metric: %w", err)
		}
	}
	return nil
}

// WriteTextfile writes the current values in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
