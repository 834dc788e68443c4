package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSnapshotCounts(t *testing.T) {
	m := New()
	m.RecordNarrative(false)
	m.RecordNarrative(false)
	m.RecordNarrative(true)
	m.RecordFallback()
	m.RecordEmbedFailure()
	m.RecordInvalidRecord()
	m.RecordJobCompletion(nil)
	m.RecordJobCompletion(errors.New("boom"))
	m.UpdateQueue(3, 10, 2)

	s := m.Snapshot()
	if s.ActiveNarratives != 2 || s.CancelledNarratives != 1 {
		t.Fatalf("unexpected narrative counts: %+v", s)
	}
	if s.Fallbacks != 1 || s.EmbedFailures != 1 || s.InvalidRecords != 1 {
		t.Fatalf("unexpected failure counts: %+v", s)
	}
	if s.ProcessedJobs != 2 || s.FailedJobs != 1 {
		t.Fatalf("unexpected job counts: %+v", s)
	}
	if s.QueueLength != 3 || s.QueueCapacity != 10 || s.WorkerCount != 2 {
		t.Fatalf("unexpected queue stats: %+v", s)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordNarrative(true)
	m.RecordFallback()
	m.UpdateQueue(1, 1, 1)
	if s := m.Snapshot(); s != (Snapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", s)
	}
}

func TestRegisterExposesCounters(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	m.RecordNarrative(false)
	m.RecordFallback()

	expected := `
# HELP narrative_fallbacks_total Narratives replaced by the fallback sentence
# TYPE narrative_fallbacks_total counter
narrative_fallbacks_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "narrative_fallbacks_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
	if err := m.Register(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordNarrative(true)
	path := filepath.Join(t.TempDir(), "narrative.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `narrative_generated_total{path="cancelled"} 1`) {
		t.Fatalf("textfile missing cancelled counter:\n%s", data)
	}
}
