// Package backfill selects inbox records that still need a narrative and
// hands them to a repository for queueing.
package backfill

import (
	"context"
	"sort"
	"time"

	"narrative_framework/logging"
)

// Record represents a record file and its narrative state used for backfill decisions.
type Record struct {
	Filename  string
	ModTime   time.Time
	SizeBytes int64
	Status    string
	UpdatedAt time.Time
}

// Status constants used by selection logic.
const (
	StatusDone    = "done"
	StatusPending = "pending"
	StatusQueued  = "queued"
	StatusError   = "error"
)

// Summary captures backfill execution metrics.
type Summary struct {
	TotalCandidates  int `json:"total"`
	AlreadyProcessed int `json:"already_processed"`
	Unprocessed      int `json:"unprocessed"`
	Selected         int `json:"selected"`
	Attempted        int `json:"attempted_enqueue"`
	Enqueued         int `json:"enqueued"`
	DroppedFull      int `json:"dropped_full"`
	Failed           int `json:"failed"`
}

// EnqueueResult captures queueing outcome for a record.
type EnqueueResult struct {
	Enqueued    bool
	DroppedFull bool
}

// Repository describes the data source needed for backfill.
type Repository interface {
	ListCandidates(ctx context.Context) ([]Record, error)
	QueueRecord(ctx context.Context, rec Record) (EnqueueResult, error)
	OnBackfillComplete(summary Summary)
}

// SelectPending returns up to limit records sorted by recency that do not yet
// have a narrative. A non-positive limit selects every pending record. It
// also reports a summary of the candidate set.
func SelectPending(records []Record, limit int) ([]Record, Summary) {
	sorted := append([]Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ModTime.After(sorted[j].ModTime)
	})

	summary := Summary{TotalCandidates: len(sorted)}
	unprocessed := make([]Record, 0, len(sorted))
	for _, r := range sorted {
		if r.Status == StatusDone {
			summary.AlreadyProcessed++
			continue
		}
		unprocessed = append(unprocessed, r)
	}

	summary.Unprocessed = len(unprocessed)
	if limit > 0 && limit < summary.Unprocessed {
		unprocessed = unprocessed[:limit]
	}
	summary.Selected = len(unprocessed)
	return unprocessed, summary
}

// Execute lists, selects and queues pending records, then reports the
// summary to the repository.
func Execute(ctx context.Context, repo Repository, limit int, logger *logging.Logger) (Summary, error) {
	if logger == nil {
		logger = logging.Default()
	}
	records, err := repo.ListCandidates(ctx)
	if err != nil {
		logger.Error("backfill list failed", "error", err.Error())
		return Summary{}, err
	}

	selected, summary := SelectPending(records, limit)
	for _, rec := range selected {
		if ctx.Err() != nil {
			break
		}
		summary.Attempted++
		result, err := repo.QueueRecord(ctx, rec)
		if err != nil {
			summary.Failed++
			logger.Warn("backfill queue failed", "file", rec.Filename, "error", err.Error())
			continue
		}
		if result.Enqueued {
			summary.Enqueued++
		}
		if result.DroppedFull {
			summary.DroppedFull++
		}
	}

	logger.Info("backfill summary",
		"total", summary.TotalCandidates,
		"unprocessed", summary.Unprocessed,
		"selected", summary.Selected,
		"enqueued", summary.Enqueued,
		"dropped_full", summary.DroppedFull,
		"failed", summary.Failed,
		"already_processed", summary.AlreadyProcessed,
	)
	repo.OnBackfillComplete(summary)
	return summary, ctx.Err()
}

// Run executes the backfill asynchronously.
func Run(ctx context.Context, repo Repository, limit int, logger *logging.Logger) {
	go func() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, _ = Execute(ctx, repo, limit, logger)
	}()
}
