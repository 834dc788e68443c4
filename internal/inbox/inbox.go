// Package inbox stores call record files and the narratives generated from
// them. Records live in the inbox directory as YAML or JSON; each narrative is
// written to the outbox as <record name>.txt.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"narrative_framework/backfill"
	"narrative_framework/narrative"
)

const narrativeExt = ".txt"

// Store reads record files and writes narrative files.
type Store struct {
	inboxDir  string
	outboxDir string
}

// Open prepares both directories.
func Open(inboxDir, outboxDir string) (*Store, error) {
	for _, dir := range []string{inboxDir, outboxDir} {
		if strings.TrimSpace(dir) == "" {
			return nil, errors.New("inbox and outbox directories are required")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Store{inboxDir: inboxDir, outboxDir: outboxDir}, nil
}

// InboxDir returns the record directory.
func (s *Store) InboxDir() string { return s.inboxDir }

// OutboxDir returns the narrative directory.
func (s *Store) OutboxDir() string { return s.outboxDir }

// IsRecordFile reports whether path names a record file by extension. Hidden
// and editor temp files are ignored.
func IsRecordFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

// OutputPath returns where the narrative for filename is written.
func (s *Store) OutputPath(filename string) string {
	base := filepath.Base(filename)
	return filepath.Join(s.outboxDir, strings.TrimSuffix(base, filepath.Ext(base))+narrativeExt)
}

// RecordPath returns the absolute location of a record file in the inbox.
func (s *Store) RecordPath(filename string) string {
	return filepath.Join(s.inboxDir, filepath.Base(filename))
}

// List returns every record file in the inbox with its narrative status. A
// record is done when its narrative exists and is not older than the record.
func (s *Store) List(ctx context.Context) ([]backfill.Record, error) {
	entries, err := os.ReadDir(s.inboxDir)
	if err != nil {
		return nil, err
	}
	records := make([]backfill.Record, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !IsRecordFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		rec := backfill.Record{
			Filename:  e.Name(),
			ModTime:   info.ModTime(),
			SizeBytes: info.Size(),
			Status:    backfill.StatusPending,
		}
		if out, err := os.Stat(s.OutputPath(e.Name())); err == nil {
			rec.UpdatedAt = out.ModTime()
			if !out.ModTime().Before(info.ModTime()) {
				rec.Status = backfill.StatusDone
			}
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Filename < records[j].Filename })
	return records, nil
}

// Read decodes and validates a record file.
func (s *Store) Read(filename string) (narrative.CallRecord, error) {
	path := s.RecordPath(filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return narrative.CallRecord{}, err
	}
	return narrative.DecodeRecord(data, path)
}

// WriteNarrative stores text for filename, replacing any previous version
// atomically.
func (s *Store) WriteNarrative(filename, text string) (string, error) {
	dest := s.OutputPath(filename)
	tmp, err := os.CreateTemp(s.outboxDir, ".narrative-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(text + "\n"); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	return dest, nil
}

// WaitForStable blocks until the file size has been unchanged for required
// consecutive polls, so partially written records are not decoded.
func WaitForStable(ctx context.Context, path string, interval time.Duration, required int) error {
	var last int64 = -1
	stable := 0
	for {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("record disappeared: %w", err)
			}
			return fmt.Errorf("stat: %w", err)
		}
		size := info.Size()
		if size > 0 && size == last {
			stable++
			if stable >= required {
				return nil
			}
		} else {
			stable = 0
		}
		last = size
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
