// Package watch reacts to file system changes: new or edited record files in
// the inbox and edits to the phrase configuration file.
package watch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"narrative_framework/internal/inbox"
	"narrative_framework/logging"
)

// Handlers are invoked from the watcher goroutine.
type Handlers struct {
	// OnRecord receives the base name of a created or modified record file.
	OnRecord func(ctx context.Context, filename string)
	// OnPhrases is called when the phrase config file changes.
	OnPhrases func(ctx context.Context)
}

// Watcher monitors the inbox directory and, optionally, the phrase config file.
type Watcher struct {
	inboxDir    string
	phrasesPath string
	handlers    Handlers
	logger      *logging.Logger
}

// New creates a Watcher. An empty phrasesPath disables config reloads.
func New(inboxDir, phrasesPath string, h Handlers, logger *logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.Default()
	}
	if phrasesPath != "" {
		if abs, err := filepath.Abs(phrasesPath); err == nil {
			phrasesPath = abs
		}
	}
	return &Watcher{inboxDir: inboxDir, phrasesPath: phrasesPath, handlers: h, logger: logger}
}

// Start registers the watches and processes events until ctx is done. The
// config file's directory is watched rather than the file so editors that
// replace the file by rename are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.inboxDir); err != nil {
		watcher.Close()
		return err
	}
	if w.phrasesPath != "" {
		dir := filepath.Dir(w.phrasesPath)
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn("phrase config not watched", "path", w.phrasesPath, "error", err.Error())
		}
	}
	w.logger.Info("watching inbox", "dir", w.inboxDir, "phrases", w.phrasesPath)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				w.dispatch(ctx, evt)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watcher error", "error", err.Error())
			}
		}
	}()
	return nil
}

func (w *Watcher) dispatch(ctx context.Context, evt fsnotify.Event) {
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	if w.isPhrasesFile(evt.Name) {
		if w.handlers.OnPhrases != nil {
			w.handlers.OnPhrases(ctx)
		}
		return
	}
	if evt.Op&fsnotify.Rename != 0 {
		// The old name of a rename; the new name arrives as Create.
		return
	}
	if filepath.Clean(filepath.Dir(evt.Name)) != filepath.Clean(w.inboxDir) || !inbox.IsRecordFile(evt.Name) {
		return
	}
	if w.handlers.OnRecord != nil {
		w.handlers.OnRecord(ctx, filepath.Base(evt.Name))
	}
}

func (w *Watcher) isPhrasesFile(name string) bool {
	if w.phrasesPath == "" {
		return false
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == w.phrasesPath
}
