package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narrative_framework/logging"
)

type recorder struct {
	records chan string
	reloads chan struct{}
}

func newRecorder() *recorder {
	return &recorder{records: make(chan string, 8), reloads: make(chan struct{}, 8)}
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnRecord:  func(_ context.Context, name string) { r.records <- name },
		OnPhrases: func(context.Context) { r.reloads <- struct{}{} },
	}
}

func TestDispatchRoutesEvents(t *testing.T) {
	root := t.TempDir()
	inboxDir := filepath.Join(root, "inbox")
	phrases := filepath.Join(root, "config.yaml")
	rec := newRecorder()
	w := New(inboxDir, phrases, rec.handlers(), logging.Discard())
	ctx := context.Background()

	w.dispatch(ctx, fsnotify.Event{Name: filepath.Join(inboxDir, "call.yaml"), Op: fsnotify.Create})
	w.dispatch(ctx, fsnotify.Event{Name: filepath.Join(inboxDir, "call.txt"), Op: fsnotify.Create})
	w.dispatch(ctx, fsnotify.Event{Name: filepath.Join(inboxDir, "old.yaml"), Op: fsnotify.Rename})
	w.dispatch(ctx, fsnotify.Event{Name: filepath.Join(inboxDir, "gone.yaml"), Op: fsnotify.Remove})
	w.dispatch(ctx, fsnotify.Event{Name: filepath.Join(root, "other.yaml"), Op: fsnotify.Write})
	w.dispatch(ctx, fsnotify.Event{Name: phrases, Op: fsnotify.Write})

	require.Len(t, rec.records, 1)
	assert.Equal(t, "call.yaml", <-rec.records)
	assert.Len(t, rec.reloads, 1)
}

func TestStartDeliversNewRecords(t *testing.T) {
	inboxDir := t.TempDir()
	rec := newRecorder()
	w := New(inboxDir, "", rec.handlers(), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(inboxDir, "new.json"), []byte(`{}`), 0o644))

	select {
	case name := <-rec.records:
		assert.Equal(t, "new.json", name)
	case <-time.After(2 * time.Second):
		t.Fatal("no record event received")
	}
}

func TestStartFailsForMissingInbox(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), "", Handlers{}, logging.Discard())
	assert.Error(t, w.Start(context.Background()))
}
