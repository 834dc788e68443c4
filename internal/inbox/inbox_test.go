package inbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narrative_framework/backfill"
	"narrative_framework/narrative"
)

const activeRecord = `unit: Medic 7
dispatch_reason: chest pain
call_status: active
`

func openTemp(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s, err := Open(filepath.Join(root, "in"), filepath.Join(root, "out"))
	require.NoError(t, err)
	return s
}

func TestIsRecordFile(t *testing.T) {
	assert.True(t, IsRecordFile("/x/call.yaml"))
	assert.True(t, IsRecordFile("call.YML"))
	assert.True(t, IsRecordFile("call.json"))
	assert.False(t, IsRecordFile("call.txt"))
	assert.False(t, IsRecordFile(".call.yaml"))
	assert.False(t, IsRecordFile("call.yaml~"))
}

func TestOutputPath(t *testing.T) {
	s := openTemp(t)
	assert.Equal(t, filepath.Join(s.OutboxDir(), "call-42.txt"), s.OutputPath("nested/call-42.yaml"))
}

func TestListAndStatus(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(s.RecordPath("b.yaml"), []byte(activeRecord), 0o644))
	require.NoError(t, os.WriteFile(s.RecordPath("a.json"), []byte(`{"unit":"E1"}`), 0o644))
	require.NoError(t, os.WriteFile(s.RecordPath("notes.md"), []byte("ignore"), 0o644))

	_, err := s.WriteNarrative("b.yaml", "Medic 7 returned to service.")
	require.NoError(t, err)

	records, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.json", records[0].Filename)
	assert.Equal(t, backfill.StatusPending, records[0].Status)
	assert.Equal(t, "b.yaml", records[1].Filename)
	assert.Equal(t, backfill.StatusDone, records[1].Status)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(s.RecordPath("b.yaml"), future, future))
	records, err = s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, backfill.StatusPending, records[1].Status, "edited record needs a new narrative")
}

func TestReadAndWrite(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(s.RecordPath("call.yaml"), []byte(activeRecord), 0o644))

	rec, err := s.Read("call.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Medic 7", rec.UnitName())
	assert.Equal(t, narrative.StatusActive, rec.Status)

	path, err := s.WriteNarrative("call.yaml", "text")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "text\n", string(data))

	entries, err := os.ReadDir(s.OutboxDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestReadInvalid(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(s.RecordPath("bad.yaml"), []byte("unit: Medic 7\n"), 0o644))
	_, err := s.Read("bad.yaml")
	assert.ErrorIs(t, err, narrative.ErrInvalidRecord)
}

func TestWaitForStable(t *testing.T) {
	s := openTemp(t)
	path := s.RecordPath("call.yaml")
	require.NoError(t, os.WriteFile(path, []byte(activeRecord), 0o644))
	require.NoError(t, WaitForStable(context.Background(), path, 5*time.Millisecond, 2))

	err := WaitForStable(context.Background(), s.RecordPath("gone.yaml"), time.Millisecond, 2)
	assert.Error(t, err)

	empty := s.RecordPath("empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, WaitForStable(ctx, empty, 5*time.Millisecond, 2), context.DeadlineExceeded)
}
