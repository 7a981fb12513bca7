package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManifest(t *testing.T) *Manifest {
	t.Helper()
	m, err := New(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New("")
	assert.Error(t, err)

	m, err := New("/some/dir")
	require.NoError(t, err)
	assert.Equal(t, "/some/dir", m.Dir())
}

func TestManifest_RecordAndGet(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	run := &Run{
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		InputDir:  "/data/in",
		OutputDir: "/data/out",
		Remove:    true,
		Archives: []ArchiveRecord{
			{Path: "/data/in/file.zip", Kind: "singlepart", Format: "zip", Status: "extracted", Attempts: 2, Entries: 3, Bytes: 300},
		},
		Removed: []FileRecord{
			{Path: "/data/in/file.zip", Size: 120},
			{Path: "/data/in/locked.zip", Size: 50, Error: "permission denied"},
		},
		Summary: Summary{Extracted: 1, BytesWritten: 300},
	}
	require.NoError(t, m.Record(run))
	require.NotEmpty(t, run.ID)
	assert.Equal(t, 1, run.Summary.FilesRemoved)
	assert.Equal(t, int64(120), run.Summary.BytesRemoved, "failed removals are not counted")

	got, err := m.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.InputDir, got.InputDir)
	assert.Equal(t, run.Archives, got.Archives)
	assert.Equal(t, run.Summary, got.Summary)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))

	byPrefix, err := m.Get(run.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, run.ID, byPrefix.ID)

	entries, err := os.ReadDir(m.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "20260301T100000-"))
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestManifest_GetErrors(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	_, err := m.Get("")
	assert.Error(t, err)

	_, err = m.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Record(&Run{ID: "abc-1"}))
	require.NoError(t, m.Record(&Run{ID: "abc-2"}))

	_, err = m.Get("abc")
	assert.ErrorIs(t, err, ErrAmbiguous)

	got, err := m.Get("abc-2")
	require.NoError(t, err)
	assert.Equal(t, "abc-2", got.ID)
}

func TestManifest_List(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, m.Record(&Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour)}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "garbage.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "notes.txt"), []byte("x"), 0o644))

	runs, err := m.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "first", runs[2].ID)

	runs, err = m.List(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestManifest_ListMissingDir(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	runs, err := m.List(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestManifest_Cleanup(t *testing.T) {
	t.Parallel()
	m := newManifest(t)

	require.NoError(t, m.Record(&Run{ID: "old", StartedAt: time.Now().AddDate(0, 0, -45)}))
	require.NoError(t, m.Record(&Run{ID: "recent", StartedAt: time.Now().AddDate(0, 0, -2)}))

	removed, err := m.Cleanup(30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	runs, err := m.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "recent", runs[0].ID)

	removed, err = m.Cleanup(0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
