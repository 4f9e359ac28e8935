package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/dupe-guard/internal/domain"
)

func setupSQLiteStore(t *testing.T) (*SQLiteSnapshotStore, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "snapshot-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "dedup.db")
	store, err := NewSQLiteSnapshotStore(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}
	return store, cleanup
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	store, cleanup := setupSQLiteStore(t)
	defer cleanup()

	snapshot, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store, cleanup := setupSQLiteStore(t)
	defer cleanup()

	seen := time.UnixMicro(1700000000123456)
	snapshot := domain.Snapshot{
		"100": {
			"fp-a": {FirstMessageID: 1, FirstSeenAt: seen, DuplicateCount: 2},
			"fp-b": {FirstMessageID: 5, FirstSeenAt: seen, DuplicateCount: 0},
		},
		"200": {"fp-a": {FirstMessageID: 9, FirstSeenAt: seen, DuplicateCount: 1}},
	}
	require.NoError(t, store.Save(snapshot))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.EntryCount())
	assert.Equal(t, int64(9), loaded["200"]["fp-a"].FirstMessageID)
	assert.Equal(t, 2, loaded["100"]["fp-a"].DuplicateCount)
	assert.True(t, seen.Equal(loaded["100"]["fp-b"].FirstSeenAt))
}

func TestSQLiteStore_SaveReplacesPreviousImage(t *testing.T) {
	store, cleanup := setupSQLiteStore(t)
	defer cleanup()

	now := time.Now()
	require.NoError(t, store.Save(domain.Snapshot{
		"100": {"old": domain.NewDedupRecord(1, now)},
	}))
	require.NoError(t, store.Save(domain.Snapshot{
		"300": {"new": domain.NewDedupRecord(2, now)},
	}))

	count, err := store.countRecords()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.NotContains(t, loaded, "100")
	assert.Contains(t, loaded["300"], "new")
}

func TestSQLiteStore_SaveEmptyClears(t *testing.T) {
	store, cleanup := setupSQLiteStore(t)
	defer cleanup()

	require.NoError(t, store.Save(domain.Snapshot{"1": {"fp": domain.NewDedupRecord(1, time.Now())}}))
	require.NoError(t, store.Save(domain.Snapshot{}))

	count, err := store.countRecords()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewSnapshotStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewSnapshotStore(&domain.StorageConfig{Driver: "json", Path: filepath.Join(dir, "cache.json")})
	require.NoError(t, err)
	assert.IsType(t, &JSONSnapshotStore{}, store)

	store, err = NewSnapshotStore(&domain.StorageConfig{Driver: "sqlite", Path: filepath.Join(dir, "cache.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteSnapshotStore{}, store)
	store.Close()

	_, err = NewSnapshotStore(&domain.StorageConfig{Driver: "redis", Path: "x"})
	assert.Error(t, err)
}
