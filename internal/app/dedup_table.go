package app

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// DedupTable is the per-group fingerprint index. Every mutation is written
// through to the snapshot store before it returns.
type DedupTable struct {
	mu     sync.RWMutex
	groups map[string]map[string]domain.DedupRecord
	store  domain.SnapshotStore
	logger *zap.Logger
}

// NewDedupTable creates an empty table backed by store
func NewDedupTable(store domain.SnapshotStore, logger *zap.Logger) *DedupTable {
	return &DedupTable{
		groups: make(map[string]map[string]domain.DedupRecord),
		store:  store,
		logger: logger,
	}
}

// LoadDedupTable creates a table from the persisted snapshot. A missing,
// unreadable or corrupt snapshot yields an empty table.
func LoadDedupTable(store domain.SnapshotStore, logger *zap.Logger) *DedupTable {
	t := NewDedupTable(store, logger)

	snapshot, err := store.Load()
	if err != nil {
		if errors.Is(err, domain.ErrCorruptSnapshot) {
			logger.Warn("Persisted snapshot is corrupt, starting with empty cache", zap.Error(err))
		} else {
			logger.Warn("Failed to read persisted snapshot, starting with empty cache", zap.Error(err))
		}
		return t
	}

	for groupID, entries := range snapshot {
		if len(entries) == 0 {
			continue
		}
		group := make(map[string]domain.DedupRecord, len(entries))
		for fp, rec := range entries {
			group[fp] = rec
		}
		t.groups[groupID] = group
	}

	logger.Info("Duplicate cache loaded",
		zap.Int("groups", len(t.groups)),
		zap.Int("fingerprints", snapshot.EntryCount()))
	return t
}

// Get returns the record for (groupID, fp)
func (t *DedupTable) Get(groupID, fp string) (domain.DedupRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.groups[groupID][fp]
	return rec, ok
}

// Put inserts record for (groupID, fp) unless one already exists.
// It reports whether the record was inserted.
func (t *DedupTable) Put(groupID, fp string, record domain.DedupRecord) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	group, ok := t.groups[groupID]
	if !ok {
		group = make(map[string]domain.DedupRecord)
		t.groups[groupID] = group
	}
	if _, exists := group[fp]; exists {
		return false
	}

	group[fp] = record
	t.persistLocked()
	return true
}

// IncrementDuplicate bumps the duplicate count of (groupID, fp) and returns
// the updated record. It reports false if the record no longer exists.
func (t *DedupTable) IncrementDuplicate(groupID, fp string) (domain.DedupRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.groups[groupID][fp]
	if !ok {
		return domain.DedupRecord{}, false
	}

	rec.DuplicateCount++
	t.groups[groupID][fp] = rec
	t.persistLocked()
	return rec, true
}

// RemoveOlderThan deletes every record first seen before cutoff and drops
// groups left empty. It returns the number of removed records.
func (t *DedupTable) RemoveOlderThan(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for groupID, group := range t.groups {
		for fp, rec := range group {
			if rec.IsExpired(cutoff) {
				delete(group, fp)
				removed++
			}
		}
		if len(group) == 0 {
			delete(t.groups, groupID)
		}
	}

	if removed > 0 {
		t.persistLocked()
	}
	return removed
}

// Clear wipes every group and returns the number of records it held
func (t *DedupTable) Clear() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous := t.countLocked()
	t.groups = make(map[string]map[string]domain.DedupRecord)
	t.persistLocked()
	return previous
}

// Stats returns a consistent view of the table
func (t *DedupTable) Stats() domain.DedupStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := domain.DedupStats{
		Groups:   len(t.groups),
		PerGroup: make([]domain.GroupStats, 0, len(t.groups)),
	}

	for groupID, group := range t.groups {
		gs := domain.GroupStats{
			GroupID:            groupID,
			UniqueFingerprints: len(group),
		}
		for _, rec := range group {
			gs.DuplicatesRemoved += int64(rec.DuplicateCount)
		}
		stats.UniqueFingerprints += gs.UniqueFingerprints
		stats.DuplicatesRemoved += gs.DuplicatesRemoved
		stats.PerGroup = append(stats.PerGroup, gs)
	}

	sort.Slice(stats.PerGroup, func(i, j int) bool {
		return stats.PerGroup[i].GroupID < stats.PerGroup[j].GroupID
	})
	return stats
}

// Flush writes the current table to the store
func (t *DedupTable) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Save(t.snapshotLocked())
}

func (t *DedupTable) snapshotLocked() domain.Snapshot {
	snapshot := make(domain.Snapshot, len(t.groups))
	for groupID, group := range t.groups {
		entries := make(map[string]domain.DedupRecord, len(group))
		for fp, rec := range group {
			entries[fp] = rec
		}
		snapshot[groupID] = entries
	}
	return snapshot
}

func (t *DedupTable) countLocked() int {
	total := 0
	for _, group := range t.groups {
		total += len(group)
	}
	return total
}

// persistLocked writes the table through to the store. A failed write keeps
// the in-memory state and is only logged.
func (t *DedupTable) persistLocked() {
	if err := t.store.Save(t.snapshotLocked()); err != nil {
		t.logger.Error("Snapshot write failed, durability degraded", zap.Error(err))
	}
}
