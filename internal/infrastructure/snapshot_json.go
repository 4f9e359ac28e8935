package infrastructure

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// persistedRecord is the on-disk form of a dedup record
type persistedRecord struct {
	FirstMessageID int64   `json:"first_message_id"`
	Timestamp      float64 `json:"timestamp"` // epoch seconds
	Count          int     `json:"count"`
}

// JSONSnapshotStore implements SnapshotStore as a single JSON document:
// group id -> fingerprint -> record
type JSONSnapshotStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONSnapshotStore creates a JSON file store at path
func NewJSONSnapshotStore(path string) (*JSONSnapshotStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path must be specified")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &JSONSnapshotStore{path: path}, nil
}

// Load reads the snapshot file. A missing file yields an empty snapshot.
func (s *JSONSnapshotStore) Load() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Snapshot{}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}

	var raw map[string]map[string]persistedRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}

	snapshot := make(domain.Snapshot, len(raw))
	for groupID, entries := range raw {
		if len(entries) == 0 {
			continue
		}
		group := make(map[string]domain.DedupRecord, len(entries))
		for fp, rec := range entries {
			if rec.Count < 0 || math.IsNaN(rec.Timestamp) || math.IsInf(rec.Timestamp, 0) {
				return nil, fmt.Errorf("%w: invalid record %s/%s", domain.ErrCorruptSnapshot, groupID, fp)
			}
			group[fp] = domain.DedupRecord{
				FirstMessageID: rec.FirstMessageID,
				FirstSeenAt:    fromEpochSeconds(rec.Timestamp),
				DuplicateCount: rec.Count,
			}
		}
		snapshot[groupID] = group
	}

	return snapshot, nil
}

// Save writes the snapshot atomically via a temporary file and rename
func (s *JSONSnapshotStore) Save(snapshot domain.Snapshot) error {
	raw := make(map[string]map[string]persistedRecord, len(snapshot))
	for groupID, entries := range snapshot {
		group := make(map[string]persistedRecord, len(entries))
		for fp, rec := range entries {
			group[fp] = persistedRecord{
				FirstMessageID: rec.FirstMessageID,
				Timestamp:      toEpochSeconds(rec.FirstSeenAt),
				Count:          rec.DuplicateCount,
			}
		}
		raw[groupID] = group
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	return nil
}

// Close is a no-op for file storage
func (s *JSONSnapshotStore) Close() error {
	return nil
}

func toEpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpochSeconds(ts float64) time.Time {
	return time.UnixMicro(int64(ts * 1e6))
}
