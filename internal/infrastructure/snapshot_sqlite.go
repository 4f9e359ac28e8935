package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/dupe-guard/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dedupRecordRow is the SQLite row for one (group, fingerprint) record
type dedupRecordRow struct {
	GroupID        string `gorm:"primaryKey"`
	Fingerprint    string `gorm:"primaryKey"`
	FirstMessageID int64  `gorm:"not null"`
	FirstSeenAt    int64  `gorm:"not null;index"` // unix microseconds
	Count          int    `gorm:"not null;default:0"`
}

// TableName specifies the table name for GORM
func (dedupRecordRow) TableName() string {
	return "dedup_records"
}

// SQLiteSnapshotStore implements SnapshotStore using SQLite
type SQLiteSnapshotStore struct {
	db *gorm.DB
}

// NewSQLiteSnapshotStore creates a new SQLite snapshot store
func NewSQLiteSnapshotStore(dbPath string) (*SQLiteSnapshotStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&dedupRecordRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteSnapshotStore{db: db}, nil
}

// Load reads every stored record into a snapshot
func (s *SQLiteSnapshotStore) Load() (domain.Snapshot, error) {
	var rows []dedupRecordRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}

	snapshot := make(domain.Snapshot)
	for _, row := range rows {
		if row.Count < 0 {
			return nil, fmt.Errorf("%w: negative count for %s/%s", domain.ErrCorruptSnapshot, row.GroupID, row.Fingerprint)
		}
		group, ok := snapshot[row.GroupID]
		if !ok {
			group = make(map[string]domain.DedupRecord)
			snapshot[row.GroupID] = group
		}
		group[row.Fingerprint] = domain.DedupRecord{
			FirstMessageID: row.FirstMessageID,
			FirstSeenAt:    time.UnixMicro(row.FirstSeenAt),
			DuplicateCount: row.Count,
		}
	}

	return snapshot, nil
}

// Save replaces all stored records with the snapshot in one transaction
func (s *SQLiteSnapshotStore) Save(snapshot domain.Snapshot) error {
	rows := make([]dedupRecordRow, 0, snapshot.EntryCount())
	for groupID, entries := range snapshot {
		for fp, rec := range entries {
			rows = append(rows, dedupRecordRow{
				GroupID:        groupID,
				Fingerprint:    fp,
				FirstMessageID: rec.FirstMessageID,
				FirstSeenAt:    rec.FirstSeenAt.UnixMicro(),
				Count:          rec.DuplicateCount,
			})
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&dedupRecordRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	return nil
}

func (s *SQLiteSnapshotStore) countRecords() (int64, error) {
	var count int64
	err := s.db.Model(&dedupRecordRow{}).Count(&count).Error
	return count, err
}

// Close closes the database connection
func (s *SQLiteSnapshotStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
