package infrastructure

import (
	"fmt"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// NewSnapshotStore creates the snapshot store selected by config
func NewSnapshotStore(config *domain.StorageConfig) (domain.SnapshotStore, error) {
	switch config.Driver {
	case "json", "":
		return NewJSONSnapshotStore(config.Path)
	case "sqlite":
		return NewSQLiteSnapshotStore(config.Path)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", config.Driver)
	}
}
