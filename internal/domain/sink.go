package domain

import "context"

// DeletionSink requests removal of a message from the hosting platform.
// Delete returns nil on success, or an error wrapping ErrDeletionPermissionDenied
// or ErrDeletionTransient.
type DeletionSink interface {
	Delete(ctx context.Context, groupID string, messageID int64) error
}

// Notifier delivers operational alerts to administrators
type Notifier interface {
	NotifyPermissionDenied(groupID, chatTitle string)
}

// SnapshotStore persists full images of the dedup table
type SnapshotStore interface {
	// Load returns the persisted snapshot. A missing snapshot yields an empty one.
	Load() (Snapshot, error)

	// Save replaces the persisted snapshot
	Save(snapshot Snapshot) error

	// Close releases underlying resources
	Close() error
}
