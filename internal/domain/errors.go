package domain

import "errors"

var (
	// ErrStorageRead is returned when a snapshot cannot be read
	ErrStorageRead = errors.New("snapshot read failed")

	// ErrStorageWrite is returned when a snapshot cannot be written
	ErrStorageWrite = errors.New("snapshot write failed")

	// ErrCorruptSnapshot is returned when a persisted snapshot cannot be decoded
	ErrCorruptSnapshot = errors.New("corrupt persisted snapshot")

	// ErrDeletionPermissionDenied is returned by a sink lacking delete rights
	ErrDeletionPermissionDenied = errors.New("deletion permission denied")

	// ErrDeletionTransient is returned by a sink for retryable failures such as rate limiting
	ErrDeletionTransient = errors.New("transient deletion failure")
)

// DeletionFailureKind classifies a sink error for logging
func DeletionFailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDeletionPermissionDenied):
		return "permission_denied"
	default:
		return "transient"
	}
}
