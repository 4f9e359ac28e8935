package app

import (
	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// AdminService exposes read-only statistics and maintenance over the table
type AdminService struct {
	table     *DedupTable
	scheduler *EvictionScheduler
	logger    *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(table *DedupTable, scheduler *EvictionScheduler, logger *zap.Logger) *AdminService {
	return &AdminService{
		table:     table,
		scheduler: scheduler,
		logger:    logger,
	}
}

// GetStats returns a point-in-time view of the table
func (a *AdminService) GetStats() domain.DedupStats {
	return a.table.Stats()
}

// ClearAll wipes every group and returns the number of removed fingerprints
func (a *AdminService) ClearAll() int {
	removed := a.table.Clear()
	a.logger.Info("Duplicate cache cleared", zap.Int("removed", removed))
	return removed
}

// ForceCleanup runs an eviction sweep now and returns the number of removed fingerprints
func (a *AdminService) ForceCleanup() int {
	return a.scheduler.RunNow()
}
