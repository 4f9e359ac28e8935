package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
	"github.com/yourusername/dupe-guard/pkg/logger"
)

// EvictionScheduler periodically purges records older than the retention window
type EvictionScheduler struct {
	table       *DedupTable
	config      *domain.DedupConfig
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
	mu          sync.RWMutex
	running     bool
	stopChan    chan struct{}
	workerWg    sync.WaitGroup
	sweepMu     sync.Mutex
	lastSweep   time.Time
	now         func() time.Time
}

// NewEvictionScheduler creates a new eviction scheduler
func NewEvictionScheduler(
	table *DedupTable,
	config *domain.DedupConfig,
	logger *zap.Logger,
	multiLogger *logger.MultiLogger,
) *EvictionScheduler {
	return &EvictionScheduler{
		table:       table,
		config:      config,
		logger:      logger,
		multiLogger: multiLogger,
		now:         time.Now,
	}
}

// Start starts the periodic sweep
func (s *EvictionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("eviction scheduler already running")
	}
	if s.config.SweepInterval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("invalid sweep interval: %v", s.config.SweepInterval)
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stopChan := s.stopChan
	s.mu.Unlock()

	if s.multiLogger != nil {
		s.multiLogger.LogDedupEvent("scheduler_started",
			zap.Duration("sweep_interval", s.config.SweepInterval),
			zap.Duration("retention_window", s.config.RetentionWindow))
	}

	s.workerWg.Add(1)
	go s.run(ctx, stopChan)

	return nil
}

// Stop stops the periodic sweep and waits for a running sweep to finish
func (s *EvictionScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("eviction scheduler not running")
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.workerWg.Wait()

	if s.multiLogger != nil {
		s.multiLogger.LogDedupEvent("scheduler_stopped")
	}
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *EvictionScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// LastSweep returns when the last sweep finished, zero if none ran
func (s *EvictionScheduler) LastSweep() time.Time {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	return s.lastSweep
}

// RunNow performs a sweep immediately and returns the number of removed records
func (s *EvictionScheduler) RunNow() int {
	return s.sweep("manual")
}

func (s *EvictionScheduler) run(ctx context.Context, stopChan <-chan struct{}) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopChan:
			return
		case <-ticker.C:
			s.sweep("interval")
		}
	}
}

// sweep removes records first seen before now minus the retention window
func (s *EvictionScheduler) sweep(trigger string) int {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	sweepID := uuid.New().String()
	cutoff := s.now().Add(-s.config.RetentionWindow)
	removed := s.table.RemoveOlderThan(cutoff)
	s.lastSweep = s.now()

	if removed > 0 {
		s.logger.Info("Expired fingerprints removed",
			zap.String("sweep_id", sweepID),
			zap.String("trigger", trigger),
			zap.Int("removed", removed))
	}
	if s.multiLogger != nil {
		s.multiLogger.LogDedupEvent("sweep_completed",
			zap.String("sweep_id", sweepID),
			zap.String("trigger", trigger),
			zap.Time("cutoff", cutoff),
			zap.Int("removed", removed))
	}

	return removed
}
