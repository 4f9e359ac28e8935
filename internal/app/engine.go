package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
	"github.com/yourusername/dupe-guard/internal/fingerprint"
	"github.com/yourusername/dupe-guard/pkg/logger"
)

// Engine decides, per inbound message, whether it is a duplicate and
// removes duplicates through the deletion sink
type Engine struct {
	table       *DedupTable
	extractor   *fingerprint.Extractor
	sink        domain.DeletionSink
	notifier    domain.Notifier
	allowList   *AllowList
	groupLocks  *GroupLocks
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
	now         func() time.Time
}

// NewEngine creates a new decision engine. notifier and multiLogger may be nil.
func NewEngine(
	table *DedupTable,
	extractor *fingerprint.Extractor,
	sink domain.DeletionSink,
	notifier domain.Notifier,
	allowList *AllowList,
	logger *zap.Logger,
	multiLogger *logger.MultiLogger,
) *Engine {
	return &Engine{
		table:       table,
		extractor:   extractor,
		sink:        sink,
		notifier:    notifier,
		allowList:   allowList,
		groupLocks:  NewGroupLocks(),
		logger:      logger,
		multiLogger: multiLogger,
		now:         time.Now,
	}
}

// AllowList returns the monitored group set
func (e *Engine) AllowList() *AllowList {
	return e.allowList
}

// Monitors reports whether msg comes from a monitored group chat
func (e *Engine) Monitors(msg *domain.Message) bool {
	return msg.IsGroupChat() && e.allowList.Contains(msg.GroupID)
}

// Process classifies msg and acts on it. Decisions for one group are applied
// one at a time; different groups proceed concurrently. A failed deletion
// returns DecisionDuplicateKept together with the sink error.
func (e *Engine) Process(ctx context.Context, msg *domain.Message) (*domain.DecisionResult, error) {
	result := &domain.DecisionResult{
		GroupID:   msg.GroupID,
		MessageID: msg.MessageID,
	}

	if !e.Monitors(msg) {
		result.Decision = domain.DecisionNotMonitored
		return result, nil
	}

	fp, ok := e.extractor.Extract(msg)
	if !ok {
		result.Decision = domain.DecisionSkippedEmpty
		return result, nil
	}
	result.Fingerprint = fp

	unlock := e.groupLocks.Lock(msg.GroupID)
	defer unlock()

	existing, found := e.table.Get(msg.GroupID, fp)
	if !found {
		record := domain.NewDedupRecord(msg.MessageID, e.now())
		e.table.Put(msg.GroupID, fp, record)

		result.Decision = domain.DecisionFirstSeen
		result.FirstMessageID = msg.MessageID
		e.logEvent("first_seen", result)
		return result, nil
	}

	result.FirstMessageID = existing.FirstMessageID
	result.DuplicateCount = existing.DuplicateCount

	if err := e.sink.Delete(ctx, msg.GroupID, msg.MessageID); err != nil {
		result.Decision = domain.DecisionDuplicateKept
		e.handleDeletionFailure(msg, result, err)
		return result, fmt.Errorf("failed to delete duplicate message %d in group %s: %w", msg.MessageID, msg.GroupID, err)
	}

	result.Decision = domain.DecisionDuplicateRemoved
	updated, ok := e.table.IncrementDuplicate(msg.GroupID, fp)
	if ok {
		result.DuplicateCount = updated.DuplicateCount
	} else {
		// Evicted or cleared while the deletion was in flight
		result.DuplicateCount = existing.DuplicateCount + 1
		e.logger.Warn("Record removed before duplicate could be counted",
			zap.String("group_id", msg.GroupID),
			zap.String("fingerprint", fp))
	}

	e.logger.Info("Duplicate removed",
		zap.String("group_id", msg.GroupID),
		zap.String("chat_title", msg.ChatTitle),
		zap.Int64("message_id", msg.MessageID),
		zap.Int64("first_message_id", result.FirstMessageID),
		zap.Int("duplicate_count", result.DuplicateCount))
	e.logEvent("duplicate_removed", result)
	return result, nil
}

func (e *Engine) handleDeletionFailure(msg *domain.Message, result *domain.DecisionResult, err error) {
	kind := domain.DeletionFailureKind(err)
	fields := []zap.Field{
		zap.String("group_id", msg.GroupID),
		zap.String("chat_title", msg.ChatTitle),
		zap.Int64("message_id", msg.MessageID),
		zap.Int64("first_message_id", result.FirstMessageID),
		zap.String("failure", kind),
		zap.Error(err),
	}

	if errors.Is(err, domain.ErrDeletionPermissionDenied) {
		e.logger.Error("Cannot delete duplicate: bot needs the delete messages admin right in this group", fields...)
		if e.notifier != nil {
			e.notifier.NotifyPermissionDenied(msg.GroupID, msg.ChatTitle)
		}
	} else {
		e.logger.Warn("Duplicate deletion failed", fields...)
	}

	if e.multiLogger != nil {
		e.multiLogger.LogDedupEvent("duplicate_kept", fields...)
		e.multiLogger.LogAppError("Duplicate deletion failed", fields...)
	}
}

func (e *Engine) logEvent(event string, result *domain.DecisionResult) {
	e.logger.Debug("Dedup decision",
		zap.String("decision", string(result.Decision)),
		zap.String("group_id", result.GroupID),
		zap.Int64("message_id", result.MessageID),
		zap.String("fingerprint", result.Fingerprint))

	if e.multiLogger != nil {
		e.multiLogger.LogDedupEvent(event,
			zap.String("group_id", result.GroupID),
			zap.Int64("message_id", result.MessageID),
			zap.String("fingerprint", result.Fingerprint),
			zap.Int64("first_message_id", result.FirstMessageID),
			zap.Int("duplicate_count", result.DuplicateCount))
	}
}
