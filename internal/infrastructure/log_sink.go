package infrastructure

import (
	"context"

	"go.uber.org/zap"
)

// LogSink is a dry-run DeletionSink that only logs deletion requests
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new dry-run sink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Delete logs the request and reports success
func (s *LogSink) Delete(ctx context.Context, groupID string, messageID int64) error {
	s.logger.Info("Dry run: would delete message",
		zap.String("group_id", groupID),
		zap.Int64("message_id", messageID))
	return nil
}
