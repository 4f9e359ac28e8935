package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// pollRetryDelay is the pause after a failed getUpdates call
const pollRetryDelay = 5 * time.Second

// updateFetcher is the part of TelegramClient the source depends on
type updateFetcher interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]TelegramUpdate, error)
}

// MessageSubmitter accepts inbound messages for processing
type MessageSubmitter interface {
	Submit(msg *domain.Message) error
}

// TelegramSource long-polls the Bot API and forwards messages to a submitter
type TelegramSource struct {
	client      updateFetcher
	submitter   MessageSubmitter
	pollTimeout time.Duration
	logger      *zap.Logger
	offset      int64
	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewTelegramSource creates a new long-poll message source
func NewTelegramSource(client updateFetcher, submitter MessageSubmitter, pollTimeout time.Duration, logger *zap.Logger) *TelegramSource {
	return &TelegramSource{
		client:      client,
		submitter:   submitter,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Start begins polling in the background
func (s *TelegramSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("telegram source already running")
	}
	s.running = true

	pollCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.poll(pollCtx)

	s.logger.Info("Telegram polling started", zap.Duration("timeout", s.pollTimeout))
	return nil
}

// Stop cancels polling and waits for the loop to exit
func (s *TelegramSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("telegram source not running")
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.logger.Info("Telegram polling stopped")
	return nil
}

func (s *TelegramSource) poll(ctx context.Context) {
	defer s.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := s.client.GetUpdates(ctx, s.offset, s.pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Warn("Failed to fetch updates", zap.Error(err))
			select {
			case <-time.After(pollRetryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}

		s.handleUpdates(updates)
	}
}

// handleUpdates forwards updates in order and advances the offset
func (s *TelegramSource) handleUpdates(updates []TelegramUpdate) {
	for _, update := range updates {
		if update.UpdateID >= s.offset {
			s.offset = update.UpdateID + 1
		}
		if update.Message == nil {
			continue
		}

		msg := update.Message.ToDomain()
		if err := s.submitter.Submit(msg); err != nil {
			s.logger.Warn("Failed to submit message",
				zap.String("group_id", msg.GroupID),
				zap.Int64("message_id", msg.MessageID),
				zap.Error(err))
		}
	}
}
