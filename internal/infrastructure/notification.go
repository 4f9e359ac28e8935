package infrastructure

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/yourusername/dupe-guard/internal/domain"
	"go.uber.org/zap"
)

// alertCooldown limits repeated alerts for the same group
const alertCooldown = time.Hour

// messageSender is the part of TelegramClient used for alerts
type messageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// NotificationService handles sending admin alerts
type NotificationService struct {
	config    *domain.NotificationConfig
	sender    messageSender
	logger    *zap.Logger
	mu        sync.Mutex
	lastAlert map[string]time.Time
	now       func() time.Time
	wg        sync.WaitGroup
}

// NewNotificationService creates a new notification service. sender may be
// nil when the telegram method is not used.
func NewNotificationService(config *domain.NotificationConfig, sender messageSender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config:    config,
		sender:    sender,
		logger:    logger,
		lastAlert: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	switch n.config.Method {
	case "telegram":
		return n.sendTelegram(title, message)
	case "log", "":
		n.logger.Warn(title, zap.String("message", message))
		return nil
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

// sendTelegram delivers the alert to every configured admin chat
func (n *NotificationService) sendTelegram(title, message string) error {
	if n.sender == nil {
		return fmt.Errorf("telegram notifications require a bot token")
	}

	text := fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(title), html.EscapeString(message))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var lastErr error
	for _, chatID := range n.config.AdminChatIDs {
		if err := n.sender.SendMessage(ctx, chatID, text); err != nil {
			n.logger.Error("Failed to send notification",
				zap.String("method", "telegram"),
				zap.Int64("chat_id", chatID),
				zap.Error(err))
			lastErr = err
			continue
		}
		n.logger.Debug("Notification sent",
			zap.String("title", title),
			zap.Int64("chat_id", chatID))
	}

	return lastErr
}

// NotifyPermissionDenied alerts admins that the bot cannot delete messages
// in a group. Alerts for the same group are sent at most once per cooldown.
func (n *NotificationService) NotifyPermissionDenied(groupID, chatTitle string) {
	n.mu.Lock()
	now := n.now()
	if last, ok := n.lastAlert[groupID]; ok && now.Sub(last) < alertCooldown {
		n.mu.Unlock()
		return
	}
	n.lastAlert[groupID] = now
	n.mu.Unlock()

	name := groupID
	if chatTitle != "" {
		name = fmt.Sprintf("%s (%s)", truncateString(chatTitle, 40), groupID)
	}

	title := "Missing delete rights"
	message := fmt.Sprintf("Bot is not allowed to delete messages in %s. Grant it the delete messages admin right.", name)

	// Delivery runs outside the caller's group lock
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.Send(title, message); err != nil {
			n.logger.Warn("Permission alert not delivered",
				zap.String("group_id", groupID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight alerts have been sent
func (n *NotificationService) Wait() {
	n.wg.Wait()
}

// truncateString truncates a string to maxLen runes
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
