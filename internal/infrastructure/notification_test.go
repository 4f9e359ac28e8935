package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yourusername/dupe-guard/internal/domain"
)

type recordingSender struct {
	mu    sync.Mutex
	chats []int64
	texts []string
}

func (r *recordingSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats = append(r.chats, chatID)
	r.texts = append(r.texts, text)
	return nil
}

func TestNotifyPermissionDenied_Telegram(t *testing.T) {
	sender := &recordingSender{}
	config := &domain.NotificationConfig{Enabled: true, Method: "telegram", AdminChatIDs: []int64{11, 22}}
	n := NewNotificationService(config, sender, zap.NewNop())

	n.NotifyPermissionDenied("-100", "Market <Chat>")
	n.Wait()

	assert.Equal(t, []int64{11, 22}, sender.chats)
	assert.Contains(t, sender.texts[0], "Market &lt;Chat&gt; (-100)")
}

func TestNotifyPermissionDenied_Cooldown(t *testing.T) {
	sender := &recordingSender{}
	config := &domain.NotificationConfig{Enabled: true, Method: "telegram", AdminChatIDs: []int64{11}}
	n := NewNotificationService(config, sender, zap.NewNop())

	now := time.Now()
	n.now = func() time.Time { return now }

	n.NotifyPermissionDenied("-100", "")
	n.NotifyPermissionDenied("-100", "")
	n.NotifyPermissionDenied("-200", "")
	n.Wait()
	assert.Len(t, sender.chats, 2)

	now = now.Add(alertCooldown + time.Second)
	n.NotifyPermissionDenied("-100", "")
	n.Wait()
	assert.Len(t, sender.chats, 3)
}

func TestNotificationService_Disabled(t *testing.T) {
	sender := &recordingSender{}
	config := &domain.NotificationConfig{Enabled: false, Method: "telegram", AdminChatIDs: []int64{11}}
	n := NewNotificationService(config, sender, zap.NewNop())

	assert.NoError(t, n.Send("title", "message"))
	assert.Empty(t, sender.chats)
}

func TestNotificationService_TelegramWithoutSender(t *testing.T) {
	config := &domain.NotificationConfig{Enabled: true, Method: "telegram", AdminChatIDs: []int64{11}}
	n := NewNotificationService(config, nil, zap.NewNop())

	assert.Error(t, n.Send("title", "message"))
}

func TestNotifyPermissionDenied_MultibyteTitle(t *testing.T) {
	sender := &recordingSender{}
	config := &domain.NotificationConfig{Enabled: true, Method: "telegram", AdminChatIDs: []int64{11}}
	n := NewNotificationService(config, sender, zap.NewNop())

	n.NotifyPermissionDenied("-100", "AB Тошкентга такси йўловчи гуруҳи расмий канали")
	n.Wait()

	require.Len(t, sender.texts, 1)
	assert.True(t, utf8.ValidString(sender.texts[0]))
	assert.Contains(t, sender.texts[0], "AB Тошкентга такси йўловчи гуруҳи расмий... (-100)")
}

type failingSender struct{}

func (failingSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	return errors.New("bad request: can't parse entities")
}

func TestNotifyPermissionDenied_DeliveryFailureLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	config := &domain.NotificationConfig{Enabled: true, Method: "telegram", AdminChatIDs: []int64{11}}
	n := NewNotificationService(config, failingSender{}, zap.New(core))

	n.NotifyPermissionDenied("-100", "group")
	n.Wait()

	assert.Equal(t, 1, logs.FilterMessage("Permission alert not delivered").Len())
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc...", truncateString("abcdef", 3))

	cut := truncateString("Тошкентга", 4)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, "Тошк...", cut)
}
