package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
)

type fakeFetcher struct {
	mu      sync.Mutex
	batches [][]TelegramUpdate
	offsets []int64
}

func (f *fakeFetcher) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]TelegramUpdate, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

type collectingSubmitter struct {
	mu       sync.Mutex
	messages []*domain.Message
	fail     bool
}

func (c *collectingSubmitter) Submit(msg *domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("closed")
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *collectingSubmitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func textUpdate(id, messageID int64, text string) TelegramUpdate {
	return TelegramUpdate{
		UpdateID: id,
		Message: &TelegramMessage{
			MessageID: messageID,
			Chat:      TelegramChat{ID: -100, Type: "group"},
			Text:      text,
		},
	}
}

func TestTelegramSource_ForwardsInOrder(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]TelegramUpdate{
		{textUpdate(1, 10, "a"), {UpdateID: 2}, textUpdate(3, 11, "b")},
		{textUpdate(4, 12, "c")},
	}}
	submitter := &collectingSubmitter{}
	source := NewTelegramSource(fetcher, submitter, time.Second, zap.NewNop())

	require.NoError(t, source.Start(context.Background()))
	require.Eventually(t, func() bool { return submitter.count() == 3 }, time.Second, 10*time.Millisecond)
	require.NoError(t, source.Stop())

	assert.Equal(t, int64(10), submitter.messages[0].MessageID)
	assert.Equal(t, int64(11), submitter.messages[1].MessageID)
	assert.Equal(t, int64(12), submitter.messages[2].MessageID)

	assert.Equal(t, int64(5), source.offset)

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	require.GreaterOrEqual(t, len(fetcher.offsets), 2)
	assert.Equal(t, []int64{0, 4}, fetcher.offsets[:2])
}

func TestTelegramSource_StartTwice(t *testing.T) {
	source := NewTelegramSource(&fakeFetcher{}, &collectingSubmitter{}, time.Second, zap.NewNop())

	require.NoError(t, source.Start(context.Background()))
	assert.Error(t, source.Start(context.Background()))
	require.NoError(t, source.Stop())
	assert.Error(t, source.Stop())
}

func TestTelegramSource_SubmitFailureAdvancesOffset(t *testing.T) {
	submitter := &collectingSubmitter{fail: true}
	source := NewTelegramSource(&fakeFetcher{}, submitter, time.Second, zap.NewNop())

	source.handleUpdates([]TelegramUpdate{textUpdate(7, 1, "x")})
	assert.Equal(t, int64(8), source.offset)
	assert.Zero(t, submitter.count())
}
