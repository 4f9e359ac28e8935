package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// recordingProcessor records the order in which messages are processed per group
type recordingProcessor struct {
	mu    sync.Mutex
	order map[string][]int64
	delay time.Duration
}

func newRecordingProcessor(delay time.Duration) *recordingProcessor {
	return &recordingProcessor{order: make(map[string][]int64), delay: delay}
}

func (p *recordingProcessor) Monitors(msg *domain.Message) bool {
	return msg.IsGroupChat()
}

func (p *recordingProcessor) Process(ctx context.Context, msg *domain.Message) (*domain.DecisionResult, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order[msg.GroupID] = append(p.order[msg.GroupID], msg.MessageID)
	return &domain.DecisionResult{Decision: domain.DecisionFirstSeen, GroupID: msg.GroupID, MessageID: msg.MessageID}, nil
}

func (p *recordingProcessor) processed(groupID string) []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.order[groupID]...)
}

func TestDispatcher_PreservesPerGroupOrder(t *testing.T) {
	processor := newRecordingProcessor(time.Millisecond)
	dispatcher := NewDispatcher(processor, 0, zap.NewNop())

	var want []int64
	for i := int64(1); i <= 20; i++ {
		want = append(want, i)
		require.NoError(t, dispatcher.Submit(textMessage("100", i, "a")))
		require.NoError(t, dispatcher.Submit(textMessage("200", i, "b")))
	}

	assert.Equal(t, 2, dispatcher.ActiveGroups())
	dispatcher.Stop()

	assert.Equal(t, want, processor.processed("100"))
	assert.Equal(t, want, processor.processed("200"))
}

func TestDispatcher_StopDrainsAndRejects(t *testing.T) {
	processor := newRecordingProcessor(5 * time.Millisecond)
	dispatcher := NewDispatcher(processor, 4, zap.NewNop())

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, dispatcher.Submit(textMessage("100", i, "a")))
	}
	dispatcher.Stop()

	assert.Len(t, processor.processed("100"), 4, "queued messages are processed before Stop returns")
	assert.ErrorIs(t, dispatcher.Submit(textMessage("100", 5, "a")), ErrDispatcherClosed)

	// second Stop is a no-op
	dispatcher.Stop()
}

func TestDispatcher_WithEngine(t *testing.T) {
	sink := &fakeSink{}
	engine, table, _ := newTestEngine(t, sink, "100")
	dispatcher := NewDispatcher(engine, 8, zap.NewNop())

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, dispatcher.Submit(textMessage("100", i, "repeat")))
	}
	dispatcher.Stop()

	assert.Equal(t, []int64{2, 3, 4, 5}, sink.deletedIDs(), "first arrival is kept")
	assert.Equal(t, int64(4), table.Stats().DuplicatesRemoved)
}

func TestDispatcher_IgnoresUnmonitoredChats(t *testing.T) {
	sink := &fakeSink{}
	engine, table, _ := newTestEngine(t, sink, "100")
	dispatcher := NewDispatcher(engine, 8, zap.NewNop())
	defer dispatcher.Stop()

	for i := int64(1); i <= 1000; i++ {
		private := textMessage(fmt.Sprintf("%d", 5000+i), i, "hi bot")
		private.ChatType = domain.ChatPrivate
		require.NoError(t, dispatcher.Submit(private))
	}
	require.NoError(t, dispatcher.Submit(textMessage("999", 1, "other group")))

	assert.Equal(t, 0, dispatcher.ActiveGroups())
	assert.Equal(t, int64(1001), dispatcher.Dropped())
	assert.Zero(t, table.Stats().UniqueFingerprints)
}

func TestDispatcher_RetiresIdleWorkers(t *testing.T) {
	processor := newRecordingProcessor(0)
	dispatcher := NewDispatcher(processor, 4, zap.NewNop())
	dispatcher.idleTimeout = 20 * time.Millisecond

	require.NoError(t, dispatcher.Submit(textMessage("100", 1, "a")))
	require.NoError(t, dispatcher.Submit(textMessage("200", 1, "b")))

	assert.Eventually(t, func() bool {
		return dispatcher.ActiveGroups() == 0
	}, time.Second, 5*time.Millisecond)

	// a retired group gets a fresh worker
	require.NoError(t, dispatcher.Submit(textMessage("100", 2, "a")))
	dispatcher.Stop()

	assert.Equal(t, []int64{1, 2}, processor.processed("100"))
	assert.Equal(t, []int64{1}, processor.processed("200"))
	assert.Equal(t, 0, dispatcher.ActiveGroups())
}
