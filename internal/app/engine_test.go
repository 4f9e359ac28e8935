package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/dupe-guard/internal/domain"
)

func TestEngine_ProcessScenario(t *testing.T) {
	sink := &fakeSink{}
	engine, table, _ := newTestEngine(t, sink, "100", "200")
	ctx := context.Background()

	result, err := engine.Process(ctx, textMessage("100", 1, "hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionFirstSeen, result.Decision)
	assert.Equal(t, int64(1), result.FirstMessageID)

	result, err = engine.Process(ctx, textMessage("100", 2, "Hello "))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDuplicateRemoved, result.Decision)
	assert.Equal(t, int64(1), result.FirstMessageID)
	assert.Equal(t, 1, result.DuplicateCount)
	assert.Equal(t, []int64{2}, sink.deletedIDs())

	result, err = engine.Process(ctx, textMessage("200", 3, "hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionFirstSeen, result.Decision, "groups are independent")

	stats := table.Stats()
	assert.Equal(t, 2, stats.Groups)
	assert.Equal(t, 2, stats.UniqueFingerprints)
	assert.Equal(t, int64(1), stats.DuplicatesRemoved)
}

func TestEngine_PermissionDenied(t *testing.T) {
	sink := &fakeSink{}
	engine, table, _ := newTestEngine(t, sink, "100")
	notifier := &fakeNotifier{}
	engine.notifier = notifier
	ctx := context.Background()

	_, err := engine.Process(ctx, textMessage("100", 1, "hello"))
	require.NoError(t, err)

	sink.err = fmt.Errorf("%w: not enough rights", domain.ErrDeletionPermissionDenied)
	result, err := engine.Process(ctx, textMessage("100", 2, "hello"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDeletionPermissionDenied)
	assert.Equal(t, domain.DecisionDuplicateKept, result.Decision)
	assert.Equal(t, int64(1), result.FirstMessageID)

	rec, ok := table.Get("100", result.Fingerprint)
	require.True(t, ok)
	assert.Equal(t, 0, rec.DuplicateCount, "failed deletion leaves the count unchanged")
	assert.Equal(t, []string{"100"}, notifier.groups)
}

func TestEngine_TransientFailure(t *testing.T) {
	sink := &fakeSink{}
	engine, table, _ := newTestEngine(t, sink, "100")
	notifier := &fakeNotifier{}
	engine.notifier = notifier
	ctx := context.Background()

	_, err := engine.Process(ctx, textMessage("100", 1, "hello"))
	require.NoError(t, err)

	sink.err = fmt.Errorf("%w: timeout", domain.ErrDeletionTransient)
	result, err := engine.Process(ctx, textMessage("100", 2, "hello"))
	assert.ErrorIs(t, err, domain.ErrDeletionTransient)
	assert.Equal(t, domain.DecisionDuplicateKept, result.Decision)
	assert.Empty(t, notifier.groups, "transient failures do not alert admins")

	sink.err = nil
	result, err = engine.Process(ctx, textMessage("100", 3, "hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDuplicateRemoved, result.Decision)
	assert.Equal(t, 1, result.DuplicateCount)

	rec, _ := table.Get("100", result.Fingerprint)
	assert.Equal(t, 1, rec.DuplicateCount)
}

func TestEngine_NotMonitored(t *testing.T) {
	sink := &fakeSink{}
	engine, table, _ := newTestEngine(t, sink, "100")
	ctx := context.Background()

	result, err := engine.Process(ctx, textMessage("999", 1, "hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionNotMonitored, result.Decision)

	private := textMessage("100", 2, "hello")
	private.ChatType = domain.ChatPrivate
	result, err = engine.Process(ctx, private)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionNotMonitored, result.Decision)

	assert.Zero(t, table.Stats().UniqueFingerprints)
}

func TestEngine_AllowListReplace(t *testing.T) {
	engine, _, _ := newTestEngine(t, &fakeSink{})
	ctx := context.Background()

	result, err := engine.Process(ctx, textMessage("100", 1, "hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionNotMonitored, result.Decision, "empty allow-list monitors nothing")

	engine.AllowList().Replace([]string{"100"}, false)
	result, err = engine.Process(ctx, textMessage("100", 2, "hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionFirstSeen, result.Decision)
}

func TestEngine_SkippedEmpty(t *testing.T) {
	sink := &fakeSink{}
	engine, table, store := newTestEngine(t, sink, "100")

	result, err := engine.Process(context.Background(), textMessage("100", 1, "   "))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionSkippedEmpty, result.Decision)
	assert.Empty(t, result.Fingerprint)
	assert.Zero(t, table.Stats().UniqueFingerprints)
	assert.Zero(t, store.saveCount())
	assert.Empty(t, sink.deletedIDs())
}

func TestEngine_RecordClearedDuringDeletion(t *testing.T) {
	sink := &fakeSink{}
	engine, table, _ := newTestEngine(t, sink, "100")
	ctx := context.Background()

	_, err := engine.Process(ctx, textMessage("100", 1, "hello"))
	require.NoError(t, err)

	sink.hook = func(string, int64) { table.Clear() }
	result, err := engine.Process(ctx, textMessage("100", 2, "hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDuplicateRemoved, result.Decision)
	assert.Equal(t, 1, result.DuplicateCount)
	assert.Zero(t, table.Stats().UniqueFingerprints, "cleared record is not resurrected")
}

func TestEngine_ConcurrentSameFingerprint(t *testing.T) {
	sink := &fakeSink{}
	engine, table, _ := newTestEngine(t, sink, "100")
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	decisions := make(chan domain.Decision, n)
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			result, err := engine.Process(ctx, textMessage("100", id, "same content"))
			if err == nil {
				decisions <- result.Decision
			}
		}(int64(i))
	}
	wg.Wait()
	close(decisions)

	counts := map[domain.Decision]int{}
	for d := range decisions {
		counts[d]++
	}
	assert.Equal(t, 1, counts[domain.DecisionFirstSeen])
	assert.Equal(t, n-1, counts[domain.DecisionDuplicateRemoved])
	assert.Len(t, sink.deletedIDs(), n-1)

	stats := table.Stats()
	assert.Equal(t, 1, stats.UniqueFingerprints)
	assert.Equal(t, int64(n-1), stats.DuplicatesRemoved)
}

func TestEngine_GroupsProceedConcurrently(t *testing.T) {
	release := make(chan struct{})
	blocked := make(chan struct{})
	sink := &fakeSink{}
	sink.hook = func(groupID string, _ int64) {
		if groupID == "100" {
			close(blocked)
			<-release
		}
	}
	engine, _, _ := newTestEngine(t, sink, "100", "200")
	ctx := context.Background()

	_, err := engine.Process(ctx, textMessage("100", 1, "hello"))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.Process(ctx, textMessage("100", 2, "hello"))
	}()
	<-blocked

	result, err := engine.Process(ctx, textMessage("200", 1, "hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionFirstSeen, result.Decision)

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("group 100 deletion did not finish")
	}
}
