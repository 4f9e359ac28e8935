package app

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
	"github.com/yourusername/dupe-guard/internal/fingerprint"
)

// memStore implements domain.SnapshotStore in memory for testing
type memStore struct {
	mu        sync.Mutex
	saved     domain.Snapshot
	saves     int
	loadErr   error
	saveErr   error
	preloaded domain.Snapshot
}

func (m *memStore) Load() (domain.Snapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.preloaded == nil {
		return domain.Snapshot{}, nil
	}
	return m.preloaded, nil
}

func (m *memStore) Save(snapshot domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = snapshot
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) lastSaved() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// fakeSink implements domain.DeletionSink for testing
type fakeSink struct {
	mu      sync.Mutex
	deleted []int64
	err     error
	hook    func(groupID string, messageID int64)
}

func (s *fakeSink) Delete(ctx context.Context, groupID string, messageID int64) error {
	if s.hook != nil {
		s.hook(groupID, messageID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, messageID)
	return nil
}

func (s *fakeSink) deletedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.deleted...)
}

// fakeNotifier implements domain.Notifier for testing
type fakeNotifier struct {
	mu     sync.Mutex
	groups []string
}

func (n *fakeNotifier) NotifyPermissionDenied(groupID, chatTitle string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.groups = append(n.groups, groupID)
}

func newTestEngine(t *testing.T, sink domain.DeletionSink, groups ...string) (*Engine, *DedupTable, *memStore) {
	t.Helper()
	store := &memStore{}
	table := NewDedupTable(store, zap.NewNop())
	extractor, err := fingerprint.NewExtractor("md5")
	if err != nil {
		t.Fatal(err)
	}
	engine := NewEngine(table, extractor, sink, nil, NewAllowList(groups, false), zap.NewNop(), nil)
	return engine, table, store
}

func textMessage(groupID string, messageID int64, text string) *domain.Message {
	return &domain.Message{GroupID: groupID, MessageID: messageID, ChatType: domain.ChatSupergroup, Text: text}
}
