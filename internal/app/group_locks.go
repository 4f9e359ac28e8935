package app

import "sync"

type groupLock struct {
	mu   sync.Mutex
	refs int
}

// GroupLocks hands out one mutex per group id. Locks are released from the
// map once no goroutine holds or waits for them.
type GroupLocks struct {
	mu    sync.Mutex
	locks map[string]*groupLock
}

// NewGroupLocks creates an empty lock set
func NewGroupLocks() *GroupLocks {
	return &GroupLocks{locks: make(map[string]*groupLock)}
}

// Lock acquires the mutex for groupID and returns its release function
func (g *GroupLocks) Lock(groupID string) func() {
	g.mu.Lock()
	l, ok := g.locks[groupID]
	if !ok {
		l = &groupLock{}
		g.locks[groupID] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, groupID)
		}
		g.mu.Unlock()
	}
}

// Len returns the number of groups with a held or awaited lock
func (g *GroupLocks) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
