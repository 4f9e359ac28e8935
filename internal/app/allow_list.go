package app

import (
	"sort"
	"sync"
)

// AllowList is the set of monitored group ids. It can be replaced at runtime.
type AllowList struct {
	mu         sync.RWMutex
	groups     map[string]struct{}
	monitorAll bool
}

// NewAllowList creates an allow-list from group ids
func NewAllowList(groups []string, monitorAll bool) *AllowList {
	a := &AllowList{}
	a.Replace(groups, monitorAll)
	return a
}

// Contains reports whether groupID is monitored
func (a *AllowList) Contains(groupID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.monitorAll {
		return true
	}
	_, ok := a.groups[groupID]
	return ok
}

// Replace swaps the monitored set
func (a *AllowList) Replace(groups []string, monitorAll bool) {
	set := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g != "" {
			set[g] = struct{}{}
		}
	}

	a.mu.Lock()
	a.groups = set
	a.monitorAll = monitorAll
	a.mu.Unlock()
}

// Groups returns the monitored group ids in sorted order
func (a *AllowList) Groups() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	groups := make([]string, 0, len(a.groups))
	for g := range a.groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// MonitorAll reports whether every group is monitored
func (a *AllowList) MonitorAll() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.monitorAll
}
