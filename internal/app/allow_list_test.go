package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowList(t *testing.T) {
	list := NewAllowList([]string{"200", "100", ""}, false)

	assert.True(t, list.Contains("100"))
	assert.False(t, list.Contains("300"))
	assert.False(t, list.Contains(""))
	assert.Equal(t, []string{"100", "200"}, list.Groups())

	list.Replace([]string{"300"}, false)
	assert.False(t, list.Contains("100"))
	assert.True(t, list.Contains("300"))

	list.Replace(nil, true)
	assert.True(t, list.MonitorAll())
	assert.True(t, list.Contains("anything"))
	assert.Empty(t, list.Groups())
}

func TestGroupLocks(t *testing.T) {
	locks := NewGroupLocks()

	var mu sync.Mutex
	inside := map[string]int{}
	maxInside := map[string]int{}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		group := "a"
		if i%2 == 1 {
			group = "b"
		}
		wg.Add(1)
		go func(group string) {
			defer wg.Done()
			unlock := locks.Lock(group)
			defer unlock()

			mu.Lock()
			inside[group]++
			if inside[group] > maxInside[group] {
				maxInside[group] = inside[group]
			}
			mu.Unlock()

			mu.Lock()
			inside[group]--
			mu.Unlock()
		}(group)
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside["a"])
	assert.Equal(t, 1, maxInside["b"])
	assert.Zero(t, locks.Len(), "idle locks are released")
}
