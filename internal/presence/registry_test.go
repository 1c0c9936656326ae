package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Transitions(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Add(1, "a"), "first connection goes online")
	assert.False(t, r.Add(1, "b"))
	assert.Equal(t, 2, r.ConnectionCount(1))

	assert.False(t, r.Remove(1, "a"), "still connected through b")
	assert.True(t, r.IsOnline(1))
	assert.True(t, r.Remove(1, "b"), "last connection goes offline")
	assert.False(t, r.IsOnline(1))
	assert.Equal(t, 0, r.ConnectionCount(1))
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Remove(1, "nope"))

	r.Add(1, "a")
	assert.False(t, r.Remove(1, "nope"))
	assert.False(t, r.Remove(2, "a"))
	assert.True(t, r.IsOnline(1))
}

func TestRegistry_DuplicateAdd(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Add(1, "a"))
	assert.False(t, r.Add(1, "a"))
	assert.True(t, r.Remove(1, "a"))
}

func TestRegistry_OnlineUserIDs(t *testing.T) {
	r := NewRegistry()
	r.Add(3, "x")
	r.Add(1, "y")
	r.Add(3, "z")

	assert.Equal(t, []uint{1, 3}, r.OnlineUserIDs())
	assert.Equal(t, 2, r.OnlineCount())
}

func TestRegistry_ConcurrentTransitionsAreCountedOnce(t *testing.T) {
	r := NewRegistry()
	const n = 64

	var wg sync.WaitGroup
	var mu sync.Mutex
	online, offline := 0, 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.Add(7, fmt.Sprintf("c%d", i)) {
				mu.Lock()
				online++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.Remove(7, fmt.Sprintf("c%d", i)) {
				mu.Lock()
				offline++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, online)
	assert.Equal(t, 1, offline)
	assert.False(t, r.IsOnline(7))
}
