// Package presence tracks which users have at least one live realtime
// connection.
package presence

import (
	"slices"
	"sync"
)

// Registry maps user ids to their set of connection ids. An entry exists
// only while the set is non-empty.
type Registry struct {
	mu    sync.RWMutex
	conns map[uint]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uint]map[string]struct{})}
}

// Add records connID for userID and reports whether it is the user's first
// connection.
func (r *Registry) Add(userID uint, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		r.conns[userID] = set
	}
	set[connID] = struct{}{}
	return !ok
}

// Remove drops connID and reports whether the user has just gone offline.
// Unknown connections are ignored.
func (r *Registry) Remove(userID uint, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.conns, userID)
		return true
	}
	return false
}

func (r *Registry) IsOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// OnlineUserIDs returns the online users in ascending order.
func (r *Registry) OnlineUserIDs() []uint {
	r.mu.RLock()
	ids := make([]uint, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (r *Registry) ConnectionCount(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}

// OnlineCount is the number of distinct online users.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
