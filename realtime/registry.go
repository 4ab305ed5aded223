// Package realtime owns live-connection state: the presence registry, the
// event router, and the websocket connection sessions.
package realtime

import (
	"sync"

	"zchat/contract"
	"zchat/domain"
)

// Registry is the single source of truth for "is this user reachable right
// now". It maps a user to the set of their currently-open connection
// handles. An entry exists iff at least one handle is live; the last
// deregistration removes the user entry entirely.
//
// All operations are in-memory and serialized by one RWMutex, so register/
// deregister races on the same user (two browser tabs connecting and
// disconnecting concurrently) cannot corrupt the handle set.
type Registry struct {
	mu      sync.RWMutex
	handles map[domain.UserID]map[string]contract.Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[domain.UserID]map[string]contract.Handle)}
}

// Register adds the handle under the user. Registering the same handle id
// twice leaves a single entry. Never fails.
func (r *Registry) Register(user domain.UserID, h contract.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.handles[user]
	if !ok {
		set = make(map[string]contract.Handle)
		r.handles[user] = set
	}
	set[h.ID()] = h
}

// Deregister removes one handle. Removing a handle that is not present is a
// no-op. When the user's set becomes empty the entry is deleted so the map
// does not accumulate offline users.
func (r *Registry) Deregister(user domain.UserID, handleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.handles[user]
	if !ok {
		return
	}
	delete(set, handleID)
	if len(set) == 0 {
		delete(r.handles, user)
	}
}

// HandlesFor returns a snapshot of the user's live handles. Callers get a
// copy; the internal map is never exposed.
func (r *Registry) HandlesFor(user domain.UserID) []contract.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.handles[user]
	if len(set) == 0 {
		return nil
	}
	snapshot := make([]contract.Handle, 0, len(set))
	for _, h := range set {
		snapshot = append(snapshot, h)
	}
	return snapshot
}

func (r *Registry) IsOnline(user domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles[user]) > 0
}
