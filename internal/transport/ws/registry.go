package ws

import (
	"sync"

	"github.com/google/uuid"
)

// Registry maps each user to the set of their live connections. A user may
// hold several at once (multi-device); a user is online iff the set is
// non-empty. The registry is an injected instance, not a package global, so
// handlers and tests receive it explicitly.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register adds a connection to the user's set and reports whether this was
// the empty->non-empty transition. Registering the same connection twice is
// a no-op.
func (r *Registry) Register(userID uuid.UUID, c *Client) (cameOnline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[*Client]struct{})
		r.conns[userID] = set
	}
	if _, dup := set[c]; dup {
		return false
	}
	set[c] = struct{}{}
	return len(set) == 1
}

// Unregister removes a connection and reports whether the user's set just
// became empty. An absent connection is a no-op returning false, so the
// offline signal fires at most once per emptying transition even when a
// disconnect event and a socket error both unregister the same handle.
func (r *Registry) Unregister(userID uuid.UUID, c *Client) (wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	if _, present := set[c]; !present {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, userID)
		return true
	}
	return false
}

func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// ConnectionsFor returns a snapshot of the user's live connections. A handle
// may go stale between snapshot and use; sending to a stale handle silently
// drops.
func (r *Registry) ConnectionsFor(userID uuid.UUID) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
