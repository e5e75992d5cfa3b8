// Package presence tracks which users currently have live realtime
// connections. It is process-scoped and holds no persistent state.
package presence

import "sync"

// Session is one live connection belonging to an authenticated user. Push
// must not block; implementations are expected to buffer or drop.
type Session interface {
	UserID() string
	Push(data []byte)
}

// Registry is a concurrency-safe map from user id to that user's open
// sessions. Mutations are serialized; reads take snapshots and may race
// benignly with concurrent register/unregister calls.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string][]Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string][]Session)}
}

// Register files the session under its user. Registering the same session
// twice is a no-op, so an entry never appears more than once.
func (r *Registry) Register(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID := s.UserID()
	for _, existing := range r.sessions[userID] {
		if existing == s {
			return
		}
	}
	r.sessions[userID] = append(r.sessions[userID], s)
}

// Unregister removes the session from its user's entry. Removing a session
// that is not registered is a no-op.
func (r *Registry) Unregister(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID := s.UserID()
	list := r.sessions[userID]
	for i, existing := range list {
		if existing == s {
			r.sessions[userID] = append(list[:i:i], list[i+1:]...)
			if len(r.sessions[userID]) == 0 {
				delete(r.sessions, userID)
			}
			return
		}
	}
}

// SessionsFor returns a snapshot of the user's open sessions in
// registration order. The returned slice is the caller's to keep.
func (r *Registry) SessionsFor(userID string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.sessions[userID]
	if len(list) == 0 {
		return nil
	}
	out := make([]Session, len(list))
	copy(out, list)
	return out
}

// Online reports whether the user has at least one open session.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}
