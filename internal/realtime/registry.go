// Package realtime provides the live notification channel: a registry of
// per-user WebSocket sessions and a gateway that authenticates connections
// and fans payloads out to them.
// Uses github.com/coder/websocket - the modern, context-aware WebSocket library for Go.
package realtime

import "sync"

// Registry tracks the set of live sessions per user. It is constructed once
// at process start and shared by reference; all mutation of the user/session
// mapping goes through it. Critical sections are short and never perform I/O.
type Registry struct {
	mu sync.RWMutex

	// userID -> sessionID -> session
	byUser map[string]map[string]*Session

	// sessionID -> session, for removal by connection id alone
	byID map[string]*Session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]*Session),
		byID:   make(map[string]*Session),
	}
}

// Add registers a session under its owning user. Idempotent if the session
// is already present.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; ok {
		return
	}

	if r.byUser[s.UserID] == nil {
		r.byUser[s.UserID] = make(map[string]*Session)
	}
	r.byUser[s.UserID][s.ID] = s
	r.byID[s.ID] = s
}

// Remove deregisters a session by its connection id, reporting whether it
// was present. The user's entry is deleted entirely once its last session is
// gone. No-op for unknown ids.
func (r *Registry) Remove(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return false
	}
	delete(r.byID, sessionID)

	if sessions, ok := r.byUser[s.UserID]; ok {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(r.byUser, s.UserID)
		}
	}
	return true
}

// Sessions returns a snapshot of the user's live sessions, or nil if none.
func (r *Registry) Sessions(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, ok := r.byUser[userID]
	if !ok {
		return nil
	}

	snapshot := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		snapshot = append(snapshot, s)
	}
	return snapshot
}

// All returns a snapshot of every live session across all users.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		snapshot = append(snapshot, s)
	}
	return snapshot
}

// IsUserOnline checks if a user has any live sessions
func (r *Registry) IsUserOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions, ok := r.byUser[userID]
	return ok && len(sessions) > 0
}

// SessionCount returns the number of live sessions for a user
func (r *Registry) SessionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}

// OnlineUsers returns the ids of all users with at least one live session
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return users
}
