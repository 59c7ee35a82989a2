// Package session replaces ad hoc client-side auth state with an explicit
// server-side session: one entry per login, dropped on logout or expiry.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session binds a customer identity to per-session state.
type Session[T any] struct {
	Token        string
	UserID       string
	BackendToken string
	ExpiresAt    time.Time
	State        T
}

// Registry is safe for concurrent use.
type Registry[T any] struct {
	mu       sync.RWMutex
	sessions map[string]*Session[T]
	ttl      time.Duration
	now      func() time.Time
	onClose  func(*Session[T])
}

func NewRegistry[T any](ttl time.Duration) *Registry[T] {
	return &Registry[T]{
		sessions: make(map[string]*Session[T]),
		ttl:      ttl,
		now:      time.Now,
	}
}

// OnClose registers a hook run for every session removed by Close or Sweep.
func (r *Registry[T]) OnClose(fn func(*Session[T])) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = fn
}

func (r *Registry[T]) Open(userID, backendToken string, state T) *Session[T] {
	s := &Session[T]{
		Token:        uuid.New().String(),
		UserID:       userID,
		BackendToken: backendToken,
		ExpiresAt:    r.now().Add(r.ttl),
		State:        state,
	}

	r.mu.Lock()
	r.sessions[s.Token] = s
	r.mu.Unlock()
	return s
}

// Get returns the live session for token. Expired sessions are reported as
// missing and removed.
func (r *Registry[T]) Get(token string) (*Session[T], bool) {
	r.mu.RLock()
	s, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !r.now().Before(s.ExpiresAt) {
		r.Close(token)
		return nil, false
	}
	return s, true
}

func (r *Registry[T]) Close(token string) bool {
	r.mu.Lock()
	s, ok := r.sessions[token]
	if ok {
		delete(r.sessions, token)
	}
	hook := r.onClose
	r.mu.Unlock()

	if ok && hook != nil {
		hook(s)
	}
	return ok
}

// Sweep drops every expired session and returns how many were removed.
func (r *Registry[T]) Sweep() int {
	now := r.now()
	var expired []string

	r.mu.RLock()
	for token, s := range r.sessions {
		if !now.Before(s.ExpiresAt) {
			expired = append(expired, token)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, token := range expired {
		if r.Close(token) {
			n++
		}
	}
	return n
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
