// Package session implements server-side per-client state keyed by an
// opaque token. Sessions live in a concurrent in-memory store and are
// evicted by a background sweep once idle beyond a configured timeout.
package session

import (
	"sync"
	"time"
)

// Session is one client's server-side state. The id is opaque and
// carried by the client in a cookie.
type Session struct {
	ID string

	mu         sync.Mutex
	lastAccess time.Time
	values     map[string]any
}

// Get returns the value stored under key, if any.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value under key.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes the value stored under key.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// LastAccess returns the time the session was last resolved by a request.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// touch refreshes the last-accessed timestamp.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

// idle reports whether the session has not been accessed since the cutoff.
func (s *Session) idle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess.Before(cutoff)
}
