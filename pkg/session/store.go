package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/cmayhew/weft/pkg/observability"
)

// Store is a concurrent map of session id to session state. It is the
// only state shared across connection handlers, so all access goes
// through the store's lock. Idle sessions are removed by the cleanup
// sweep started with Run.
type Store struct {
	timeout       time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates a store evicting sessions idle longer than timeout.
// The sweep runs every sweepInterval once Run is called.
func NewStore(timeout, sweepInterval time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		timeout:       timeout,
		sweepInterval: sweepInterval,
		logger:        logger,
		sessions:      make(map[string]*Session),
		now:           time.Now,
	}
}

// GetOrCreate resolves the session for the presented id. A live id has
// its last-accessed timestamp refreshed and its session returned. An
// empty, unknown, or already-evicted id yields a freshly minted session
// and created=true; the caller is responsible for setting the session
// cookie on the response.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	now := s.now()

	if id != "" {
		// Refresh while still holding the store lock so a concurrent
		// sweep cannot evict the session between lookup and touch.
		s.mu.RLock()
		sess = s.sessions[id]
		if sess != nil {
			sess.touch(now)
		}
		s.mu.RUnlock()
		if sess != nil {
			return sess, false
		}
	}

	sess = &Session{
		ID:         newSessionID(),
		lastAccess: now,
		values:     make(map[string]any),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	size := len(s.sessions)
	s.mu.Unlock()

	observability.SessionsActive.Set(float64(size))
	return sess, true
}

// Get returns the session for id without refreshing its timestamp.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run executes the cleanup sweep on a fixed interval until ctx is
// cancelled. It is safe to run concurrently with live request traffic.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("evicted idle sessions", "count", n)
			}
		}
	}
}

// Sweep evicts every session idle beyond the timeout and returns the
// number removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.timeout)

	s.mu.Lock()
	var evicted int
	for id, sess := range s.sessions {
		if sess.idle(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	size := len(s.sessions)
	s.mu.Unlock()

	if evicted > 0 {
		observability.SessionsEvictedTotal.Add(float64(evicted))
	}
	observability.SessionsActive.Set(float64(size))
	return evicted
}

// newSessionID returns a cryptographically random opaque token.
func newSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
