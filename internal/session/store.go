package session

import (
	"errors"
	"time"

	"github.com/ZanzyTHEbar/readmission-guard/internal/cache"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Store owns the live sessions. Sessions expire after ttl without access.
type Store struct {
	sessions *cache.Cache[*Session]
}

// NewStore creates a store whose janitor runs at a fraction of the TTL.
func NewStore(ttl time.Duration) *Store {
	interval := ttl / 2
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	return &Store{sessions: cache.New[*Session](ttl, interval)}
}

// Create starts a new Idle session.
func (st *Store) Create() *Session {
	s := New(uuid.NewString())
	st.sessions.Set(s.ID(), s)
	return s
}

// Get returns a live session and refreshes its expiry.
func (st *Store) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	s, ok := st.sessions.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// GetOrCreate returns the session for id, or a fresh one when id is unknown.
// The boolean reports whether a new session was created.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if s, err := st.Get(id); err == nil {
		return s, false
	}
	return st.Create(), true
}

// Delete ends a session.
func (st *Store) Delete(id string) error {
	if !st.sessions.Delete(id) {
		return ErrNotFound
	}
	return nil
}

// Len returns the number of stored sessions.
func (st *Store) Len() int { return st.sessions.Size() }

// Stats exposes the underlying cache statistics.
func (st *Store) Stats() map[string]interface{} { return st.sessions.Stats() }

// Close stops background eviction.
func (st *Store) Close() { st.sessions.Close() }
