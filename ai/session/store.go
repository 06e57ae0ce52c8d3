package session

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCapacity = 1000
	DefaultIdleTTL  = 30 * time.Minute
)

// Store keeps sessions in memory. Sessions expire after the idle TTL without access,
// and the least recently used session is evicted when capacity is reached.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*entry
	order    *list.List
	capacity int
	idleTTL  time.Duration
	now      func() time.Time
}

type entry struct {
	session   *Session
	element   *list.Element
	expiresAt time.Time
}

// NewStore creates a store. Non-positive arguments select the defaults.
func NewStore(capacity int, idleTTL time.Duration) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Store{
		entries:  make(map[string]*entry),
		order:    list.New(),
		capacity: capacity,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Create starts a new session with a random ID.
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(sess)
	return sess
}

// Get returns a live session and refreshes its idle deadline.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		s.remove(e)
		return nil, false
	}
	e.expiresAt = s.now().Add(s.idleTTL)
	s.order.MoveToFront(e.element)
	return e.session, true
}

// GetOrCreate returns the session for id, or a new one when id is empty.
// The boolean is false when a non-empty id is unknown or expired.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	if id == "" {
		return s.Create(), true
	}
	return s.Get(id)
}

// Len returns the number of stored sessions. Expired sessions count until they
// are touched or swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// CleanupExpired drops every idle session and returns how many were removed.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []*entry
	for _, e := range s.entries {
		if now.After(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		s.remove(e)
	}
	return len(expired)
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.CleanupExpired(); n > 0 {
				slog.Debug("session: expired sessions removed", "count", n, "remaining", s.Len())
			}
		}
	}
}

// must be called with mu held
func (s *Store) insert(sess *Session) {
	for len(s.entries) >= s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.remove(oldest.Value.(*entry))
	}
	e := &entry{session: sess, expiresAt: s.now().Add(s.idleTTL)}
	e.element = s.order.PushFront(e)
	s.entries[sess.ID] = e
}

// must be called with mu held
func (s *Store) remove(e *entry) {
	s.order.Remove(e.element)
	delete(s.entries, e.session.ID)
}
