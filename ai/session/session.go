package session

import (
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Session is one conversation: an append-only list of turns plus a guard that
// allows at most one outstanding request.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.RWMutex
	turns    []Turn
	inflight *semaphore.Weighted
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		inflight:  semaphore.NewWeighted(1),
	}
}

// Append adds a turn to the end of the conversation.
func (s *Session) Append(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// Turns returns a copy of the conversation in order.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// TryBegin claims the session for one request. It returns false when another
// request is still in flight. Every successful TryBegin must be paired with End.
func (s *Session) TryBegin() bool {
	return s.inflight.TryAcquire(1)
}

// End releases the claim taken by TryBegin.
func (s *Session) End() {
	s.inflight.Release(1)
}
