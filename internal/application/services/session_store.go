package services

import (
	"context"
	"sync"
	"time"

	"github.com/maisonvera/concierge/internal/domain/entities"
)

// sessionEntry pairs a session with its writer lock. The per-session mutex
// is the single-writer discipline: concurrent turns for one session queue
// here while other sessions proceed in parallel.
type sessionEntry struct {
	mu      sync.Mutex
	session *entities.Session
}

// SessionStore owns all per-session mutable data. Sessions are created
// lazily on first access and expire by last-activity sweep; the hot path
// never deletes.
type SessionStore struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl of
// inactivity.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// ApplyTurn runs mutate while holding the session's writer lock. The
// session is created if unseen. If mutate returns an error, its changes
// are discarded and the stored session is left exactly as it was.
func (s *SessionStore) ApplyTurn(ctx context.Context, sessionID string, mutate func(session *entities.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := s.entryFor(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := entry.session.Clone()
	if err := mutate(working); err != nil {
		return err
	}

	working.LastActiveAt = s.now()
	entry.session = working
	return nil
}

// Snapshot returns a deep copy of the session, creating it if unseen.
func (s *SessionStore) Snapshot(sessionID string) *entities.Session {
	entry := s.entryFor(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.Clone()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes sessions idle past the TTL and returns how many were
// removed. Intended to run from a background ticker.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if !entry.mu.TryLock() {
			continue // a turn is in flight, skip this cycle
		}
		idle := entry.session.LastActiveAt.Before(cutoff)
		entry.mu.Unlock()
		if idle {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) entryFor(sessionID string) *sessionEntry {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.entries[sessionID]; ok {
		return entry
	}
	entry = &sessionEntry{session: entities.NewSession(sessionID, s.now())}
	s.entries[sessionID] = entry
	return entry
}
