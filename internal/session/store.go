// internal/session/store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/logger"
)

var (
	ErrSessionNotFound = errors.New("session not found or expired")
	customLog          = logger.NewLogger()
)

// Store keeps session contexts in memory. Sessions idle for longer than ttl are dropped.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Context
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Context),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new session bound to profile.
func (s *Store) Create(profile *config.Profile) *Context {
	now := s.now()
	sc := &Context{
		ID:        uuid.NewString(),
		Profile:   profile,
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sc.ID] = sc
	s.mu.Unlock()

	customLog.Printf("Session: Created session %s for profile '%s'", sc.ID, profile.Name)
	return sc
}

// Get returns a live session and refreshes its idle timer.
func (s *Store) Get(id string) (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	now := s.now()
	if now.Sub(sc.LastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sc.LastSeen = now
	return sc, nil
}

// Delete ends a session.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Prune removes idle sessions and returns how many were dropped.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	dropped := 0
	for id, sc := range s.sessions {
		if now.Sub(sc.LastSeen) > s.ttl {
			delete(s.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		customLog.Printf("Session: Pruned %d idle sessions", dropped)
	}
	return dropped
}

// Len reports the number of sessions held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RunPruner prunes idle sessions every interval until ctx is done.
func (s *Store) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Prune()
		case <-ctx.Done():
			return
		}
	}
}
