package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
)

// MemoryStore is a single-process SessionStore. Expired sessions are dropped lazily.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]entities.ChatSession
}

var _ providers.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]entities.ChatSession),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*entities.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.live(id)
	if !ok {
		return nil, providers.ErrSessionNotFound
	}
	return &session, nil
}

func (s *MemoryStore) Create(ctx context.Context, session *entities.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(session.ID); ok {
		return fmt.Errorf("session: %s already exists", session.ID)
	}
	session.Revision = 1
	session.UpdatedAt = s.now().UTC()
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemoryStore) CompareAndSwap(ctx context.Context, session *entities.ChatSession, expectedRevision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.live(session.ID)
	if !ok {
		return providers.ErrSessionNotFound
	}
	if stored.Revision != expectedRevision {
		return providers.ErrStaleRevision
	}

	session.Revision = expectedRevision + 1
	session.UpdatedAt = s.now().UTC()
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// live must be called with mu held
func (s *MemoryStore) live(id string) (entities.ChatSession, bool) {
	session, ok := s.sessions[id]
	if !ok {
		return entities.ChatSession{}, false
	}
	if s.ttl > 0 && s.now().Sub(session.UpdatedAt) > s.ttl {
		delete(s.sessions, id)
		return entities.ChatSession{}, false
	}
	return session, true
}
