package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// memoryRepo keeps sessions and turns in process memory. Used by tests
// and single-node deployments without Postgres.
type memoryRepo struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
	turns    map[uuid.UUID][]Turn
}

func NewMemoryRepository() Repository {
	return &memoryRepo{
		sessions: make(map[uuid.UUID]Session),
		turns:    make(map[uuid.UUID][]Turn),
	}
}

func (r *memoryRepo) CreateSession(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *memoryRepo) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *memoryRepo) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Status = status
	r.sessions[id] = s
	return nil
}

func (r *memoryRepo) AppendTurn(ctx context.Context, s *Session, t *Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	for _, existing := range r.turns[s.ID] {
		if existing.TurnNumber == t.TurnNumber {
			return fmt.Errorf("duplicate turn number %d for session %s", t.TurnNumber, s.ID)
		}
	}

	r.turns[s.ID] = append(r.turns[s.ID], *t)
	r.sessions[s.ID] = *s
	return nil
}

func (r *memoryRepo) ListTurns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	turns := make([]Turn, len(r.turns[sessionID]))
	copy(turns, r.turns[sessionID])
	return turns, nil
}
