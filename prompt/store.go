package prompt

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/audiopen/errors"
)

// Store persists user prompts. List orders favorites first, then by
// UpdatedAt descending.
type Store interface {
	List(ctx context.Context, ownerID string) ([]UserPrompt, error)
	Get(ctx context.Context, id string) (UserPrompt, error)
	Insert(ctx context.Context, p UserPrompt) (UserPrompt, error)
	Update(ctx context.Context, id string, c Changes) (UserPrompt, error)
	IncrementUsage(ctx context.Context, id string, at time.Time) (UserPrompt, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps prompts in a map guarded by a mutex.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]UserPrompt
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]UserPrompt)}
}

// List returns the owner's prompts in display order.
func (s *MemoryStore) List(_ context.Context, ownerID string) ([]UserPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UserPrompt, 0, len(s.rows))
	for _, p := range s.rows {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sortForDisplay(out)
	return out, nil
}

// Get returns prompt id.
func (s *MemoryStore) Get(_ context.Context, id string) (UserPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return UserPrompt{}, apperrors.NotFound("prompt", id)
	}
	return p, nil
}

// Insert stores p, assigning an id when it has none.
func (s *MemoryStore) Insert(_ context.Context, p UserPrompt) (UserPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := s.rows[p.ID]; ok {
		return UserPrompt{}, apperrors.AlreadyExists("prompt")
	}
	s.rows[p.ID] = p
	return p, nil
}

// Update writes c to prompt id.
func (s *MemoryStore) Update(_ context.Context, id string, c Changes) (UserPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return UserPrompt{}, apperrors.NotFound("prompt", id)
	}
	c.apply(&p)
	s.rows[id] = p
	return p, nil
}

// IncrementUsage adds one to the usage count of prompt id.
func (s *MemoryStore) IncrementUsage(_ context.Context, id string, at time.Time) (UserPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return UserPrompt{}, apperrors.NotFound("prompt", id)
	}
	p.UsageCount++
	p.UpdatedAt = at
	s.rows[id] = p
	return p, nil
}

// Delete removes prompt id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}
