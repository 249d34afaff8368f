package catalog

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/audiopen/errors"
)

// MemoryBackend keeps recordings in a map guarded by a mutex.
type MemoryBackend struct {
	mu   sync.RWMutex
	rows map[string]Recording
	now  func() time.Time

	// Fail, when set, is consulted before every operation ("list",
	// "insert", "update", "delete"); a non-nil result is returned instead.
	Fail func(op, id string) error
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{rows: make(map[string]Recording), now: time.Now}
}

func (b *MemoryBackend) fail(op, id string) error {
	if b.Fail == nil {
		return nil
	}
	return b.Fail(op, id)
}

// Put stores r as is, bypassing every check. Tests seed legacy rows with it.
func (b *MemoryBackend) Put(r Recording) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[r.ID] = r
}

// Len returns the number of stored rows.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rows)
}

// List returns the owner's recordings, newest first.
func (b *MemoryBackend) List(_ context.Context, ownerID string) ([]Recording, error) {
	if err := b.fail("list", ""); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Recording, 0, len(b.rows))
	for _, r := range b.rows {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Insert assigns an id when r has none and stores the row.
func (b *MemoryBackend) Insert(_ context.Context, r Recording) (Recording, error) {
	if err := b.fail("insert", r.ID); err != nil {
		return Recording{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, ok := b.rows[r.ID]; ok {
		return Recording{}, apperrors.AlreadyExists("recording")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = b.now()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	b.rows[r.ID] = r
	return r, nil
}

// Update sets the mutable fields of row id.
func (b *MemoryBackend) Update(_ context.Context, id string, f Fields) (Recording, error) {
	if err := b.fail("update", id); err != nil {
		return Recording{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rows[id]
	if !ok {
		return Recording{}, apperrors.NotFound("recording", id)
	}
	r.Title = f.Title
	r.UpdatedAt = f.UpdatedAt
	b.rows[id] = r
	return r, nil
}

// Delete removes row id.
func (b *MemoryBackend) Delete(_ context.Context, id string) error {
	if err := b.fail("delete", id); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rows, id)
	return nil
}

func sortNewestFirst(rs []Recording) {
	slices.SortStableFunc(rs, func(a, b Recording) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
