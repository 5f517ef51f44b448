// Package confirmation keeps per-conversation disambiguation state and interprets
// the user's reply to a numbered candidate list.
package confirmation

import (
	"context"
	"sync"
	"time"

	"copper-intel-workers/internal/models"

	"github.com/google/uuid"
)

// Store holds at most one pending confirmation per key. Put replaces any existing
// entry. ClearIf deletes the entry only while it is still the one with the given id.
type Store interface {
	Get(ctx context.Context, key models.ConfirmationKey) (*models.PendingConfirmation, error)
	Put(ctx context.Context, p *models.PendingConfirmation) error
	Clear(ctx context.Context, key models.ConfirmationKey) error
	ClearIf(ctx context.Context, key models.ConfirmationKey, id uuid.UUID) (bool, error)
}

// MemoryStore is a process-local Store for single-instance deployments.
type MemoryStore struct {
	mu    sync.Mutex
	items map[models.ConfirmationKey]*models.PendingConfirmation
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore returns an empty store. Entries older than ttl read as absent; a
// non-positive ttl keeps them until cleared.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[models.ConfirmationKey]*models.PendingConfirmation),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key models.ConfirmationKey) (*models.PendingConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key), nil
}

func (s *MemoryStore) getLocked(key models.ConfirmationKey) *models.PendingConfirmation {
	p, ok := s.items[key]
	if !ok {
		return nil
	}
	if p.Expired(s.now(), s.ttl) {
		delete(s.items, key)
		return nil
	}
	cp := *p
	return &cp
}

func (s *MemoryStore) Put(_ context.Context, p *models.PendingConfirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.items[p.Key] = &cp
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key models.ConfirmationKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *MemoryStore) ClearIf(_ context.Context, key models.ConfirmationKey, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.getLocked(key)
	if p == nil || p.ID != id {
		return false, nil
	}
	delete(s.items, key)
	return true, nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
