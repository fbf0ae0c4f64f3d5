package memory

import (
	"context"
	"sync"

	"pumpscope/internal/domain"
	"pumpscope/internal/storage"
)

// WaitlistStore is an in-memory implementation of storage.WaitlistStore.
// Contents are lost on restart.
type WaitlistStore struct {
	mu      sync.RWMutex
	entries []*domain.WaitlistEntry
	byEmail map[string]struct{}
}

// NewWaitlistStore creates a new in-memory waitlist store.
func NewWaitlistStore() *WaitlistStore {
	return &WaitlistStore{
		byEmail: make(map[string]struct{}),
	}
}

// Insert appends a new entry. Returns ErrDuplicateKey if the email exists.
func (s *WaitlistStore) Insert(_ context.Context, e *domain.WaitlistEntry) error {
	if e == nil || e.Email == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[e.Email]; exists {
		return storage.ErrDuplicateKey
	}

	entryCopy := *e
	s.entries = append(s.entries, &entryCopy)
	s.byEmail[e.Email] = struct{}{}
	return nil
}

// Count returns the number of entries.
func (s *WaitlistStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// GetAll returns all entries in insertion order.
func (s *WaitlistStore) GetAll(_ context.Context) ([]*domain.WaitlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WaitlistEntry, len(s.entries))
	for i, e := range s.entries {
		entryCopy := *e
		result[i] = &entryCopy
	}
	return result, nil
}

var _ storage.WaitlistStore = (*WaitlistStore)(nil)
