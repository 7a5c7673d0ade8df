package store

import (
	"context"
	"sync"

	"notifyd/internal/domain"
)

// MemoryStore keeps deferred work in process memory for single-instance
// mode without external dependencies.
// Params: in-memory map guarded by RW mutex.
// Returns: store implementation that forgets work on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	pending map[string]domain.DeferredWork
}

// NewMemoryStore creates an in-memory deferred-work store.
// Params: none.
// Returns: initialized empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pending: make(map[string]domain.DeferredWork)}
}

// Put stores one deferred-work entry, replacing any entry with the same key.
// Params: work entry carrying its own key.
// Returns: nil (in-memory update).
func (s *MemoryStore) Put(_ context.Context, work domain.DeferredWork) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[work.Key()] = work
	return nil
}

// Get reads one deferred-work entry.
// Params: stable work key.
// Returns: entry or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, key string) (domain.DeferredWork, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	work, ok := s.pending[key]
	if !ok {
		return domain.DeferredWork{}, ErrNotFound
	}
	return work, nil
}

// Delete removes one deferred-work entry.
// Params: stable work key.
// Returns: nil even when the key is absent.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	return nil
}

// List returns all pending deferred-work entries.
// Params: none.
// Returns: snapshot in unspecified order.
func (s *MemoryStore) List(_ context.Context) ([]domain.DeferredWork, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]domain.DeferredWork, 0, len(s.pending))
	for _, work := range s.pending {
		all = append(all, work)
	}
	return all, nil
}

// Close releases nothing for the in-memory backend.
// Params: none.
// Returns: nil.
func (s *MemoryStore) Close() error {
	return nil
}
