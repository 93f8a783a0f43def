// Package memory provides an in-memory ports.SnapshotStore, the default
// for tests and single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/lanreath/strata/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	// Copy to ensure isolation, similar to serialization.
	copied := snap.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[id]
	if !ok {
		return nil, domain.ErrInstanceNotFound
	}

	// Copy on read so the caller can't mutate store state by pointer.
	return snap.Clone(), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored instance ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
