package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/orchard/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.RunRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.RunRecord),
	}
}

// Save persists a copy of the record.
func (s *Store) Save(ctx context.Context, rec *domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ID] = copyRecord(rec)
	return nil
}

// Load retrieves a copy of the record so callers cannot mutate the stored one.
func (s *Store) Load(ctx context.Context, id string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return copyRecord(rec), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored run ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func copyRecord(rec *domain.RunRecord) *domain.RunRecord {
	c := *rec
	c.History = append([]string(nil), rec.History...)
	return &c
}
