package repository

import (
	"context"
	"sync"

	"github.com/okian/vacancy/internal/domain/model"
)

// MemoryStore keeps lists in process memory. It is the default backend and
// loses everything on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string]model.PreferenceList
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string]model.PreferenceList)}
}

// Name implements Store.
func (s *MemoryStore) Name() string { return "memory" }

// SavePreferences implements Store.
func (s *MemoryStore) SavePreferences(ctx context.Context, candidateID string, list model.PreferenceList) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if list.Len() == 0 {
		delete(s.lists, candidateID)
		return nil
	}
	s.lists[candidateID] = list.Clone()
	return nil
}

// ClearPreferences implements Store.
func (s *MemoryStore) ClearPreferences(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = make(map[string]model.PreferenceList)
	return nil
}

// LoadPreferences implements Store.
func (s *MemoryStore) LoadPreferences(ctx context.Context) (map[string]model.PreferenceList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.PreferenceList, len(s.lists))
	for id, l := range s.lists {
		out[id] = l.Clone()
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
