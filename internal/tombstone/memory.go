package tombstone

import (
	"context"
	"sync"
)

// MemoryStore keeps tombstones in process memory only. Used in tests and for
// sessions that do not need suppression to survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]map[string]struct{})}
}

func (s *MemoryStore) IsTombstoned(scope, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.scopes[scope][id]
	return ok
}

func (s *MemoryStore) Add(ctx context.Context, scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.scopes[scope]
	if !ok {
		ids = make(map[string]struct{})
		s.scopes[scope] = ids
	}
	ids[id] = struct{}{}
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes[scope], id)
	return nil
}

func (s *MemoryStore) LoadAll(ctx context.Context, scope string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.scopes[scope]))
	for id := range s.scopes[scope] {
		out[id] = struct{}{}
	}
	return out, nil
}
