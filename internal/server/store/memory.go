package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
)

// MemoryRepository is the non-durable repository used in tests and for local
// single-binary runs without postgres.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]map[string]*api.Row // collection -> id -> row
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string]map[string]*api.Row)}
}

func (r *MemoryRepository) List(_ context.Context, collection string, f Filter) ([]*api.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids map[string]struct{}
	if len(f.IDs) > 0 {
		ids = make(map[string]struct{}, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = struct{}{}
		}
	}

	var result []*api.Row
	for _, row := range r.data[collection] {
		if f.Scope != "" && row.Scope != f.Scope {
			continue
		}
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		if ids != nil {
			if _, ok := ids[row.ID]; !ok {
				continue
			}
		}
		copied := *row
		result = append(result, &copied)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) Get(_ context.Context, collection, id string) (*api.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.data[collection][id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *MemoryRepository) Insert(_ context.Context, collection string, row *api.Row) (*api.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data[collection] == nil {
		r.data[collection] = make(map[string]*api.Row)
	}
	if _, ok := r.data[collection][row.ID]; ok {
		return nil, common.ErrorConflict
	}

	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	copied := *row
	r.data[collection][row.ID] = &copied
	return row, nil
}

func (r *MemoryRepository) Update(_ context.Context, collection string, row *api.Row) (*api.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.data[collection][row.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}

	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = time.Now().UTC()
	copied := *row
	r.data[collection][row.ID] = &copied
	return row, nil
}

func (r *MemoryRepository) Delete(_ context.Context, collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[collection][id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.data[collection], id)
	return nil
}
