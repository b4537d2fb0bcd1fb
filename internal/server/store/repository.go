// Package store persists the generic record rows served by the backend.
package store

import (
	"context"

	"github.com/gigmatch/livesync/internal/api"
)

// Filter narrows a List call. Zero values mean "any".
type Filter struct {
	Scope  string
	Status string
	IDs    []string
}

// Repository stores rows grouped by collection, newest first.
type Repository interface {
	List(ctx context.Context, collection string, f Filter) ([]*api.Row, error)
	Get(ctx context.Context, collection, id string) (*api.Row, error)
	Insert(ctx context.Context, collection string, row *api.Row) (*api.Row, error)
	Update(ctx context.Context, collection string, row *api.Row) (*api.Row, error)
	Delete(ctx context.Context, collection, id string) error
}
