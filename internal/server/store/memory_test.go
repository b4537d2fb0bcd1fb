package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
)

func row(id, scope, status string) *api.Row {
	return &api.Row{ID: id, Scope: scope, Status: status, Record: json.RawMessage(`{"id":"` + id + `"}`)}
}

func TestMemoryRepository_CRUD(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	_, err := r.Insert(ctx, "gigs", row("g1", "owner1", "draft"))
	require.NoError(t, err)
	_, err = r.Insert(ctx, "gigs", row("g1", "owner1", "draft"))
	assert.ErrorIs(t, err, common.ErrorConflict)

	got, err := r.Get(ctx, "gigs", "g1")
	require.NoError(t, err)
	assert.Equal(t, "owner1", got.Scope)
	assert.False(t, got.CreatedAt.IsZero())

	updated, err := r.Update(ctx, "gigs", row("g1", "owner1", "published"))
	require.NoError(t, err)
	assert.Equal(t, got.CreatedAt, updated.CreatedAt)

	require.NoError(t, r.Delete(ctx, "gigs", "g1"))
	assert.ErrorIs(t, r.Delete(ctx, "gigs", "g1"), common.ErrorNotFound)
	_, err = r.Get(ctx, "gigs", "g1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = r.Update(ctx, "gigs", row("g1", "owner1", "published"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_ListFilters(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	_, err := r.Insert(ctx, "gigs", row("g1", "owner1", "draft"))
	require.NoError(t, err)
	_, err = r.Insert(ctx, "gigs", row("g2", "owner1", "published"))
	require.NoError(t, err)
	_, err = r.Insert(ctx, "gigs", row("g3", "owner2", "published"))
	require.NoError(t, err)
	_, err = r.Insert(ctx, "applications", row("a1", "g1", "pending"))
	require.NoError(t, err)

	all, err := r.List(ctx, "gigs", Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byScope, err := r.List(ctx, "gigs", Filter{Scope: "owner1"})
	require.NoError(t, err)
	assert.Len(t, byScope, 2)

	byStatus, err := r.List(ctx, "gigs", Filter{Scope: "owner1", Status: "published"})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "g2", byStatus[0].ID)

	byIDs, err := r.List(ctx, "gigs", Filter{IDs: []string{"g1", "g3", "nope"}})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

func TestMemoryRepository_ListIsolatesRows(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	_, err := r.Insert(ctx, "gigs", row("g1", "owner1", "draft"))
	require.NoError(t, err)

	rows, err := r.List(ctx, "gigs", Filter{})
	require.NoError(t, err)
	rows[0].Status = "mutated"

	got, err := r.Get(ctx, "gigs", "g1")
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Status)
}
