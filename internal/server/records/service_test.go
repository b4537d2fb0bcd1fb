package records

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/livecoll"
	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/server/store"
)

type published struct {
	collection string
	kind       livecoll.Kind
	id         string
	scope      string
}

type fakeHub struct {
	events []published
}

func (f *fakeHub) Publish(_ context.Context, collection string, kind livecoll.Kind, id, scope string, _ json.RawMessage) {
	f.events = append(f.events, published{collection: collection, kind: kind, id: id, scope: scope})
}

func newService() (*Service, *fakeHub, *store.MemoryRepository) {
	repo := store.NewMemoryRepository()
	hub := &fakeHub{}
	return NewService(repo, hub, logging.NewJSON(io.Discard)), hub, repo
}

func row(id, scope string) *api.Row {
	return &api.Row{ID: id, Scope: scope, Status: "draft", Record: json.RawMessage(`{"id":"` + id + `"}`)}
}

func TestService_CreatePersistsAndPublishes(t *testing.T) {
	svc, hub, repo := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "gigs", row("g1", "owner1"))
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	stored, err := repo.Get(ctx, "gigs", "g1")
	require.NoError(t, err)
	assert.Equal(t, "owner1", stored.Scope)

	require.Len(t, hub.events, 1)
	assert.Equal(t, published{"gigs", livecoll.Created, "g1", "owner1"}, hub.events[0])
}

func TestService_CreateDuplicate(t *testing.T) {
	svc, hub, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "gigs", row("g1", "owner1"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "gigs", row("g1", "owner1"))
	assert.ErrorIs(t, err, common.ErrorConflict)
	// nothing published for the failed insert
	assert.Len(t, hub.events, 1)
}

func TestService_UpdatePublishesUpdated(t *testing.T) {
	svc, hub, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "gigs", row("g1", "owner1"))
	require.NoError(t, err)

	r := row("g1", "owner1")
	r.Status = "published"
	_, err = svc.Update(ctx, "gigs", r)
	require.NoError(t, err)

	require.Len(t, hub.events, 2)
	assert.Equal(t, livecoll.Updated, hub.events[1].kind)
}

func TestService_UpdateUnknownIDUpserts(t *testing.T) {
	svc, hub, repo := newService()
	ctx := context.Background()

	_, err := svc.Update(ctx, "gigs", row("g9", "owner1"))
	require.NoError(t, err)

	_, err = repo.Get(ctx, "gigs", "g9")
	require.NoError(t, err)

	require.Len(t, hub.events, 1)
	assert.Equal(t, livecoll.Created, hub.events[0].kind)
}

func TestService_DeletePublishesWithoutScope(t *testing.T) {
	svc, hub, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "gigs", row("g1", "owner1"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "gigs", "g1"))

	require.Len(t, hub.events, 2)
	assert.Equal(t, published{"gigs", livecoll.Deleted, "g1", ""}, hub.events[1])
}

func TestService_DeleteMissing(t *testing.T) {
	svc, hub, _ := newService()
	err := svc.Delete(context.Background(), "gigs", "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, hub.events)
}

func TestService_Validation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	tests := []struct {
		name string
		row  *api.Row
	}{
		{name: "nil row", row: nil},
		{name: "empty id", row: &api.Row{Record: json.RawMessage(`{}`)}},
		{name: "empty payload", row: &api.Row{ID: "g1"}},
		{name: "invalid json", row: &api.Row{ID: "g1", Record: json.RawMessage(`{oops`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "gigs", tt.row)
			assert.ErrorIs(t, err, common.ErrorInvalidRecord)
			_, err = svc.Update(ctx, "gigs", tt.row)
			assert.ErrorIs(t, err, common.ErrorInvalidRecord)
		})
	}

	_, err := svc.Create(ctx, "", row("g1", "o"))
	assert.ErrorIs(t, err, common.ErrorInvalidRecord)
	assert.ErrorIs(t, svc.Delete(ctx, "gigs", ""), common.ErrorInvalidRecord)
}
