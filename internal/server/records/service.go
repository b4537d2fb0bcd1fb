// Package records implements the backend record operations: validate,
// persist, then publish the change to the feed hub.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/livecoll"
	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/server/store"
)

// Publisher is the hub surface the service needs.
type Publisher interface {
	Publish(ctx context.Context, collection string, kind livecoll.Kind, id, scope string, record json.RawMessage)
}

type Service struct {
	repo store.Repository
	hub  Publisher
	log  logging.Logger
}

func NewService(repo store.Repository, hub Publisher, log logging.Logger) *Service {
	return &Service{repo: repo, hub: hub, log: log.With("module", "records")}
}

func (s *Service) List(ctx context.Context, collection string, f store.Filter) ([]*api.Row, error) {
	return s.repo.List(ctx, collection, f)
}

func (s *Service) Get(ctx context.Context, collection, id string) (*api.Row, error) {
	return s.repo.Get(ctx, collection, id)
}

func (s *Service) Create(ctx context.Context, collection string, row *api.Row) (*api.Row, error) {
	if err := validate(collection, row); err != nil {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, collection, row)
	if err != nil {
		return nil, fmt.Errorf("error creating record: %w", err)
	}

	s.hub.Publish(ctx, collection, livecoll.Created, created.ID, created.Scope, created.Record)
	return created, nil
}

// Update upserts: a PUT for an id the store has never seen becomes an insert.
// Clients generate ids locally, so an update can legitimately arrive before
// the row exists here.
func (s *Service) Update(ctx context.Context, collection string, row *api.Row) (*api.Row, error) {
	if err := validate(collection, row); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, collection, row)
	if errors.Is(err, common.ErrorNotFound) {
		s.log.Info(ctx, "update for unknown record, inserting", "collection", collection, "id", row.ID)
		created, err := s.repo.Insert(ctx, collection, row)
		if err != nil {
			return nil, fmt.Errorf("error upserting record: %w", err)
		}
		s.hub.Publish(ctx, collection, livecoll.Created, created.ID, created.Scope, created.Record)
		return created, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error updating record: %w", err)
	}

	s.hub.Publish(ctx, collection, livecoll.Updated, updated.ID, updated.Scope, updated.Record)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, collection, id string) error {
	if collection == "" || id == "" {
		return common.ErrorInvalidRecord
	}

	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return err
	}

	// The row is gone; the hub publishes deletes without a scope and clients
	// apply them by id alone.
	s.hub.Publish(ctx, collection, livecoll.Deleted, id, "", nil)
	return nil
}

func validate(collection string, row *api.Row) error {
	if collection == "" || row == nil || row.ID == "" {
		return common.ErrorInvalidRecord
	}
	if len(row.Record) == 0 || !json.Valid(row.Record) {
		return common.ErrorInvalidRecord
	}
	return nil
}
