package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/livecoll"
)

// StatusCarrier is implemented by records that expose a lifecycle status
// lifted into the backend envelope for server-side filtering.
type StatusCarrier interface {
	RecordStatus() string
}

// Collection adapts one backend collection to livecoll.Source: typed records
// in and out, generic row envelopes on the wire.
type Collection[R livecoll.Record] struct {
	api  *API
	name string
}

func NewCollection[R livecoll.Record](a *API, name string) *Collection[R] {
	return &Collection[R]{api: a, name: name}
}

func (c *Collection[R]) FetchAll(ctx context.Context, scope string, filters map[string]string) ([]R, error) {
	query := url.Values{}
	if scope != "" {
		query.Set("scope", scope)
	}
	for k, v := range filters {
		query.Set(k, v)
	}

	rows, err := c.api.ListRows(ctx, c.name, query)
	if err != nil {
		return nil, err
	}

	records := make([]R, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord[R](row)
		if err != nil {
			return nil, fmt.Errorf("error decoding %s row %s: %w", c.name, row.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Collection[R]) Mutate(ctx context.Context, op livecoll.MutationOp, record R) (R, error) {
	var zero R

	if op == livecoll.OpDelete {
		if err := c.api.DeleteRow(ctx, c.name, record.RecordID()); err != nil {
			return zero, err
		}
		return record, nil
	}

	row, err := encodeRecord(record)
	if err != nil {
		return zero, err
	}

	var out *api.Row
	switch op {
	case livecoll.OpInsert:
		out, err = c.api.CreateRow(ctx, c.name, row)
	case livecoll.OpUpdate:
		out, err = c.api.UpdateRow(ctx, c.name, row)
	default:
		return zero, fmt.Errorf("%w: unknown mutation %q", common.ErrorInvalidRecord, op)
	}
	if err != nil {
		return zero, err
	}

	return decodeRecord[R](out)
}

func encodeRecord[R livecoll.Record](record R) (*api.Row, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	row := &api.Row{
		ID:     record.RecordID(),
		Scope:  record.ScopeID(),
		Record: payload,
	}
	if sc, ok := any(record).(StatusCarrier); ok {
		row.Status = sc.RecordStatus()
	}
	return row, nil
}

func decodeRecord[R livecoll.Record](row *api.Row) (R, error) {
	var rec R
	if err := json.Unmarshal(row.Record, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}
