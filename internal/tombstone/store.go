// Package tombstone implements the client-local suppression store: a set of
// (scope, record id) pairs meaning "never show this record again for this
// scope, even if the backend still reports it as live". Tombstones are written
// by local permanent actions (rejecting an application) and are never expired
// automatically; Remove exists only for an explicit undo path.
package tombstone

import "context"

// Store is the suppression set consulted by the reconciler.
//
// IsTombstoned must be a pure in-memory lookup: it sits on the hot path of
// every change-feed event. Durable implementations prime their cache with
// LoadAll before the first lookup for a scope.
type Store interface {
	// IsTombstoned reports whether (scope, id) is suppressed.
	IsTombstoned(scope, id string) bool

	// Add records a tombstone. It is idempotent. Durable implementations
	// write synchronously before returning; a storage failure is non-fatal:
	// the in-memory set is still updated so the running session stays
	// correct, and the failure is logged as a warning.
	Add(ctx context.Context, scope, id string) error

	// Remove deletes a tombstone. Explicit undo only; reconciliation never
	// calls it.
	Remove(ctx context.Context, scope, id string) error

	// LoadAll returns all suppressed ids for scope, priming any internal
	// cache as a side effect.
	LoadAll(ctx context.Context, scope string) (map[string]struct{}, error)
}
