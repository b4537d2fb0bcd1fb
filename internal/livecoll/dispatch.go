package livecoll

import (
	"context"
	"fmt"

	"github.com/gigmatch/livesync/internal/common"
)

// Action names a locally-initiated mutation routed through Dispatch.
type Action string

const (
	// ActionCreate inserts a new record (send a message, post a gig).
	ActionCreate Action = "create"
	// ActionUpdate replaces a record (accept an application, edit a gig).
	ActionUpdate Action = "update"
	// ActionSuppress permanently hides a record for this scope (reject an
	// application): optimistic removal plus a durable tombstone.
	ActionSuppress Action = "suppress"
	// ActionDelete deletes a record.
	ActionDelete Action = "delete"
)

// Dispatch is the single entry point for locally-initiated mutations. The
// intended local effect is applied synchronously, before the network round
// trip, so the UI never waits on latency to reflect the user's action; the
// matching feed event later reinforces it.
//
// For ActionSuppress the tombstone is written before the mutation request:
// even if confirmation is slow or the session dies, the record cannot flash
// back.
//
// A failed mutation is returned to the caller as an error; the optimistic
// local state is deliberately NOT reverted. The dominant failure mode is a
// mutation that succeeded slowly, and visually undoing the user's action is
// worse than a rare stuck state a refresh corrects.
func (s *Synchronizer[R]) Dispatch(ctx context.Context, action Action, record R) error {
	if isNilRecord(record) || record.RecordID() == "" {
		return common.ErrorInvalidRecord
	}
	id := record.RecordID()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return common.ErrSubscriptionClosed
	}
	gen := s.gen
	scope := s.scope

	var (
		op      MutationOp
		changed bool
	)
	switch action {
	case ActionCreate:
		op = OpInsert
		changed = s.rec.Apply(ctx, s.coll, Event[R]{Kind: Created, ID: id, Scope: scope, Record: record})
	case ActionUpdate:
		op = OpUpdate
		changed = s.rec.Apply(ctx, s.coll, Event[R]{Kind: Updated, ID: id, Scope: scope, Record: record})
	case ActionSuppress:
		op = OpUpdate
		// The suppression mark lands under the same lock that serializes
		// event application: an update already in flight cannot re-insert
		// the record between the removal below and the tombstone write.
		s.rec.Suppress(id)
		changed = s.coll.remove(id)
	case ActionDelete:
		op = OpDelete
		changed = s.rec.Apply(ctx, s.coll, Event[R]{Kind: Deleted, ID: id})
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: unknown action %q", common.ErrorInvalidRecord, action)
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}

	if action == ActionSuppress {
		// Durable write happens before the network call.
		if err := s.tombs.Add(ctx, scope, id); err != nil {
			return fmt.Errorf("tombstone write: %w", err)
		}
	}

	confirmed, err := s.source.Mutate(ctx, op, record)
	if err != nil {
		return fmt.Errorf("mutation failed: %w", err)
	}

	// Fold the confirmed snapshot back in. Idempotent: the reconciler's
	// suppression and tombstone checks keep rejected records out, and the
	// matching feed event will apply the same state again.
	if op != OpDelete && !isNilRecord(confirmed) {
		s.mu.Lock()
		applied := false
		if !s.closed && s.gen == gen {
			applied = s.rec.Apply(ctx, s.coll, Event[R]{
				Kind:   Updated,
				ID:     confirmed.RecordID(),
				Scope:  scope,
				Record: confirmed,
			})
		}
		s.mu.Unlock()
		if applied {
			s.notify()
		}
	}

	return nil
}
