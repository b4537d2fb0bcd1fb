package livecoll

import (
	"context"

	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/tombstone"
)

// Reconciler folds change events and bulk-fetch results into a Collection
// for one scope. It owns three pieces of per-scope memory: the tombstone
// store (durably suppressed ids), the set of ids removed by delete events,
// which keeps a slow bulk fetch from resurrecting rows deleted while it was
// in flight, and the set of ids suppressed locally this session, which covers
// the gap before their tombstone write lands.
type Reconciler[R Record] struct {
	scope      string
	tombs      tombstone.Store
	log        logging.Logger
	removed    map[string]struct{}
	suppressed map[string]struct{}
}

func NewReconciler[R Record](scope string, tombs tombstone.Store, log logging.Logger) *Reconciler[R] {
	return &Reconciler[R]{
		scope:      scope,
		tombs:      tombs,
		log:        log.With("module", "reconciler", "scope", scope),
		removed:    make(map[string]struct{}),
		suppressed: make(map[string]struct{}),
	}
}

// Suppress marks id as suppressed for this scope. The caller invokes it under
// the same lock that serializes Apply, before the durable tombstone write, so
// an event delivered in between cannot re-insert the record.
func (r *Reconciler[R]) Suppress(id string) {
	r.suppressed[id] = struct{}{}
}

// Apply reconciles one event into c and reports whether c changed.
//
// Rules, in order:
//  1. Deleted removes the id unconditionally — deletion always wins, even
//     over a tombstone check, and regardless of the event's scope (the
//     transport may not know the parent of a purged row).
//  2. Events for a tombstoned (scope, id) are discarded entirely.
//  3. Created inserts at the head; if the id already exists (at-least-once
//     delivery, or an optimistic pre-insert racing the real event) the
//     incoming payload replaces the existing entry instead of duplicating it.
//  4. Updated replaces in place, merge-preserving (see Merger); if the id is
//     not present yet, it upserts as Created.
//
// Malformed events are dropped and logged; c is never left partially applied.
func (r *Reconciler[R]) Apply(ctx context.Context, c *Collection[R], ev Event[R]) bool {
	switch ev.Kind {
	case Deleted:
		if ev.ID == "" {
			r.log.Warn(ctx, "dropping delete event without id")
			return false
		}
		r.removed[ev.ID] = struct{}{}
		return c.remove(ev.ID)

	case Created, Updated:
		if ev.ID == "" || isNilRecord(ev.Record) {
			r.log.Warn(ctx, "dropping malformed event", "kind", ev.Kind, "id", ev.ID)
			return false
		}
		if ev.Record.RecordID() != ev.ID {
			r.log.Warn(ctx, "dropping event with mismatched record id",
				"kind", ev.Kind, "id", ev.ID, "record_id", ev.Record.RecordID())
			return false
		}
		if ev.Scope != "" && ev.Scope != r.scope {
			return false
		}
		if _, gone := r.suppressed[ev.ID]; gone {
			return false
		}
		if r.tombs.IsTombstoned(r.scope, ev.ID) {
			return false
		}

		if i, ok := c.index[ev.ID]; ok {
			next := ev.Record
			if ev.Kind == Updated {
				if m, ok := any(c.items[i]).(Merger[R]); ok {
					next = m.Merge(next)
				}
			}
			c.replace(i, next)
			return true
		}
		c.insertHead(ev.Record)
		return true

	default:
		r.log.Warn(ctx, "dropping event with unknown kind", "kind", ev.Kind, "id", ev.ID)
		return false
	}
}

// Seed reconciles the result of a bulk fetch into c. The fetch ran
// concurrently with the feed, so feed-applied state wins: ids deleted or
// tombstoned while the fetch was in flight stay out, and ids already present
// keep their (newer) feed snapshot. The collection is re-sorted newest first
// afterwards.
func (r *Reconciler[R]) Seed(ctx context.Context, c *Collection[R], records []R) {
	for _, rec := range records {
		if isNilRecord(rec) {
			continue
		}
		id := rec.RecordID()
		if id == "" {
			continue
		}
		if _, gone := r.removed[id]; gone {
			continue
		}
		if _, gone := r.suppressed[id]; gone {
			continue
		}
		if r.tombs.IsTombstoned(r.scope, id) {
			continue
		}
		if c.Contains(id) {
			continue
		}
		c.push(rec)
	}
	c.sortNewestFirst()
}
