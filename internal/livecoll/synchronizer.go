package livecoll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/tombstone"
)

// MutationOp names a single-record mutation on the backend.
type MutationOp string

const (
	OpInsert MutationOp = "insert"
	OpUpdate MutationOp = "update"
	OpDelete MutationOp = "delete"
)

// Source is the external data-access boundary: bulk initial load plus
// single-record mutations. The core consumes it, never implements it.
type Source[R Record] interface {
	FetchAll(ctx context.Context, scope string, filters map[string]string) ([]R, error)
	Mutate(ctx context.Context, op MutationOp, record R) (R, error)
}

// FeedStatus reports connection health of a subscription.
type FeedStatus int

const (
	// FeedLive means events are flowing.
	FeedLive FeedStatus = iota
	// FeedStale means the transport dropped and reconnection is in progress;
	// the collection is last-known-good until a re-seed lands.
	FeedStale
)

// Subscription is a handle to one open change-feed stream. Close is
// idempotent; events racing a close are dropped by the owner.
type Subscription interface {
	Close() error
}

// Feed is the raw change-feed primitive, scoped by parent id.
type Feed[R Record] interface {
	Subscribe(ctx context.Context, scope string, onEvent func(Event[R]), onStatus func(FeedStatus)) (Subscription, error)
}

// Synchronizer owns the live collection for exactly one scope at a time: it
// opens the subscription, runs the initial bulk fetch, feeds events through
// the reconciler, and applies optimistic local mutations. All collection
// writes are serialized; fetch completion, feed delivery and Dispatch may
// interleave arbitrarily.
type Synchronizer[R Record] struct {
	source   Source[R]
	feed     Feed[R]
	tombs    tombstone.Store
	log      logging.Logger
	filters  map[string]string
	onChange func()

	seedBackoff time.Duration

	mu      sync.Mutex
	scope   string
	gen     int
	sub     Subscription
	coll    *Collection[R]
	rec     *Reconciler[R]
	loading bool
	stale   bool
	closed  bool
}

// Option configures a Synchronizer.
type Option[R Record] func(*Synchronizer[R])

// WithFilters adds extra filters passed to every bulk fetch.
func WithFilters[R Record](filters map[string]string) Option[R] {
	return func(s *Synchronizer[R]) { s.filters = filters }
}

// WithOnChange registers a callback invoked (outside the internal lock) after
// every observable collection or flag change. Rendering hangs off this.
func WithOnChange[R Record](fn func()) Option[R] {
	return func(s *Synchronizer[R]) { s.onChange = fn }
}

// WithSeedBackoff overrides the base backoff for bulk-fetch retries.
func WithSeedBackoff[R Record](d time.Duration) Option[R] {
	return func(s *Synchronizer[R]) { s.seedBackoff = d }
}

func NewSynchronizer[R Record](source Source[R], feed Feed[R], tombs tombstone.Store, log logging.Logger, opts ...Option[R]) *Synchronizer[R] {
	s := &Synchronizer[R]{
		source:      source,
		feed:        feed,
		tombs:       tombs,
		log:         log.With("module", "synchronizer"),
		seedBackoff: 500 * time.Millisecond,
		coll:        NewCollection[R](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the synchronizer for scope. Calling Start on a running
// synchronizer rotates to the new scope.
func (s *Synchronizer[R]) Start(ctx context.Context, scope string) error {
	return s.rotate(ctx, scope)
}

// SetScope rotates to a new scope: the old subscription is closed before the
// new one opens, and events still in flight for the old scope are dropped.
func (s *Synchronizer[R]) SetScope(ctx context.Context, scope string) error {
	return s.rotate(ctx, scope)
}

func (s *Synchronizer[R]) rotate(ctx context.Context, scope string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return common.ErrSubscriptionClosed
	}
	s.gen++
	gen := s.gen
	old := s.sub
	s.sub = nil
	s.scope = scope
	s.coll = NewCollection[R]()
	s.rec = NewReconciler[R](scope, s.tombs, s.log)
	s.loading = true
	s.stale = false
	s.mu.Unlock()

	// Old handle closes before the new one opens; no two live subscriptions
	// for the same logical owner.
	if old != nil {
		_ = old.Close()
	}

	if _, err := s.tombs.LoadAll(ctx, scope); err != nil {
		s.log.Warn(ctx, "tombstone load failed, suppression may be incomplete", "scope", scope, "error", err)
	}

	sub, err := s.feed.Subscribe(ctx, scope, s.eventHandler(ctx, gen), s.statusHandler(ctx, scope, gen))
	if err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}

	s.mu.Lock()
	if s.closed || s.gen != gen {
		// A concurrent rotation or close won the race.
		s.mu.Unlock()
		_ = sub.Close()
		return nil
	}
	s.sub = sub
	s.mu.Unlock()

	go s.seed(ctx, scope, gen)
	return nil
}

// Close tears the synchronizer down. Idempotent.
func (s *Synchronizer[R]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.gen++
	old := s.sub
	s.sub = nil
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Records returns the current reconciled collection, newest first.
func (s *Synchronizer[R]) Records() []R {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Snapshot()
}

// Loading reports whether the initial bulk fetch for the current scope has
// not landed yet.
func (s *Synchronizer[R]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Stale reports whether the feed is reconnecting; the collection is
// last-known-good, possibly behind the server.
func (s *Synchronizer[R]) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Scope returns the currently synchronized scope.
func (s *Synchronizer[R]) Scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

func (s *Synchronizer[R]) eventHandler(ctx context.Context, gen int) func(Event[R]) {
	return func(ev Event[R]) {
		s.mu.Lock()
		if s.closed || s.gen != gen {
			// Late delivery after close or rotation.
			s.mu.Unlock()
			return
		}
		changed := s.rec.Apply(ctx, s.coll, ev)
		s.mu.Unlock()

		if changed {
			s.notify()
		}
	}
}

// Integrate applies locally-derived record snapshots (enrichment joins, for
// example) as merge-preserving updates, without a network mutation. Records
// for ids no longer in the collection are discarded: enrichment must not
// resurrect a row deleted or suppressed since the caller took its snapshot.
func (s *Synchronizer[R]) Integrate(ctx context.Context, records ...R) {
	s.mu.Lock()
	if s.closed || s.rec == nil {
		s.mu.Unlock()
		return
	}
	changed := false
	for _, r := range records {
		if isNilRecord(r) || r.RecordID() == "" || !s.coll.Contains(r.RecordID()) {
			continue
		}
		if s.rec.Apply(ctx, s.coll, Event[R]{Kind: Updated, ID: r.RecordID(), Scope: s.scope, Record: r}) {
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Synchronizer[R]) statusHandler(ctx context.Context, scope string, gen int) func(FeedStatus) {
	return func(st FeedStatus) {
		s.mu.Lock()
		if s.closed || s.gen != gen {
			s.mu.Unlock()
			return
		}
		switch st {
		case FeedStale:
			wasStale := s.stale
			s.stale = true
			s.mu.Unlock()
			if !wasStale {
				s.notify()
			}
		case FeedLive:
			wasStale := s.stale
			s.mu.Unlock()
			if wasStale {
				// Events may have been missed while disconnected; re-seed
				// from a bulk fetch. Stale clears when the seed lands.
				go s.seed(ctx, scope, gen)
			}
		default:
			s.mu.Unlock()
		}
	}
}

// seed runs the bulk fetch and folds the result into the collection. Fetch
// failures retry with capped exponential backoff until the context is done or
// the generation is rotated away.
func (s *Synchronizer[R]) seed(ctx context.Context, scope string, gen int) {
	var records []R

	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(s.seedBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		s.mu.Lock()
		stale := s.closed || s.gen != gen
		s.mu.Unlock()
		if stale {
			return nil
		}

		got, err := s.source.FetchAll(ctx, scope, s.filters)
		if err != nil {
			s.log.Warn(ctx, "bulk fetch failed, retrying", "scope", scope, "error", err)
			return retry.RetryableError(err)
		}
		records = got
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "bulk fetch abandoned", "scope", scope, "error", err)
		return
	}

	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.rec.Seed(ctx, s.coll, records)
	s.loading = false
	s.stale = false
	s.mu.Unlock()

	s.notify()
}

func (s *Synchronizer[R]) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
