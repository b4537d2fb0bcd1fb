// Package hub fans change events out to connected feed subscribers.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/gigmatch/livesync/internal/feed"
	"github.com/gigmatch/livesync/internal/livecoll"
	"github.com/gigmatch/livesync/internal/logging"
)

const defaultBuffer = 64

// Hub routes published change events to subscribers by collection and scope.
// Delivery is best-effort: a subscriber whose buffer is full is evicted, which
// closes its channel and forces the client through a reconnect and reseed.
type Hub struct {
	log    logging.Logger
	buffer int

	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

func New(log logging.Logger, opts ...Option) *Hub {
	h := &Hub{
		log:    log.With("module", "hub"),
		buffer: defaultBuffer,
		subs:   make(map[*Subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type Option func(*Hub)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(h *Hub) { h.buffer = n }
}

// Subscriber receives events for one collection. An empty scope subscribes to
// the whole collection.
type Subscriber struct {
	collection string
	scope      string
	ch         chan feed.WireEvent
	hub        *Hub
}

// Events is closed when the subscriber is evicted or closed.
func (s *Subscriber) Events() <-chan feed.WireEvent { return s.ch }

// Close unregisters the subscriber. Safe to call more than once.
func (s *Subscriber) Close() { s.hub.remove(s) }

func (h *Hub) Subscribe(collection, scope string) *Subscriber {
	s := &Subscriber{
		collection: collection,
		scope:      scope,
		ch:         make(chan feed.WireEvent, h.buffer),
		hub:        h,
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) remove(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

// Publish stamps the event with a ULID sequence and delivers it to every
// matching subscriber. Deletes match regardless of scope: by the time a row
// is gone the backend may no longer know which parent it belonged to, and
// clients filter deletes by id only.
func (h *Hub) Publish(ctx context.Context, collection string, kind livecoll.Kind, id, scope string, record json.RawMessage) {
	ev := feed.WireEvent{
		Seq:        ulid.Make().String(),
		Collection: collection,
		Kind:       kind,
		ID:         id,
		Scope:      scope,
		Record:     record,
	}
	if kind == livecoll.Deleted {
		ev.Scope = ""
		ev.Record = nil
	}

	var slow []*Subscriber
	h.mu.RLock()
	for s := range h.subs {
		if s.collection != collection {
			continue
		}
		if kind != livecoll.Deleted && s.scope != "" && s.scope != scope {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.log.Warn(ctx, "evicting slow feed subscriber", "collection", s.collection, "scope", s.scope)
		h.remove(s)
	}
}

// Len reports the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
