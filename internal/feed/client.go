package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/livecoll"
	"github.com/gigmatch/livesync/internal/logging"
)

// Client subscribes to one backend collection over websocket and implements
// livecoll.Feed. Each Subscribe call owns a single connection at a time and
// reconnects with capped exponential backoff after a transport drop,
// reporting FeedStale/FeedLive transitions to the owner.
type Client[R livecoll.Record] struct {
	baseURL    string // ws:// or wss://
	collection string
	token      string
	log        logging.Logger

	dialer      *websocket.Dialer
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// ClientOption configures a feed client.
type ClientOption[R livecoll.Record] func(*Client[R])

// WithBackoff overrides the reconnect backoff bounds.
func WithBackoff[R livecoll.Record](base, max time.Duration) ClientOption[R] {
	return func(c *Client[R]) {
		c.baseBackoff = base
		c.maxBackoff = max
	}
}

func NewClient[R livecoll.Record](baseURL, collection, token string, log logging.Logger, opts ...ClientOption[R]) *Client[R] {
	c := &Client[R]{
		baseURL:     baseURL,
		collection:  collection,
		token:       token,
		log:         log.With("module", "feed", "collection", collection),
		dialer:      websocket.DefaultDialer,
		baseBackoff: 500 * time.Millisecond,
		maxBackoff:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe opens delivery of change events scoped to scope. The returned
// handle must be closed by the owner; Close is idempotent and safe to race
// with in-flight deliveries (late events are dropped, not applied).
func (c *Client[R]) Subscribe(ctx context.Context, scope string, onEvent func(livecoll.Event[R]), onStatus func(livecoll.FeedStatus)) (livecoll.Subscription, error) {
	if onEvent == nil {
		return nil, fmt.Errorf("%w: nil event handler", common.ErrorInvalidRecord)
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel}

	go c.run(runCtx, sub, scope, onEvent, onStatus)

	return sub, nil
}

type subscription struct {
	cancel context.CancelFunc
	closed atomic.Bool

	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *subscription) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()
	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.mu.Unlock()
	return nil
}

func (s *subscription) setConn(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.conn = conn
	return true
}

func (c *Client[R]) run(ctx context.Context, sub *subscription, scope string, onEvent func(livecoll.Event[R]), onStatus func(livecoll.FeedStatus)) {
	for {
		if sub.closed.Load() || ctx.Err() != nil {
			return
		}

		conn, err := c.dial(ctx, scope)
		if err != nil {
			// Only a cancelled context ends the dial loop.
			return
		}
		if !sub.setConn(conn) {
			_ = conn.Close()
			return
		}

		c.log.Info(ctx, "feed connected", "scope", scope)
		if onStatus != nil {
			onStatus(livecoll.FeedLive)
		}

		c.readLoop(ctx, sub, conn, onEvent)
		_ = conn.Close()

		if sub.closed.Load() || ctx.Err() != nil {
			return
		}
		c.log.Warn(ctx, "feed disconnected, reconnecting", "scope", scope)
		if onStatus != nil {
			onStatus(livecoll.FeedStale)
		}
	}
}

// dial connects with capped exponential backoff until it succeeds or the
// context is cancelled.
func (c *Client[R]) dial(ctx context.Context, scope string) (*websocket.Conn, error) {
	u := fmt.Sprintf("%s/feed/%s?scope=%s", c.baseURL, c.collection, url.QueryEscape(scope))

	header := http.Header{}
	if c.token != "" {
		header.Set(common.AccessTokenHeaderName, "Bearer "+c.token)
	}

	var conn *websocket.Conn
	backoff := retry.WithCappedDuration(c.maxBackoff, retry.NewExponential(c.baseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		got, _, err := c.dialer.DialContext(ctx, u, header)
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client[R]) readLoop(ctx context.Context, sub *subscription, conn *websocket.Conn, onEvent func(livecoll.Event[R])) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var wire WireEvent
		if err := json.Unmarshal(data, &wire); err != nil {
			c.log.Warn(ctx, "dropping undecodable feed frame", "error", err)
			continue
		}
		ev, err := Decode[R](wire)
		if err != nil {
			c.log.Warn(ctx, "dropping malformed feed event", "seq", wire.Seq, "id", wire.ID, "error", err)
			continue
		}

		// Racing a Close: anything read after the handle closed is dropped.
		if sub.closed.Load() {
			return
		}
		onEvent(ev)
	}
}
