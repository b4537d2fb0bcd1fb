package hub

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/gigmatch/livesync/internal/logging"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler upgrades feed requests to websocket and streams hub events until
// the subscriber is evicted or the peer goes away.
type Handler struct {
	hub      *Hub
	log      logging.Logger
	upgrader websocket.Upgrader
}

func NewHandler(h *Hub, log logging.Logger) *Handler {
	return &Handler{hub: h, log: log.With("module", "feed_handler")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	scope := r.URL.Query().Get("scope")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(collection, scope)
	defer sub.Close()

	h.log.Info(r.Context(), "feed subscriber connected", "collection", collection, "scope", scope)

	// The read side only watches for the peer closing the connection.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				// evicted; closing makes the client reconnect and reseed
				deadline := time.Now().Add(writeTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "buffer overflow"), deadline)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
