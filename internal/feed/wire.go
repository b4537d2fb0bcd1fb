// Package feed implements the change-feed transport: the wire format shared
// with the backend hub, and the websocket subscriber used by the client.
package feed

import (
	"encoding/json"

	"github.com/gigmatch/livesync/internal/livecoll"
)

// WireEvent is one change notification as carried over the websocket.
//
// Seq is a ULID assigned by the backend at publish time; ULIDs from the same
// source are time-ordered, which makes gaps and regressions visible in logs.
// Deleted events carry no record payload and may carry no scope: the backend
// cannot always tell the parent of a row that no longer exists.
type WireEvent struct {
	Seq        string          `json:"seq"`
	Collection string          `json:"collection"`
	Kind       livecoll.Kind   `json:"kind"`
	ID         string          `json:"id"`
	Scope      string          `json:"scope,omitempty"`
	Record     json.RawMessage `json:"record,omitempty"`
}

// Decode converts a wire event into a typed collection event.
func Decode[R livecoll.Record](ev WireEvent) (livecoll.Event[R], error) {
	out := livecoll.Event[R]{Kind: ev.Kind, ID: ev.ID, Scope: ev.Scope}
	if ev.Kind == livecoll.Deleted || len(ev.Record) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(ev.Record, &out.Record); err != nil {
		return livecoll.Event[R]{}, err
	}
	return out, nil
}
