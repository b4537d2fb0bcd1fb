package livecoll

// Kind tags a change notification.
type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

// Event is one change notification from the feed.
//
// Created and Updated carry a full record snapshot, never a partial patch.
// Deleted carries only the id; Scope may be empty because the transport may
// not know the parent of a row that no longer exists.
type Event[R Record] struct {
	Kind   Kind
	ID     string
	Scope  string
	Record R
}
