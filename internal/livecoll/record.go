package livecoll

import (
	"reflect"
	"time"
)

// Record is a domain entity tracked by a live collection. Records are
// immutable value snapshots: any change replaces the record wholesale.
type Record interface {
	// RecordID returns the opaque, globally unique record identifier.
	RecordID() string

	// ScopeID returns the parent scope (gig id, conversation id, owner id)
	// the record belongs to.
	ScopeID() string

	// CreatedTime orders the collection (newest first).
	CreatedTime() time.Time
}

// Merger is implemented by record types that carry client-side enrichment
// (fields joined in after the bare server row arrived). Merge returns the
// snapshot to keep when incoming replaces the receiver; implementations copy
// enrichment the incoming payload does not carry, so an update never erases
// join work already done.
type Merger[R any] interface {
	Merge(incoming R) R
}

// isNilRecord guards against typed-nil records arriving through the generic
// interfaces; calling methods on them would panic inside the reconciler.
func isNilRecord(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}
