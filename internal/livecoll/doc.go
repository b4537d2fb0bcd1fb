// Package livecoll keeps a client-held, ordered collection of records
// consistent with a server-pushed stream of change notifications.
//
// The moving parts:
//
//   - Collection: the ordered, id-unique sequence handed to rendering code.
//   - Event: one created/updated/deleted notification from the change feed.
//   - Reconciler: folds events and bulk-fetch results into a Collection,
//     consulting the tombstone store so locally-suppressed records never
//     reappear.
//   - Synchronizer: owns the collection for one scope at a time, ties the
//     subscription lifecycle to scope changes, and routes optimistic local
//     mutations (Dispatch) ahead of their network round trip.
//
// The same machinery backs every live screen (gigs owned by a user,
// applications for a gig, messages in a conversation); the per-screen record
// types plug in through the Record interface.
package livecoll
