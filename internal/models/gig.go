// Package models defines the marketplace record types carried by live
// collections. Records are immutable value snapshots: a change replaces the
// record wholesale, never mutates it in place.
package models

import (
	"time"

	"github.com/google/uuid"
)

// GigStatus classifies the lifecycle of a gig listing.
type GigStatus string

const (
	GigDraft     GigStatus = "draft"
	GigPublished GigStatus = "published"
	GigClosed    GigStatus = "closed"
)

// Gig is an event listing posted by a contractor. Its live-collection scope
// is the owning contractor, so "my gigs" screens subscribe by OwnerID.
type Gig struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Venue     string    `json:"venue,omitempty"`
	EventDate time.Time `json:"event_date"`
	Status    GigStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGig returns a draft gig with a fresh id, owned by ownerID.
func NewGig(ownerID, title, venue string, eventDate time.Time) *Gig {
	now := time.Now().UTC()
	return &Gig{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Venue:     venue,
		EventDate: eventDate,
		Status:    GigDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (g *Gig) RecordID() string       { return g.ID }
func (g *Gig) ScopeID() string        { return g.OwnerID }
func (g *Gig) CreatedTime() time.Time { return g.CreatedAt }

// RecordStatus exposes the status column for the mutation envelope.
func (g *Gig) RecordStatus() string { return string(g.Status) }
