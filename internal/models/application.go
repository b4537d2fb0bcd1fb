package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus classifies a provider's application to a gig.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a provider's application to a gig. Its live-collection
// scope is the gig.
//
// Provider is client-side enrichment: the server row carries only
// ProviderID, and the profile is joined in after the bare row arrives.
// Merge keeps it alive across raw-row updates.
type Application struct {
	ID         string            `json:"id"`
	GigID      string            `json:"gig_id"`
	ProviderID string            `json:"provider_id"`
	Status     ApplicationStatus `json:"status"`
	Note       string            `json:"note,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`

	Provider *Profile `json:"provider,omitempty"`
}

// NewApplication returns a pending application with a fresh id.
func NewApplication(gigID, providerID, note string) *Application {
	return &Application{
		ID:         uuid.NewString(),
		GigID:      gigID,
		ProviderID: providerID,
		Status:     ApplicationPending,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	}
}

func (a *Application) RecordID() string       { return a.ID }
func (a *Application) ScopeID() string        { return a.GigID }
func (a *Application) CreatedTime() time.Time { return a.CreatedAt }

// RecordStatus exposes the status column for the mutation envelope.
func (a *Application) RecordStatus() string { return string(a.Status) }

// WithStatus returns a copy of a with the given status.
func (a *Application) WithStatus(status ApplicationStatus) *Application {
	out := *a
	out.Status = status
	return &out
}

// Merge implements livecoll.Merger: when an update replaces this snapshot,
// the incoming raw row wins field-by-field, but enrichment it does not carry
// (the joined Provider profile) is preserved.
func (a *Application) Merge(incoming *Application) *Application {
	out := *incoming
	if out.Provider == nil {
		out.Provider = a.Provider
	}
	return &out
}
