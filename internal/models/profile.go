package models

import "time"

// Profile is a provider's public profile. It is fetched separately from
// application rows and attached client-side as enrichment.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Service     string    `json:"service,omitempty"`
	Rating      float64   `json:"rating,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Profile) RecordID() string       { return p.ID }
func (p *Profile) ScopeID() string        { return "" }
func (p *Profile) CreatedTime() time.Time { return p.CreatedAt }
