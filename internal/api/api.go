// Package api defines the JSON shapes shared by the backend HTTP API and the
// client data-access layer.
package api

import (
	"encoding/json"
	"time"
)

// Row is the generic record envelope stored and served by the backend. The
// backend is schema-agnostic: Record holds the full domain payload, while the
// id/scope/status columns are lifted out for filtering and feed routing.
type Row struct {
	ID        string          `json:"id"`
	Scope     string          `json:"scope_id"`
	Status    string          `json:"status,omitempty"`
	Record    json.RawMessage `json:"record"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TokenRequest exchanges an API key for an access token.
type TokenRequest struct {
	APIKey string `json:"api_key"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ErrorResponse is the JSON error envelope returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
