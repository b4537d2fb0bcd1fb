// Package common contains shared constants and sentinel errors used across
// the livesync client and server layers. Callers match these values with
// errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("conflict")

	// Validation errors.
	ErrorInvalidRecord     = errors.New("invalid record")
	ErrorInvalidCollection = errors.New("invalid collection")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidAPIKey = errors.New("invalid api key")

	// Feed errors.
	ErrSubscriptionClosed = errors.New("subscription closed")
)
