// api/models/session_models.go
package models

import (
	"time"

	"github.com/Annany2002/nebula-forms/config"
)

// --- Session Request/Response Structs ---

// CreateSessionRequest opens an editor session on a profile
type CreateSessionRequest struct {
	Profile string `json:"profile" binding:"required,max=64"`
}

// CreateSessionResponse carries the bearer token for session-scoped routes
type CreateSessionResponse struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Profile   config.Summary `json:"profile"`
}

// ProfilesResponse lists the configured editor profiles
type ProfilesResponse struct {
	Profiles []config.Summary `json:"profiles"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
