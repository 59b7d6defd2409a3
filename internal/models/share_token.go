package models

import (
	"time"

	"github.com/google/uuid"
)

// ShareToken is a capability granting read access to a set of the owner's
// reports. The token string is opaque and unguessable; access is further
// restricted to the recipient email and bounded by the expiry instant.
// Revocation is one-way.
type ShareToken struct {
	ID              uuid.UUID `json:"id"`
	Token           string    `json:"token"`
	UserID          uuid.UUID `json:"user_id"`
	SharedWithEmail string    `json:"shared_with_email"`
	ExpiresAt       time.Time `json:"expires_at"`
	IsRevoked       bool      `json:"is_revoked"`
	CreatedAt       time.Time `json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (s *ShareToken) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SharedReport links a share token to one report. Every linked report was
// owned by the token's owner at link-creation time.
type SharedReport struct {
	ID           uuid.UUID `json:"id"`
	ShareTokenID uuid.UUID `json:"share_token_id"`
	ReportID     uuid.UUID `json:"report_id"`
	CreatedAt    time.Time `json:"created_at"`
}
