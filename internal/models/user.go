package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user authenticated via OIDC. Users are provisioned
// lazily on first authenticated access and own reports and share tokens.
type User struct {
	ID        uuid.UUID `json:"id"`
	Sub       string    `json:"sub"` // OIDC subject identifier
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the best available human-readable name.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Sub
}

// PublicInfo is the owner info exposed to share recipients.
type PublicInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public returns the subset of user fields safe to show to a share recipient.
func (u *User) Public() PublicInfo {
	return PublicInfo{Name: u.DisplayName(), Email: u.Email}
}
