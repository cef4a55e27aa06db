package models

import "time"

// Role controls access to admin-gated façade operations.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile is the per-identity user record. The ID may be supplied by the
// external identity system so that one authenticated identity maps to exactly
// one profile.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileCreate captures the writable fields for a new profile.
type ProfileCreate struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ProfileUpdate carries a partial update to the self-serviceable fields.
// Role changes go through the dedicated role operation.
type ProfileUpdate struct {
	Email     *string `json:"email,omitempty"`
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Identity is the caller identity resolved by the façade from the external
// auth system: who is making the request and with which role.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the identity may perform admin-gated operations.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
