package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user authenticated via OIDC.
type User struct {
	ID          uuid.UUID  `json:"id"`
	Sub         string     `json:"sub"` // OIDC subject identifier
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Picture     string     `json:"picture"`
	Role        string     `json:"role"` // user, admin
	Suspended   bool       `json:"suspended"`
	SuspendedAt *time.Time `json:"suspended_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsAdmin returns true if the user is an admin.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin && !u.Suspended
}

// DisplayName returns the name shown next to content the user authored.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
