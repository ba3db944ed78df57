package domain

import (
	"time"
)

// User represents a dashboard account. One user owns exactly one business
// profile; the profile is the tenant boundary for all dashboard data.
type User struct {
	ID             string     `json:"id"` // UUID
	Email          string     `json:"email"`
	Name           string     `json:"name,omitempty"`
	HashedPassword string     `json:"-"` // empty for OAuth-only accounts
	GoogleID       string     `json:"-"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RefreshToken stores the server-side record backing a refresh JWT. The row
// id matches the token's "rti" claim; presence plus expiry makes it valid.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
