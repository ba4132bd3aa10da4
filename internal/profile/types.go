package profile

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("profile: not found")
	ErrInvalidInput = errors.New("profile: invalid input")
)

// Profile is the application-side record of a member, including the stored
// role consulted by the authorization resolver.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Warning is a moderation notice attached to a member.
type Warning struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IssuedBy  string    `json:"issued_by"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
