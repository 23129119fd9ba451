package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultUsername is used when a user registers without a display name.
const DefaultUsername = "New User"

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUser builds a user with a fresh id. An empty username falls back to
// DefaultUsername.
func NewUser(email, username, passwordHash string, now time.Time) User {
	if username == "" {
		username = DefaultUsername
	}
	return User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
	}
}
