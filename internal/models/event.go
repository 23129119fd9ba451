package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the application.
const (
	EventUserRegister   = "user.register"
	EventUserUpdate     = "user.update"
	EventListingCreate  = "listing.create"
	EventListingUpdate  = "listing.update"
	EventListingDelete  = "listing.delete"
	EventCartCheckout   = "cart.checkout"
	EventPasswordChange = "user.password"
)

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "listing.create", "cart.checkout"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	UserID    *string   `json:"userId,omitempty"` // Nullable for system-wide events
	Subject   string    `json:"subject,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEvent builds an event with a fresh id. subject is the id of the entity
// the event is about and may be empty.
func NewEvent(eventType, level, subject, message string, userID *string, now time.Time) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		Subject:   subject,
		CreatedAt: now.UTC(),
	}
}
