package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	Record(ctx context.Context, eventType, level, subject, message string, userID *string) error
	GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Broadcaster pushes events to live listeners.
type Broadcaster interface {
	BroadcastEvent(event models.Event)
}

// EventService provides business logic for event management.
type EventService struct {
	db  *sql.DB
	hub Broadcaster
	now func() time.Time
}

// NewEventService creates a new EventService. hub may be nil.
func NewEventService(db *sql.DB, hub Broadcaster) *EventService {
	return &EventService{db: db, hub: hub, now: time.Now}
}

// Record logs a new event to the database. Listing events are also
// broadcast to live listeners.
func (s *EventService) Record(ctx context.Context, eventType, level, subject, message string, userID *string) error {
	event := models.NewEvent(eventType, level, subject, message, userID, s.now())

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, user_id, subject, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.UserID, event.Subject, unixNano(event.CreatedAt))
	if err != nil {
		return err
	}

	if s.hub != nil && strings.HasPrefix(event.Type, "listing.") {
		s.hub.BroadcastEvent(event)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events for a user.
func (s *EventService) GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, level, message, user_id, subject, created_at
		FROM events WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.Subject, &createdAt); err != nil {
			return nil, err
		}
		event.CreatedAt = fromUnixNano(createdAt)
		events = append(events, event)
	}
	return events, rows.Err()
}

// PruneBefore deletes events older than cutoff and reports how many went.
func (s *EventService) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", unixNano(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// recordEvent writes an event and only logs failures; the activity log is
// never allowed to fail the operation it describes.
func recordEvent(ctx context.Context, events EventServiceProvider, eventType, subject, message, userID string) {
	if events == nil {
		return
	}
	uid := userID
	if err := events.Record(ctx, eventType, "info", subject, message, &uid); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Str("user_id", userID).Msg("Failed to record event")
	}
}
