package websocket

import (
	"encoding/json"

	"github.com/isdelr/ecofinds/internal/models"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewEventMessage wraps an event for the live feed.
func NewEventMessage(event models.Event) Message {
	return Message{Action: "event", Payload: event}
}

// NewErrorMessage tells a client its request could not be handled.
func NewErrorMessage(msg string) []byte {
	data, _ := json.Marshal(Message{Action: "error", Payload: msg})
	return data
}
