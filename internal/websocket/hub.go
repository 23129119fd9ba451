package websocket

import (
	"encoding/json"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/rs/zerolog/log"
)

type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for every client.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	direct chan directMessage
	done   chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Slow reader.
					close(client.Send)
					delete(h.clients, client)
				}
			}
		case m := <-h.direct:
			if h.clients[m.client] {
				select {
				case m.client.Send <- m.data:
				default:
				}
			}
		case <-h.done:
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			return
		}
	}
}

// Join registers client with the hub. It reports false once the hub has
// stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters client. It does not block once the hub is stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	close(h.done)
}

// Reply sends data to a single client if it is still connected.
func (h *Hub) Reply(client *Client, data []byte) {
	select {
	case h.direct <- directMessage{client: client, data: data}:
	case <-h.done:
	}
}

// BroadcastEvent queues an event for every connected client. It never
// blocks the caller; when the queue is full the event is dropped.
func (h *Hub) BroadcastEvent(event models.Event) {
	// The feed is public.
	event.UserID = nil
	data, err := json.Marshal(NewEventMessage(event))
	if err != nil {
		log.Error().Err(err).Str("event_type", event.Type).Msg("Failed to encode event for broadcast")
		return
	}
	select {
	case h.Broadcast <- data:
	default:
		log.Warn().Str("event_type", event.Type).Msg("Broadcast queue full, dropping event")
	}
}
