package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	ws "github.com/isdelr/ecofinds/internal/websocket"
	"github.com/rs/zerolog/log"
)

// FeedHandler upgrades connections to the live listing feed.
type FeedHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewFeedHandler creates a new FeedHandler. Cross-origin upgrades are
// refused by the upgrader's default origin check.
func NewFeedHandler(hub *ws.Hub) *FeedHandler {
	return &FeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Serve handles the WebSocket connection request.
func (h *FeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn)
	if !h.hub.Join(client) {
		log.Debug().Msg("Feed is shutting down, closing websocket connection")
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(h.handleIncomingWSMessage)
}

// handleIncomingWSMessage answers pings; the feed is otherwise one-way.
func (h *FeedHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		h.reply(client, ws.NewErrorMessage("invalid message"))
		return
	}

	switch msg.Action {
	case "ping":
		data, _ := json.Marshal(ws.Message{Action: "pong"})
		h.reply(client, data)
	default:
		log.Debug().Str("action", msg.Action).Msg("Unknown websocket action received")
		h.reply(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
	}
}

func (h *FeedHandler) reply(client *ws.Client, data []byte) {
	h.hub.Reply(client, data)
}
