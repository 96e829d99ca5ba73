package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/pkg/logger"
)

// AuthorizeFunc reports whether a user may watch a space's audit feed. The
// hub calls it on every subscribe, never on broadcast: a revoked member keeps
// an existing subscription until they reconnect.
type AuthorizeFunc func(ctx context.Context, userID, spaceID uuid.UUID) (bool, error)

// Hub manages all active WebSocket clients and routes audit events to
// space subscribers.
type Hub struct {
	authorize AuthorizeFunc

	// clients maps userID → client.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
}

type broadcastMsg struct {
	spaceID *uuid.UUID
	actorID uuid.UUID
	data    []byte
}

func NewHub(authorize AuthorizeFunc) *Hub {
	return &Hub{
		authorize:  authorize,
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.userID] = client
			logger.Log.Debug().Str("user_id", client.userID.String()).Int("total", len(h.clients)).Msg("ws hub: client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
				close(client.done)
				logger.Log.Debug().Str("user_id", client.userID.String()).Int("total", len(h.clients)).Msg("ws hub: client disconnected")
			}

		case msg := <-h.broadcast:
			for _, client := range h.clients {
				if !h.shouldReceive(client, msg) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					delete(h.clients, client.userID)
					close(client.send)
					close(client.done)
				}
			}
		}
	}
}

// shouldReceive applies the feed's delivery rule: space-scoped events go to
// that space's subscribers, unscoped events only back to the actor.
func (h *Hub) shouldReceive(client *Client, msg *broadcastMsg) bool {
	if msg.spaceID == nil {
		return client.userID == msg.actorID
	}
	return client.IsSubscribed(*msg.spaceID)
}

// BroadcastEvent fans an audit event out to the feed.
func (h *Hub) BroadcastEvent(spaceID *uuid.UUID, actorID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error().Err(err).Msg("ws hub: marshal error")
		return
	}
	h.broadcast <- &broadcastMsg{
		spaceID: spaceID,
		actorID: actorID,
		data:    data,
	}
}
