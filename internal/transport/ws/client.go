package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/pkg/logger"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	// subscribedSpaces tracks which space feeds this client listens to.
	subscribedSpaces map[uuid.UUID]struct{}
	mu               sync.RWMutex

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:              hub,
		conn:             conn,
		userID:           userID,
		subscribedSpaces: make(map[uuid.UUID]struct{}),
		send:             make(chan []byte, sendBufSize),
		done:             make(chan struct{}),
	}
}

// IsSubscribed checks if this client is subscribed to a space feed.
func (c *Client) IsSubscribed(spaceID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscribedSpaces[spaceID]
	return ok
}

// Subscribe adds a space subscription.
func (c *Client) Subscribe(spaceID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribedSpaces[spaceID] = struct{}{}
}

// Unsubscribe removes a space subscription.
func (c *Client) Unsubscribe(spaceID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribedSpaces, spaceID)
}

// ReadPump reads messages from the WebSocket and routes them to the Hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				logger.Log.Debug().Str("user_id", c.userID.String()).Msg("ws: client disconnected")
			} else {
				logger.Log.Warn().Err(err).Str("user_id", c.userID.String()).Msg("ws: read error")
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes messages from the send channel to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				logger.Log.Warn().Err(err).Str("user_id", c.userID.String()).Msg("ws: write error")
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes an incoming client event. Subscribing to a space the
// caller cannot resolve is answered exactly like an unknown space.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeSpaceSubscribe:
		var p SpacePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid space.subscribe payload")
			return
		}

		granted, err := c.hub.authorize(context.Background(), c.userID, p.SpaceID)
		if err != nil {
			logger.Log.Error().Err(err).Str("user_id", c.userID.String()).Msg("ws: subscribe authorization failed")
			c.sendError("INTERNAL", "subscription failed")
			return
		}
		if !granted {
			c.sendError("NOT_FOUND", "space not found")
			return
		}
		c.Subscribe(p.SpaceID)

	case EventTypeSpaceUnsubscribe:
		var p SpacePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid space.unsubscribe payload")
			return
		}
		c.Unsubscribe(p.SpaceID)

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong})
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
