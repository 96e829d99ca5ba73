package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeSpaceSubscribe   = "space.subscribe"
	EventTypeSpaceUnsubscribe = "space.unsubscribe"
	EventTypePing             = "ping"
)

// Event types - Server → Client
const (
	EventTypeAudit = "audit.event"
	EventTypePong  = "pong"
	EventTypeError = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	SpaceID   *uuid.UUID      `json:"space_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type SpacePayload struct {
	SpaceID uuid.UUID `json:"space_id"`
}

// --- Server → Client payloads ---

type AuditPayload struct {
	domain.AuditEvent
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, spaceID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		SpaceID:   spaceID,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
