package ws

import (
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/pkg/logger"
)

// AuditNotifier implements audit.Broadcaster using the WebSocket Hub.
type AuditNotifier struct {
	hub *Hub
}

func NewAuditNotifier(hub *Hub) *AuditNotifier {
	return &AuditNotifier{hub: hub}
}

func (n *AuditNotifier) BroadcastAudit(event *domain.AuditEvent) {
	evt, err := NewEvent(EventTypeAudit, event.SpaceID, AuditPayload{AuditEvent: *event})
	if err != nil {
		logger.Log.Error().Err(err).Msg("ws notifier: marshal error")
		return
	}
	n.hub.BroadcastEvent(event.SpaceID, event.ActorID, evt)
}
