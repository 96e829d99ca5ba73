// Package audit records access-changing mutations. Recording is one-way:
// services emit and move on, a failed insert is logged, never surfaced.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
	"github.com/rs/zerolog"
)

// Broadcaster pushes an audit event to live listeners (the ws feed).
type Broadcaster interface {
	BroadcastAudit(event *domain.AuditEvent)
}

type Recorder struct {
	repo      repository.AuditRepository
	broadcast Broadcaster
	log       zerolog.Logger
}

// NewRecorder builds a recorder. broadcast may be nil.
func NewRecorder(repo repository.AuditRepository, broadcast Broadcaster, log zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, broadcast: broadcast, log: log}
}

func (r *Recorder) Record(ctx context.Context, actorID uuid.UUID, action, resourceType string, resourceID uuid.UUID, spaceID *uuid.UUID) {
	event := &domain.AuditEvent{
		ID:           uuid.New(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		SpaceID:      spaceID,
		Timestamp:    time.Now(),
	}

	if err := r.repo.Insert(ctx, event); err != nil {
		r.log.Error().Err(err).
			Str("action", action).
			Str("resource_type", resourceType).
			Str("resource_id", resourceID.String()).
			Msg("audit insert failed")
	}

	if r.broadcast != nil {
		r.broadcast.BroadcastAudit(event)
	}
}
