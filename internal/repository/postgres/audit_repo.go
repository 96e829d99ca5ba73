package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbrekalo/trellis/internal/domain"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Insert(ctx context.Context, event *domain.AuditEvent) error {
	query := `
		INSERT INTO audit_events (id, actor_id, action, resource_type, resource_id, space_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		event.ID, event.ActorID, event.Action, event.ResourceType, event.ResourceID, event.SpaceID, event.Timestamp,
	)
	return err
}

func (r *AuditRepo) ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	query := `
		SELECT id, actor_id, action, resource_type, resource_id, space_id, created_at
		FROM audit_events
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, resourceType, resourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.ResourceType, &e.ResourceID, &e.SpaceID, &e.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
