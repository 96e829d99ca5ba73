package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbrekalo/trellis/internal/repository"
)

// CascadeStore runs container-deletion cleanups in one transaction. Every op
// executes on the same pgx.Tx; any error rolls the whole cascade back.
type CascadeStore struct {
	pool *pgxpool.Pool
}

func NewCascadeStore(pool *pgxpool.Pool) *CascadeStore {
	return &CascadeStore{pool: pool}
}

func (s *CascadeStore) InTx(ctx context.Context, fn func(ops repository.CascadeOps) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&cascadeOps{tx: tx})
	})
}

type cascadeOps struct {
	tx pgx.Tx
}

func (o *cascadeOps) exec(ctx context.Context, query string, args ...any) (int, error) {
	tag, err := o.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (o *cascadeOps) AreaIDsBySpace(ctx context.Context, spaceID uuid.UUID) ([]uuid.UUID, error) {
	return scanIDs(ctx, o.tx, `SELECT id FROM areas WHERE space_id = $1 AND deleted_at IS NULL`, spaceID)
}

func (o *cascadeOps) SoftDeleteAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error) {
	if len(areaIDs) == 0 {
		return 0, nil
	}
	return o.exec(ctx, `UPDATE areas SET deleted_at = now() WHERE id = ANY($1) AND deleted_at IS NULL`, areaIDs)
}

func (o *cascadeOps) SoftDeleteTasksBySpace(ctx context.Context, spaceID uuid.UUID) (int, error) {
	return o.exec(ctx, `UPDATE tasks SET deleted_at = now() WHERE space_id = $1 AND deleted_at IS NULL`, spaceID)
}

func (o *cascadeOps) SoftDeleteConversationsBySpace(ctx context.Context, spaceID uuid.UUID) (int, error) {
	return o.exec(ctx, `UPDATE conversations SET deleted_at = now() WHERE space_id = $1 AND deleted_at IS NULL`, spaceID)
}

func (o *cascadeOps) SoftDeleteDocumentsBySpace(ctx context.Context, spaceID uuid.UUID) (int, error) {
	return o.exec(ctx, `UPDATE documents SET deleted_at = now() WHERE space_id = $1 AND deleted_at IS NULL`, spaceID)
}

func (o *cascadeOps) SoftDeletePagesByAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error) {
	if len(areaIDs) == 0 {
		return 0, nil
	}
	return o.exec(ctx, `UPDATE pages SET deleted_at = now() WHERE area_id = ANY($1) AND deleted_at IS NULL`, areaIDs)
}

func (o *cascadeOps) DeleteSpaceMemberships(ctx context.Context, spaceID uuid.UUID) (int, error) {
	return o.exec(ctx, `DELETE FROM space_memberships WHERE space_id = $1`, spaceID)
}

func (o *cascadeOps) DeleteAreaMembershipsByAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error) {
	if len(areaIDs) == 0 {
		return 0, nil
	}
	return o.exec(ctx, `DELETE FROM area_memberships WHERE area_id = ANY($1)`, areaIDs)
}

func (o *cascadeOps) DeleteDocumentSharesBySpace(ctx context.Context, spaceID uuid.UUID) (int, error) {
	return o.exec(ctx, `
		DELETE FROM document_area_shares
		WHERE document_id IN (SELECT id FROM documents WHERE space_id = $1)`, spaceID)
}

func (o *cascadeOps) DeletePageSharesByAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error) {
	if len(areaIDs) == 0 {
		return 0, nil
	}
	userShares, err := o.exec(ctx, `
		DELETE FROM page_user_shares
		WHERE page_id IN (SELECT id FROM pages WHERE area_id = ANY($1))`, areaIDs)
	if err != nil {
		return 0, err
	}
	groupShares, err := o.exec(ctx, `
		DELETE FROM page_group_shares
		WHERE page_id IN (SELECT id FROM pages WHERE area_id = ANY($1))`, areaIDs)
	if err != nil {
		return 0, err
	}
	return userShares + groupShares, nil
}

func (o *cascadeOps) SoftDeleteSpace(ctx context.Context, spaceID uuid.UUID) error {
	_, err := o.exec(ctx, `UPDATE spaces SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, spaceID)
	return err
}

func (o *cascadeOps) ClearTaskArea(ctx context.Context, areaID uuid.UUID) (int, error) {
	return o.exec(ctx, `UPDATE tasks SET area_id = NULL WHERE area_id = $1 AND deleted_at IS NULL`, areaID)
}

func (o *cascadeOps) ClearConversationArea(ctx context.Context, areaID uuid.UUID) (int, error) {
	return o.exec(ctx, `UPDATE conversations SET area_id = NULL WHERE area_id = $1 AND deleted_at IS NULL`, areaID)
}

func (o *cascadeOps) DeleteDocumentSharesByArea(ctx context.Context, areaID uuid.UUID) (int, error) {
	return o.exec(ctx, `DELETE FROM document_area_shares WHERE area_id = $1`, areaID)
}

func (o *cascadeOps) SoftDeleteArea(ctx context.Context, areaID uuid.UUID) error {
	_, err := o.exec(ctx, `UPDATE areas SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, areaID)
	return err
}

func (o *cascadeOps) DeleteDocumentShares(ctx context.Context, documentID uuid.UUID) (int, error) {
	return o.exec(ctx, `DELETE FROM document_area_shares WHERE document_id = $1`, documentID)
}

func (o *cascadeOps) DeleteTaskDocumentLinks(ctx context.Context, documentID uuid.UUID) (int, error) {
	return o.exec(ctx, `DELETE FROM task_document_links WHERE document_id = $1`, documentID)
}

func (o *cascadeOps) SoftDeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := o.exec(ctx, `UPDATE documents SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, documentID)
	return err
}

func (o *cascadeOps) DeletePageShares(ctx context.Context, pageID uuid.UUID) (int, error) {
	userShares, err := o.exec(ctx, `DELETE FROM page_user_shares WHERE page_id = $1`, pageID)
	if err != nil {
		return 0, err
	}
	groupShares, err := o.exec(ctx, `DELETE FROM page_group_shares WHERE page_id = $1`, pageID)
	if err != nil {
		return 0, err
	}
	return userShares + groupShares, nil
}

func (o *cascadeOps) DeletePageConversationLinks(ctx context.Context, pageID uuid.UUID) (int, error) {
	return o.exec(ctx, `DELETE FROM page_conversation_links WHERE page_id = $1`, pageID)
}

func (o *cascadeOps) SoftDeletePage(ctx context.Context, pageID uuid.UUID) error {
	_, err := o.exec(ctx, `UPDATE pages SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, pageID)
	return err
}
