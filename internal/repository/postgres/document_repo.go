package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
)

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

const documentColumns = `id, space_id, owner_id, title, visibility, created_at, updated_at`

func (r *DocumentRepo) Create(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, space_id, owner_id, title, visibility, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		doc.ID, doc.SpaceID, doc.OwnerID, doc.Title, doc.Visibility, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND deleted_at IS NULL`

	var d domain.Document
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.SpaceID, &d.OwnerID, &d.Title, &d.Visibility, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &d, err
}

func (r *DocumentRepo) Update(ctx context.Context, doc *domain.Document) error {
	query := `
		UPDATE documents SET title = $1, visibility = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL`
	_, err := r.pool.Exec(ctx, query, doc.Title, doc.Visibility, doc.UpdatedAt, doc.ID)
	return err
}

func (r *DocumentRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.SpaceID, &d.OwnerID, &d.Title, &d.Visibility,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) AddAreaShare(ctx context.Context, share *domain.DocumentAreaShare) error {
	query := `
		INSERT INTO document_area_shares (document_id, area_id, shared_by, shared_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id, area_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, share.DocumentID, share.AreaID, share.SharedBy, share.SharedAt)
	return err
}

func (r *DocumentRepo) RemoveAreaShare(ctx context.Context, documentID, areaID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM document_area_shares WHERE document_id = $1 AND area_id = $2`, documentID, areaID)
	return err
}

func (r *DocumentRepo) SharedAreaIDs(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT das.area_id
		FROM document_area_shares das
		JOIN areas a ON a.id = das.area_id AND a.deleted_at IS NULL
		WHERE das.document_id = $1`
	return scanIDs(ctx, r.pool, query, documentID)
}

func (r *DocumentRepo) ListAreaShares(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentAreaShare, error) {
	query := `
		SELECT document_id, area_id, shared_by, shared_at
		FROM document_area_shares WHERE document_id = $1 ORDER BY shared_at`

	rows, err := r.pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []domain.DocumentAreaShare
	for rows.Next() {
		var s domain.DocumentAreaShare
		if err := rows.Scan(&s.DocumentID, &s.AreaID, &s.SharedBy, &s.SharedAt); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

func (r *DocumentRepo) OwnedIDs(ctx context.Context, userID uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	query := `
		SELECT d.id FROM documents d
		WHERE d.owner_id = $1 AND d.deleted_at IS NULL
		  AND ($2::uuid IS NULL OR d.space_id = $2)
		  AND ($3::uuid IS NULL OR EXISTS (
		      SELECT 1 FROM document_area_shares das WHERE das.document_id = d.id AND das.area_id = $3))`
	return scanIDs(ctx, r.pool, query, userID, scope.SpaceID, scope.AreaID)
}

func (r *DocumentRepo) SpaceVisibleIDs(ctx context.Context, spaceIDs []uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	if len(spaceIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT d.id FROM documents d
		WHERE d.visibility = 'space' AND d.space_id = ANY($1) AND d.deleted_at IS NULL
		  AND ($2::uuid IS NULL OR d.space_id = $2)
		  AND ($3::uuid IS NULL OR EXISTS (
		      SELECT 1 FROM document_area_shares das WHERE das.document_id = d.id AND das.area_id = $3))`
	return scanIDs(ctx, r.pool, query, spaceIDs, scope.SpaceID, scope.AreaID)
}

func (r *DocumentRepo) AreaSharedIDs(ctx context.Context, areaIDs []uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	if len(areaIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT d.id
		FROM documents d
		JOIN document_area_shares das ON das.document_id = d.id
		WHERE d.visibility = 'areas' AND das.area_id = ANY($1) AND d.deleted_at IS NULL
		  AND ($2::uuid IS NULL OR d.space_id = $2)
		  AND ($3::uuid IS NULL OR das.area_id = $3)`
	return scanIDs(ctx, r.pool, query, areaIDs, scope.SpaceID, scope.AreaID)
}
