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

type PageRepo struct {
	pool *pgxpool.Pool
}

func NewPageRepo(pool *pgxpool.Pool) *PageRepo {
	return &PageRepo{pool: pool}
}

const pageColumns = `id, area_id, owner_id, title, visibility, created_at, updated_at`

func (r *PageRepo) Create(ctx context.Context, page *domain.Page) error {
	query := `
		INSERT INTO pages (id, area_id, owner_id, title, visibility, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		page.ID, page.AreaID, page.OwnerID, page.Title, page.Visibility, page.CreatedAt, page.UpdatedAt,
	)
	return err
}

func (r *PageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = $1 AND deleted_at IS NULL`

	var p domain.Page
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.AreaID, &p.OwnerID, &p.Title, &p.Visibility, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}

func (r *PageRepo) Update(ctx context.Context, page *domain.Page) error {
	query := `
		UPDATE pages SET title = $1, visibility = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL`
	_, err := r.pool.Exec(ctx, query, page.Title, page.Visibility, page.UpdatedAt, page.ID)
	return err
}

func (r *PageRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Page, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + pageColumns + `
		FROM pages
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.AreaID, &p.OwnerID, &p.Title, &p.Visibility,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (r *PageRepo) GetUserShare(ctx context.Context, pageID, userID uuid.UUID) (*domain.PageUserShare, error) {
	query := `
		SELECT page_id, user_id, permission, shared_by, shared_at
		FROM page_user_shares WHERE page_id = $1 AND user_id = $2`

	var s domain.PageUserShare
	err := r.pool.QueryRow(ctx, query, pageID, userID).Scan(
		&s.PageID, &s.UserID, &s.Permission, &s.SharedBy, &s.SharedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &s, err
}

func (r *PageRepo) GroupShares(ctx context.Context, pageID uuid.UUID, groupIDs []uuid.UUID) ([]domain.PageGroupShare, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT page_id, group_id, permission, shared_by, shared_at
		FROM page_group_shares WHERE page_id = $1 AND group_id = ANY($2)`

	rows, err := r.pool.Query(ctx, query, pageID, groupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGroupShares(rows)
}

func (r *PageRepo) AddUserShare(ctx context.Context, share *domain.PageUserShare) error {
	query := `
		INSERT INTO page_user_shares (page_id, user_id, permission, shared_by, shared_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (page_id, user_id) DO UPDATE SET permission = EXCLUDED.permission`
	_, err := r.pool.Exec(ctx, query, share.PageID, share.UserID, share.Permission, share.SharedBy, share.SharedAt)
	return err
}

func (r *PageRepo) RemoveUserShare(ctx context.Context, pageID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM page_user_shares WHERE page_id = $1 AND user_id = $2`, pageID, userID)
	return err
}

func (r *PageRepo) AddGroupShare(ctx context.Context, share *domain.PageGroupShare) error {
	query := `
		INSERT INTO page_group_shares (page_id, group_id, permission, shared_by, shared_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (page_id, group_id) DO UPDATE SET permission = EXCLUDED.permission`
	_, err := r.pool.Exec(ctx, query, share.PageID, share.GroupID, share.Permission, share.SharedBy, share.SharedAt)
	return err
}

func (r *PageRepo) RemoveGroupShare(ctx context.Context, pageID, groupID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM page_group_shares WHERE page_id = $1 AND group_id = $2`, pageID, groupID)
	return err
}

func (r *PageRepo) ListUserShares(ctx context.Context, pageID uuid.UUID) ([]domain.PageUserShare, error) {
	query := `
		SELECT page_id, user_id, permission, shared_by, shared_at
		FROM page_user_shares WHERE page_id = $1 ORDER BY shared_at`

	rows, err := r.pool.Query(ctx, query, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []domain.PageUserShare
	for rows.Next() {
		var s domain.PageUserShare
		if err := rows.Scan(&s.PageID, &s.UserID, &s.Permission, &s.SharedBy, &s.SharedAt); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

func (r *PageRepo) ListGroupShares(ctx context.Context, pageID uuid.UUID) ([]domain.PageGroupShare, error) {
	query := `
		SELECT page_id, group_id, permission, shared_by, shared_at
		FROM page_group_shares WHERE page_id = $1 ORDER BY shared_at`

	rows, err := r.pool.Query(ctx, query, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGroupShares(rows)
}

// Candidate queries. Explicit shares only count at private visibility; the
// SQL mirrors the resolver's switch.

func (r *PageRepo) OwnedIDs(ctx context.Context, userID uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	query := `
		SELECT p.id
		FROM pages p
		JOIN areas a ON a.id = p.area_id
		WHERE p.owner_id = $1 AND p.deleted_at IS NULL
		  AND ($2::uuid IS NULL OR p.area_id = $2)
		  AND ($3::uuid IS NULL OR a.space_id = $3)`
	return scanIDs(ctx, r.pool, query, userID, scope.AreaID, scope.SpaceID)
}

func (r *PageRepo) UserSharedIDs(ctx context.Context, userID uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	query := `
		SELECT p.id
		FROM pages p
		JOIN page_user_shares pus ON pus.page_id = p.id
		JOIN areas a ON a.id = p.area_id
		WHERE pus.user_id = $1 AND p.visibility = 'private' AND p.deleted_at IS NULL
		  AND ($2::uuid IS NULL OR p.area_id = $2)
		  AND ($3::uuid IS NULL OR a.space_id = $3)`
	return scanIDs(ctx, r.pool, query, userID, scope.AreaID, scope.SpaceID)
}

func (r *PageRepo) GroupSharedIDs(ctx context.Context, groupIDs []uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT p.id
		FROM pages p
		JOIN page_group_shares pgs ON pgs.page_id = p.id
		JOIN areas a ON a.id = p.area_id
		WHERE pgs.group_id = ANY($1) AND p.visibility = 'private' AND p.deleted_at IS NULL
		  AND ($2::uuid IS NULL OR p.area_id = $2)
		  AND ($3::uuid IS NULL OR a.space_id = $3)`
	return scanIDs(ctx, r.pool, query, groupIDs, scope.AreaID, scope.SpaceID)
}

func (r *PageRepo) AreaVisibleIDs(ctx context.Context, areaIDs []uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	if len(areaIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT p.id
		FROM pages p
		JOIN areas a ON a.id = p.area_id
		WHERE p.visibility = 'area' AND p.area_id = ANY($1) AND p.deleted_at IS NULL
		  AND ($2::uuid IS NULL OR p.area_id = $2)
		  AND ($3::uuid IS NULL OR a.space_id = $3)`
	return scanIDs(ctx, r.pool, query, areaIDs, scope.AreaID, scope.SpaceID)
}

func (r *PageRepo) SpaceVisibleIDs(ctx context.Context, spaceIDs []uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	if len(spaceIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT p.id
		FROM pages p
		JOIN areas a ON a.id = p.area_id AND a.deleted_at IS NULL
		WHERE p.visibility = 'space' AND a.space_id = ANY($1) AND p.deleted_at IS NULL
		  AND ($2::uuid IS NULL OR p.area_id = $2)
		  AND ($3::uuid IS NULL OR a.space_id = $3)`
	return scanIDs(ctx, r.pool, query, spaceIDs, scope.AreaID, scope.SpaceID)
}

func collectGroupShares(rows pgx.Rows) ([]domain.PageGroupShare, error) {
	var shares []domain.PageGroupShare
	for rows.Next() {
		var s domain.PageGroupShare
		if err := rows.Scan(&s.PageID, &s.GroupID, &s.Permission, &s.SharedBy, &s.SharedAt); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}
