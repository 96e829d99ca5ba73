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

type AreaRepo struct {
	pool *pgxpool.Pool
}

func NewAreaRepo(pool *pgxpool.Pool) *AreaRepo {
	return &AreaRepo{pool: pool}
}

const areaColumns = `id, space_id, name, description, is_general, is_restricted, created_by, created_at`

func (r *AreaRepo) Create(ctx context.Context, area *domain.Area) error {
	query := `
		INSERT INTO areas (id, space_id, name, description, is_general, is_restricted, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		area.ID, area.SpaceID, area.Name, area.Description,
		area.IsGeneral, area.IsRestricted, area.CreatedBy, area.CreatedAt,
	)
	return err
}

func (r *AreaRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE id = $1 AND deleted_at IS NULL`
	return r.scanArea(ctx, query, id)
}

func (r *AreaRepo) GetGeneral(ctx context.Context, spaceID uuid.UUID) (*domain.Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE space_id = $1 AND is_general AND deleted_at IS NULL`
	return r.scanArea(ctx, query, spaceID)
}

func (r *AreaRepo) Update(ctx context.Context, area *domain.Area) error {
	query := `
		UPDATE areas SET name = $1, description = $2, is_restricted = $3
		WHERE id = $4 AND deleted_at IS NULL`
	_, err := r.pool.Exec(ctx, query, area.Name, area.Description, area.IsRestricted, area.ID)
	return err
}

func (r *AreaRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Area, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + areaColumns + `
		FROM areas
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY is_general DESC, created_at`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []domain.Area
	for rows.Next() {
		var a domain.Area
		if err := rows.Scan(&a.ID, &a.SpaceID, &a.Name, &a.Description,
			&a.IsGeneral, &a.IsRestricted, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func (r *AreaRepo) GetUserMembership(ctx context.Context, areaID, userID uuid.UUID) (*domain.AreaMembership, error) {
	query := `
		SELECT id, area_id, user_id, group_id, role, joined_at
		FROM area_memberships WHERE area_id = $1 AND user_id = $2`
	return r.scanAreaMembership(ctx, query, areaID, userID)
}

func (r *AreaRepo) GetGroupMembership(ctx context.Context, areaID, groupID uuid.UUID) (*domain.AreaMembership, error) {
	query := `
		SELECT id, area_id, user_id, group_id, role, joined_at
		FROM area_memberships WHERE area_id = $1 AND group_id = $2`
	return r.scanAreaMembership(ctx, query, areaID, groupID)
}

func (r *AreaRepo) GroupMemberships(ctx context.Context, areaID uuid.UUID, groupIDs []uuid.UUID) ([]domain.AreaMembership, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, area_id, user_id, group_id, role, joined_at
		FROM area_memberships WHERE area_id = $1 AND group_id = ANY($2)`

	rows, err := r.pool.Query(ctx, query, areaID, groupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []domain.AreaMembership
	for rows.Next() {
		var m domain.AreaMembership
		if err := rows.Scan(&m.ID, &m.AreaID, &m.UserID, &m.GroupID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *AreaRepo) AddMembership(ctx context.Context, m *domain.AreaMembership) error {
	query := `
		INSERT INTO area_memberships (id, area_id, user_id, group_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, m.ID, m.AreaID, m.UserID, m.GroupID, m.Role, m.JoinedAt)
	return err
}

func (r *AreaRepo) UpdateMembershipRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	_, err := r.pool.Exec(ctx, `UPDATE area_memberships SET role = $1 WHERE id = $2`, role, id)
	return err
}

func (r *AreaRepo) RemoveMembership(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM area_memberships WHERE id = $1`, id)
	return err
}

func (r *AreaRepo) ListMemberships(ctx context.Context, areaID uuid.UUID) ([]domain.AreaMembership, error) {
	query := `
		SELECT am.id, am.area_id, am.user_id, am.group_id, am.role, am.joined_at,
		       COALESCE(u.username, ''), COALESCE(g.name, '')
		FROM area_memberships am
		LEFT JOIN users u  ON u.id = am.user_id
		LEFT JOIN groups g ON g.id = am.group_id
		WHERE am.area_id = $1
		ORDER BY am.joined_at`

	rows, err := r.pool.Query(ctx, query, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []domain.AreaMembership
	for rows.Next() {
		var m domain.AreaMembership
		if err := rows.Scan(&m.ID, &m.AreaID, &m.UserID, &m.GroupID, &m.Role, &m.JoinedAt,
			&m.Username, &m.GroupName); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// Candidate queries for the set builder. General areas are resolved entirely
// by the general pathway, so the creator and membership candidates exclude
// them to mirror the resolver's short-circuit.

func (r *AreaRepo) GeneralIDsBySpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(spaceIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id FROM areas WHERE space_id = ANY($1) AND is_general AND deleted_at IS NULL`
	return scanIDs(ctx, r.pool, query, spaceIDs)
}

func (r *AreaRepo) CreatedIDs(ctx context.Context, userID uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM areas
		WHERE created_by = $1 AND NOT is_general AND deleted_at IS NULL
		  AND ($2::uuid IS NULL OR space_id = $2)`
	return scanIDs(ctx, r.pool, query, userID, scope.SpaceID)
}

func (r *AreaRepo) UserMembershipIDs(ctx context.Context, userID uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	query := `
		SELECT a.id
		FROM area_memberships am
		JOIN areas a ON a.id = am.area_id AND NOT a.is_general AND a.deleted_at IS NULL
		WHERE am.user_id = $1
		  AND ($2::uuid IS NULL OR a.space_id = $2)`
	return scanIDs(ctx, r.pool, query, userID, scope.SpaceID)
}

func (r *AreaRepo) GroupMembershipIDs(ctx context.Context, groupIDs []uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT a.id
		FROM area_memberships am
		JOIN areas a ON a.id = am.area_id AND NOT a.is_general AND a.deleted_at IS NULL
		WHERE am.group_id = ANY($1)
		  AND ($2::uuid IS NULL OR a.space_id = $2)`
	return scanIDs(ctx, r.pool, query, groupIDs, scope.SpaceID)
}

func (r *AreaRepo) OpenIDsBySpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(spaceIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id FROM areas
		WHERE space_id = ANY($1) AND NOT is_restricted AND NOT is_general AND deleted_at IS NULL`
	return scanIDs(ctx, r.pool, query, spaceIDs)
}

func (r *AreaRepo) scanArea(ctx context.Context, query string, arg any) (*domain.Area, error) {
	var a domain.Area
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.SpaceID, &a.Name, &a.Description,
		&a.IsGeneral, &a.IsRestricted, &a.CreatedBy, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &a, err
}

func (r *AreaRepo) scanAreaMembership(ctx context.Context, query string, args ...any) (*domain.AreaMembership, error) {
	var m domain.AreaMembership
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&m.ID, &m.AreaID, &m.UserID, &m.GroupID, &m.Role, &m.JoinedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}
