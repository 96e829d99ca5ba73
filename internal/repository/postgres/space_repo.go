package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbrekalo/trellis/internal/domain"
)

type SpaceRepo struct {
	pool *pgxpool.Pool
}

func NewSpaceRepo(pool *pgxpool.Pool) *SpaceRepo {
	return &SpaceRepo{pool: pool}
}

const spaceColumns = `id, name, slug, description, space_type, owner_id, organization_id, created_at`

// Create inserts the space together with its General Area so the "every space
// has a General Area" invariant holds from the first committed state.
func (r *SpaceRepo) Create(ctx context.Context, space *domain.Space, general *domain.Area) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO spaces (id, name, slug, description, space_type, owner_id, organization_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			space.ID, space.Name, space.Slug, space.Description, space.SpaceType,
			space.OwnerID, space.OrganizationID, space.CreatedAt,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO areas (id, space_id, name, description, is_general, is_restricted, created_by, created_at)
			VALUES ($1, $2, $3, $4, true, false, $5, $6)`,
			general.ID, general.SpaceID, general.Name, general.Description,
			general.CreatedBy, general.CreatedAt,
		)
		return err
	})
}

func (r *SpaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE id = $1 AND deleted_at IS NULL`
	return r.scanSpace(ctx, query, id)
}

func (r *SpaceRepo) GetBySlug(ctx context.Context, slug string) (*domain.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces WHERE slug = $1 AND deleted_at IS NULL`
	return r.scanSpace(ctx, query, slug)
}

func (r *SpaceRepo) Update(ctx context.Context, space *domain.Space) error {
	query := `UPDATE spaces SET name = $1, slug = $2, description = $3 WHERE id = $4 AND deleted_at IS NULL`
	_, err := r.pool.Exec(ctx, query, space.Name, space.Slug, space.Description, space.ID)
	return err
}

func (r *SpaceRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Space, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + spaceColumns + `
		FROM spaces
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []domain.Space
	for rows.Next() {
		var s domain.Space
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.SpaceType,
			&s.OwnerID, &s.OrganizationID, &s.CreatedAt); err != nil {
			return nil, err
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

func (r *SpaceRepo) GetUserMembership(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMembership, error) {
	query := `
		SELECT id, space_id, user_id, group_id, role, joined_at
		FROM space_memberships WHERE space_id = $1 AND user_id = $2`
	return r.scanMembership(ctx, query, spaceID, userID)
}

func (r *SpaceRepo) GetGroupMembership(ctx context.Context, spaceID, groupID uuid.UUID) (*domain.SpaceMembership, error) {
	query := `
		SELECT id, space_id, user_id, group_id, role, joined_at
		FROM space_memberships WHERE space_id = $1 AND group_id = $2`
	return r.scanMembership(ctx, query, spaceID, groupID)
}

func (r *SpaceRepo) GroupMemberships(ctx context.Context, spaceID uuid.UUID, groupIDs []uuid.UUID) ([]domain.SpaceMembership, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, space_id, user_id, group_id, role, joined_at
		FROM space_memberships WHERE space_id = $1 AND group_id = ANY($2)`

	rows, err := r.pool.Query(ctx, query, spaceID, groupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

func (r *SpaceRepo) AddMembership(ctx context.Context, m *domain.SpaceMembership) error {
	query := `
		INSERT INTO space_memberships (id, space_id, user_id, group_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, m.ID, m.SpaceID, m.UserID, m.GroupID, m.Role, m.JoinedAt)
	return err
}

func (r *SpaceRepo) UpdateMembershipRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	_, err := r.pool.Exec(ctx, `UPDATE space_memberships SET role = $1 WHERE id = $2`, role, id)
	return err
}

func (r *SpaceRepo) RemoveMembership(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM space_memberships WHERE id = $1`, id)
	return err
}

func (r *SpaceRepo) ListMemberships(ctx context.Context, spaceID uuid.UUID) ([]domain.SpaceMembership, error) {
	query := `
		SELECT sm.id, sm.space_id, sm.user_id, sm.group_id, sm.role, sm.joined_at,
		       COALESCE(u.username, ''), COALESCE(g.name, '')
		FROM space_memberships sm
		LEFT JOIN users u  ON u.id = sm.user_id
		LEFT JOIN groups g ON g.id = sm.group_id
		WHERE sm.space_id = $1
		ORDER BY sm.joined_at`

	rows, err := r.pool.Query(ctx, query, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []domain.SpaceMembership
	for rows.Next() {
		var m domain.SpaceMembership
		if err := rows.Scan(&m.ID, &m.SpaceID, &m.UserID, &m.GroupID, &m.Role, &m.JoinedAt,
			&m.Username, &m.GroupName); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *SpaceRepo) OwnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT id FROM spaces WHERE owner_id = $1 AND deleted_at IS NULL`
	return scanIDs(ctx, r.pool, query, userID)
}

func (r *SpaceRepo) UserMembershipRoles(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]domain.Role, error) {
	query := `
		SELECT sm.space_id, sm.role
		FROM space_memberships sm
		JOIN spaces s ON s.id = sm.space_id AND s.deleted_at IS NULL
		WHERE sm.user_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make(map[uuid.UUID]domain.Role)
	for rows.Next() {
		var spaceID uuid.UUID
		var role domain.Role
		if err := rows.Scan(&spaceID, &role); err != nil {
			return nil, err
		}
		roles[spaceID] = role
	}
	return roles, rows.Err()
}

func (r *SpaceRepo) GroupMembershipRoles(ctx context.Context, groupIDs []uuid.UUID) (map[uuid.UUID]domain.Role, error) {
	if len(groupIDs) == 0 {
		return map[uuid.UUID]domain.Role{}, nil
	}
	query := `
		SELECT sm.space_id, sm.role
		FROM space_memberships sm
		JOIN spaces s ON s.id = sm.space_id AND s.deleted_at IS NULL
		WHERE sm.group_id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, groupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Fold to the most privileged role per space; the rank order is not
	// lexical, so the fold happens here rather than in SQL.
	roles := make(map[uuid.UUID]domain.Role)
	for rows.Next() {
		var spaceID uuid.UUID
		var role domain.Role
		if err := rows.Scan(&spaceID, &role); err != nil {
			return nil, err
		}
		if existing, ok := roles[spaceID]; ok {
			roles[spaceID] = domain.MaxRole(existing, role)
		} else {
			roles[spaceID] = role
		}
	}
	return roles, rows.Err()
}

func (r *SpaceRepo) scanSpace(ctx context.Context, query string, arg any) (*domain.Space, error) {
	var s domain.Space
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&s.ID, &s.Name, &s.Slug, &s.Description, &s.SpaceType,
		&s.OwnerID, &s.OrganizationID, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &s, err
}

func (r *SpaceRepo) scanMembership(ctx context.Context, query string, args ...any) (*domain.SpaceMembership, error) {
	var m domain.SpaceMembership
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&m.ID, &m.SpaceID, &m.UserID, &m.GroupID, &m.Role, &m.JoinedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

func collectMemberships(rows pgx.Rows) ([]domain.SpaceMembership, error) {
	var memberships []domain.SpaceMembership
	for rows.Next() {
		var m domain.SpaceMembership
		if err := rows.Scan(&m.ID, &m.SpaceID, &m.UserID, &m.GroupID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
