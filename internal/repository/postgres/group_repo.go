package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbrekalo/trellis/internal/domain"
)

type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

func (r *GroupRepo) Create(ctx context.Context, group *domain.Group) error {
	query := `
		INSERT INTO groups (id, organization_id, name, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		group.ID, group.OrganizationID, group.Name, group.CreatedBy, group.CreatedAt,
	)
	return err
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	query := `
		SELECT id, organization_id, name, created_by, created_at
		FROM groups WHERE id = $1 AND deleted_at IS NULL`

	var g domain.Group
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.OrganizationID, &g.Name, &g.CreatedBy, &g.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &g, err
}

func (r *GroupRepo) GroupIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT gm.group_id
		FROM group_members gm
		JOIN groups g ON g.id = gm.group_id AND g.deleted_at IS NULL
		WHERE gm.user_id = $1`

	return scanIDs(ctx, r.pool, query, userID)
}

func (r *GroupRepo) AddMember(ctx context.Context, member *domain.GroupMember) error {
	query := `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, member.GroupID, member.UserID, member.Role, member.JoinedAt)
	return err
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return err
}

func (r *GroupRepo) GetMember(ctx context.Context, groupID, userID uuid.UUID) (*domain.GroupMember, error) {
	query := `
		SELECT group_id, user_id, role, joined_at
		FROM group_members WHERE group_id = $1 AND user_id = $2`

	var m domain.GroupMember
	err := r.pool.QueryRow(ctx, query, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID uuid.UUID) ([]domain.GroupMember, error) {
	query := `
		SELECT gm.group_id, gm.user_id, gm.role, gm.joined_at, u.username, u.display_name
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.GroupMember
	for rows.Next() {
		var m domain.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt, &m.Username, &m.DisplayName); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
