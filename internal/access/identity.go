package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/repository"
)

// IdentityGraph resolves a principal's organization and group memberships.
// Pure read, no side effects. An empty group set is a valid answer, never an
// error; ErrNotFound fires only when the user record itself is missing.
type IdentityGraph struct {
	users  repository.UserRepository
	groups repository.GroupLister
}

func NewIdentityGraph(users repository.UserRepository, groups repository.GroupLister) *IdentityGraph {
	return &IdentityGraph{users: users, groups: groups}
}

func (g *IdentityGraph) GroupsOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return g.groups.GroupIDsByUser(ctx, userID)
}

func (g *IdentityGraph) OrgOf(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return uuid.Nil, ErrNotFound
	}
	return user.OrganizationID, nil
}
