package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
)

// GrantSource names the pathway that produced a space grant.
type GrantSource string

const (
	SourceOwner      GrantSource = "owner"
	SourceMembership GrantSource = "membership"
	SourceGroup      GrantSource = "group"
)

// SpaceDecision is the result of resolving a principal against a Space.
type SpaceDecision struct {
	Granted bool        `json:"granted"`
	Role    domain.Role `json:"role,omitempty"`
	Source  GrantSource `json:"source,omitempty"`
}

// SpaceResolver answers "can this principal access this Space, as what?".
//
// Pathway precedence is fixed: ownership, then direct membership, then the
// best group-derived membership. Precedence is by pathway, not privilege: a
// direct membership wins even when a group grant carries a higher role.
type SpaceResolver struct {
	spaces   repository.SpaceRepository
	identity *IdentityGraph
}

func NewSpaceResolver(spaces repository.SpaceRepository, identity *IdentityGraph) *SpaceResolver {
	return &SpaceResolver{spaces: spaces, identity: identity}
}

func (r *SpaceResolver) Resolve(ctx context.Context, userID, spaceID uuid.UUID) (SpaceDecision, error) {
	space, err := r.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return SpaceDecision{}, fmt.Errorf("loading space: %w", err)
	}
	if space == nil {
		return SpaceDecision{}, ErrNotFound
	}

	// Pathway 1: ownership.
	if space.OwnerID == userID {
		return SpaceDecision{Granted: true, Role: domain.RoleOwner, Source: SourceOwner}, nil
	}

	// Pathway 2: direct membership. Shadows group grants regardless of role.
	direct, err := r.spaces.GetUserMembership(ctx, spaceID, userID)
	if err != nil {
		return SpaceDecision{}, fmt.Errorf("loading membership: %w", err)
	}
	if direct != nil {
		return SpaceDecision{Granted: true, Role: direct.Role, Source: SourceMembership}, nil
	}

	// Pathway 3: most privileged group-derived membership.
	groupIDs, err := r.identity.GroupsOf(ctx, userID)
	if err != nil {
		return SpaceDecision{}, err
	}
	if len(groupIDs) > 0 {
		memberships, err := r.spaces.GroupMemberships(ctx, spaceID, groupIDs)
		if err != nil {
			return SpaceDecision{}, fmt.Errorf("loading group memberships: %w", err)
		}
		if len(memberships) > 0 {
			best := memberships[0].Role
			for _, m := range memberships[1:] {
				best = domain.MaxRole(best, m.Role)
			}
			return SpaceDecision{Granted: true, Role: best, Source: SourceGroup}, nil
		}
	}

	return SpaceDecision{}, nil
}

// EffectiveRoles is the bulk twin of Resolve: the decision for every Space
// the principal can access, keyed by space ID. It merges the three pathway
// candidate queries under the same precedence Resolve applies, so that for
// every space S, EffectiveRoles(u)[S] equals Resolve(u, S).
func (r *SpaceResolver) EffectiveRoles(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]SpaceDecision, error) {
	groupIDs, err := r.identity.GroupsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned, err := r.spaces.OwnedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("owned spaces: %w", err)
	}
	directRoles, err := r.spaces.UserMembershipRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("membership spaces: %w", err)
	}
	groupRoles, err := r.spaces.GroupMembershipRoles(ctx, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("group membership spaces: %w", err)
	}

	// Merge lowest-precedence first so stronger pathways overwrite.
	decisions := make(map[uuid.UUID]SpaceDecision, len(owned)+len(directRoles)+len(groupRoles))
	for spaceID, role := range groupRoles {
		decisions[spaceID] = SpaceDecision{Granted: true, Role: role, Source: SourceGroup}
	}
	for spaceID, role := range directRoles {
		decisions[spaceID] = SpaceDecision{Granted: true, Role: role, Source: SourceMembership}
	}
	for _, spaceID := range owned {
		decisions[spaceID] = SpaceDecision{Granted: true, Role: domain.RoleOwner, Source: SourceOwner}
	}
	return decisions, nil
}
