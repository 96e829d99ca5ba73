package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
)

// AreaDecision is the result of resolving a principal against an Area.
type AreaDecision struct {
	Granted bool        `json:"granted"`
	Role    domain.Role `json:"role,omitempty"`
}

// AreaResolver answers access for a partition of a Space.
//
// The five-step order is load-bearing: General Areas admit every space
// principal including guests; creator override and memberships come before
// the open-area fallback; restricted areas without a membership stay opaque
// even to space admins.
type AreaResolver struct {
	areas    repository.AreaRepository
	spaces   *SpaceResolver
	identity *IdentityGraph
}

func NewAreaResolver(areas repository.AreaRepository, spaces *SpaceResolver, identity *IdentityGraph) *AreaResolver {
	return &AreaResolver{areas: areas, spaces: spaces, identity: identity}
}

func (r *AreaResolver) Resolve(ctx context.Context, userID, areaID uuid.UUID) (AreaDecision, error) {
	area, err := r.areas.GetByID(ctx, areaID)
	if err != nil {
		return AreaDecision{}, fmt.Errorf("loading area: %w", err)
	}
	if area == nil {
		return AreaDecision{}, ErrNotFound
	}
	return r.resolveArea(ctx, userID, area)
}

func (r *AreaResolver) resolveArea(ctx context.Context, userID uuid.UUID, area *domain.Area) (AreaDecision, error) {
	// Step 1: the General Area admits anyone with any space role, guests
	// included.
	if area.IsGeneral {
		space, err := r.spaces.Resolve(ctx, userID, area.SpaceID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return AreaDecision{}, err
		}
		if space.Granted {
			return AreaDecision{Granted: true, Role: areaRoleFromSpace(space.Role)}, nil
		}
		return AreaDecision{}, nil
	}

	// Step 2: creator override.
	if area.CreatedBy == userID {
		return AreaDecision{Granted: true, Role: domain.RoleOwner}, nil
	}

	// Step 3: direct membership.
	direct, err := r.areas.GetUserMembership(ctx, area.ID, userID)
	if err != nil {
		return AreaDecision{}, fmt.Errorf("loading area membership: %w", err)
	}
	if direct != nil {
		return AreaDecision{Granted: true, Role: direct.Role}, nil
	}

	// Step 4: most privileged group-derived membership.
	groupIDs, err := r.identity.GroupsOf(ctx, userID)
	if err != nil {
		return AreaDecision{}, err
	}
	if len(groupIDs) > 0 {
		memberships, err := r.areas.GroupMemberships(ctx, area.ID, groupIDs)
		if err != nil {
			return AreaDecision{}, fmt.Errorf("loading area group memberships: %w", err)
		}
		if len(memberships) > 0 {
			best := memberships[0].Role
			for _, m := range memberships[1:] {
				best = domain.MaxRole(best, m.Role)
			}
			return AreaDecision{Granted: true, Role: best}, nil
		}
	}

	// Step 5: open areas fall back to space membership, guests excluded.
	if !area.IsRestricted {
		space, err := r.spaces.Resolve(ctx, userID, area.SpaceID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return AreaDecision{}, err
		}
		if space.Granted && space.Role != domain.RoleGuest {
			return AreaDecision{Granted: true, Role: areaRoleFromSpace(space.Role)}, nil
		}
	}

	return AreaDecision{}, nil
}

// areaRoleFromSpace maps an inherited space role into area terms. Guests get
// viewer; everything else carries over.
func areaRoleFromSpace(role domain.Role) domain.Role {
	if role == domain.RoleGuest {
		return domain.RoleViewer
	}
	return role
}
