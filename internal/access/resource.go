package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
)

// ResourceDecision is the result of resolving a principal against a Document
// or Page. Granted owners always get admin permission regardless of shares.
type ResourceDecision struct {
	Granted    bool              `json:"granted"`
	Permission domain.Permission `json:"permission,omitempty"`
}

var permissionRank = map[domain.Permission]int{
	domain.PermissionAdmin:  3,
	domain.PermissionEditor: 2,
	domain.PermissionViewer: 1,
}

func maxPermission(a, b domain.Permission) domain.Permission {
	if permissionRank[b] > permissionRank[a] {
		return b
	}
	return a
}

// permissionFromRole maps an inherited membership role onto a content
// permission: member and up can edit, viewer/guest-level roles read only.
func permissionFromRole(role domain.Role) domain.Permission {
	if role.Rank() >= domain.RoleMember.Rank() {
		return domain.PermissionEditor
	}
	return domain.PermissionViewer
}

// ResourceResolver resolves leaf content: Documents and Pages. The two share
// shape but inherit differently — a Document from its shared Areas or its
// Space, a Page from its single owning Area or that Area's Space.
type ResourceResolver struct {
	documents repository.DocumentRepository
	pages     repository.PageRepository
	areas     *AreaResolver
	spaces    *SpaceResolver
	identity  *IdentityGraph
}

func NewResourceResolver(
	documents repository.DocumentRepository,
	pages repository.PageRepository,
	areas *AreaResolver,
	spaces *SpaceResolver,
	identity *IdentityGraph,
) *ResourceResolver {
	return &ResourceResolver{
		documents: documents,
		pages:     pages,
		areas:     areas,
		spaces:    spaces,
		identity:  identity,
	}
}

// ResolveDocument evaluates, in order: ownership, space-wide visibility,
// area-share visibility. Private documents are owner-only: there is no
// per-user share list for documents, only promotion to areas/space.
func (r *ResourceResolver) ResolveDocument(ctx context.Context, userID, documentID uuid.UUID) (ResourceDecision, error) {
	doc, err := r.documents.GetByID(ctx, documentID)
	if err != nil {
		return ResourceDecision{}, fmt.Errorf("loading document: %w", err)
	}
	if doc == nil {
		return ResourceDecision{}, ErrNotFound
	}
	return r.resolveDocument(ctx, userID, doc)
}

func (r *ResourceResolver) resolveDocument(ctx context.Context, userID uuid.UUID, doc *domain.Document) (ResourceDecision, error) {
	if doc.OwnerID == userID {
		return ResourceDecision{Granted: true, Permission: domain.PermissionAdmin}, nil
	}

	switch doc.Visibility {
	case domain.VisibilitySpace:
		// A vanished parent denies rather than errors.
		space, err := r.spaces.Resolve(ctx, userID, doc.SpaceID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return ResourceDecision{}, err
		}
		if space.Granted {
			return ResourceDecision{Granted: true, Permission: permissionFromRole(space.Role)}, nil
		}

	case domain.VisibilityAreas:
		areaIDs, err := r.documents.SharedAreaIDs(ctx, doc.ID)
		if err != nil {
			return ResourceDecision{}, fmt.Errorf("loading document area shares: %w", err)
		}
		for _, areaID := range areaIDs {
			area, err := r.areas.Resolve(ctx, userID, areaID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return ResourceDecision{}, err
			}
			if area.Granted {
				return ResourceDecision{Granted: true, Permission: permissionFromRole(area.Role)}, nil
			}
		}
	}

	return ResourceDecision{}, nil
}

// ResolvePage evaluates, in order: ownership, explicit shares (private only),
// area inheritance, space inheritance.
func (r *ResourceResolver) ResolvePage(ctx context.Context, userID, pageID uuid.UUID) (ResourceDecision, error) {
	page, err := r.pages.GetByID(ctx, pageID)
	if err != nil {
		return ResourceDecision{}, fmt.Errorf("loading page: %w", err)
	}
	if page == nil {
		return ResourceDecision{}, ErrNotFound
	}
	return r.resolvePage(ctx, userID, page)
}

func (r *ResourceResolver) resolvePage(ctx context.Context, userID uuid.UUID, page *domain.Page) (ResourceDecision, error) {
	if page.OwnerID == userID {
		return ResourceDecision{Granted: true, Permission: domain.PermissionAdmin}, nil
	}

	switch page.Visibility {
	case domain.VisibilityPrivate:
		// Shares are the determining path only at private visibility.
		share, err := r.pages.GetUserShare(ctx, page.ID, userID)
		if err != nil {
			return ResourceDecision{}, fmt.Errorf("loading page user share: %w", err)
		}
		if share != nil {
			return ResourceDecision{Granted: true, Permission: share.Permission}, nil
		}
		groupIDs, err := r.identity.GroupsOf(ctx, userID)
		if err != nil {
			return ResourceDecision{}, err
		}
		if len(groupIDs) > 0 {
			shares, err := r.pages.GroupShares(ctx, page.ID, groupIDs)
			if err != nil {
				return ResourceDecision{}, fmt.Errorf("loading page group shares: %w", err)
			}
			if len(shares) > 0 {
				best := shares[0].Permission
				for _, s := range shares[1:] {
					best = maxPermission(best, s.Permission)
				}
				return ResourceDecision{Granted: true, Permission: best}, nil
			}
		}

	case domain.VisibilityArea:
		area, err := r.areas.Resolve(ctx, userID, page.AreaID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return ResourceDecision{}, err
		}
		if area.Granted {
			return ResourceDecision{Granted: true, Permission: permissionFromRole(area.Role)}, nil
		}

	case domain.VisibilitySpace:
		area, err := r.areas.areas.GetByID(ctx, page.AreaID)
		if err != nil {
			return ResourceDecision{}, fmt.Errorf("loading page area: %w", err)
		}
		if area == nil {
			return ResourceDecision{}, nil
		}
		space, err := r.spaces.Resolve(ctx, userID, area.SpaceID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return ResourceDecision{}, err
		}
		if space.Granted {
			return ResourceDecision{Granted: true, Permission: permissionFromRole(space.Role)}, nil
		}
	}

	return ResourceDecision{}, nil
}
