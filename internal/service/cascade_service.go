package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/access"
	"github.com/mbrekalo/trellis/internal/audit"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
)

// CascadeService deletes containers and everything that depends on them.
// Each deletion runs inside one transaction: either the container and all its
// children are gone together, or nothing changed.
type CascadeService struct {
	store       repository.CascadeStore
	spaces      repository.SpaceRepository
	areas       repository.AreaRepository
	documents   repository.DocumentRepository
	pages       repository.PageRepository
	spaceRes    *access.SpaceResolver
	areaRes     *access.AreaResolver
	resourceRes *access.ResourceResolver
	audit       *audit.Recorder
}

func NewCascadeService(
	store repository.CascadeStore,
	spaces repository.SpaceRepository,
	areas repository.AreaRepository,
	documents repository.DocumentRepository,
	pages repository.PageRepository,
	spaceRes *access.SpaceResolver,
	areaRes *access.AreaResolver,
	resourceRes *access.ResourceResolver,
	auditor *audit.Recorder,
) *CascadeService {
	return &CascadeService{
		store:       store,
		spaces:      spaces,
		areas:       areas,
		documents:   documents,
		pages:       pages,
		spaceRes:    spaceRes,
		areaRes:     areaRes,
		resourceRes: resourceRes,
		audit:       auditor,
	}
}

// DeleteSpace soft-deletes a space with all of its areas, documents, pages,
// tasks and conversations, and hard-deletes memberships and shares. Only the
// owner may do this, and personal spaces are not deletable.
func (s *CascadeService) DeleteSpace(ctx context.Context, userID, spaceID uuid.UUID) (*domain.CascadeResult, error) {
	space, err := s.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if space == nil {
		return nil, access.ErrNotFound
	}

	decision, err := s.spaceRes.Resolve(ctx, userID, spaceID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, access.ErrNotFound
	}
	if space.OwnerID != userID {
		return nil, ErrRoleRequired
	}
	if space.SpaceType == domain.SpaceTypePersonal {
		return nil, access.Invariantf("personal spaces cannot be deleted")
	}

	result := &domain.CascadeResult{}
	err = s.store.InTx(ctx, func(ops repository.CascadeOps) error {
		areaIDs, err := ops.AreaIDsBySpace(ctx, spaceID)
		if err != nil {
			return err
		}

		if result.Memberships, err = s.sum(
			func() (int, error) { return ops.DeleteSpaceMemberships(ctx, spaceID) },
			func() (int, error) { return ops.DeleteAreaMembershipsByAreas(ctx, areaIDs) },
		); err != nil {
			return err
		}
		if result.Shares, err = s.sum(
			func() (int, error) { return ops.DeleteDocumentSharesBySpace(ctx, spaceID) },
			func() (int, error) { return ops.DeletePageSharesByAreas(ctx, areaIDs) },
		); err != nil {
			return err
		}

		if result.Pages, err = ops.SoftDeletePagesByAreas(ctx, areaIDs); err != nil {
			return err
		}
		if result.Documents, err = ops.SoftDeleteDocumentsBySpace(ctx, spaceID); err != nil {
			return err
		}
		if result.Tasks, err = ops.SoftDeleteTasksBySpace(ctx, spaceID); err != nil {
			return err
		}
		if result.Conversations, err = ops.SoftDeleteConversationsBySpace(ctx, spaceID); err != nil {
			return err
		}
		if result.Areas, err = ops.SoftDeleteAreas(ctx, areaIDs); err != nil {
			return err
		}
		return ops.SoftDeleteSpace(ctx, spaceID)
	})
	if err != nil {
		return nil, fmt.Errorf("deleting space: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditDelete, domain.ResourceSpace, spaceID, &spaceID)
	return result, nil
}

// DeleteArea soft-deletes a non-General area. Tasks and conversations pointing
// at the area are re-pointed to "no area" rather than deleted; pages cannot
// outlive their area, so they are soft-deleted along with their shares.
func (s *CascadeService) DeleteArea(ctx context.Context, userID, areaID uuid.UUID) (*domain.CascadeResult, error) {
	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return nil, access.ErrNotFound
	}

	decision, err := s.areaRes.Resolve(ctx, userID, areaID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, access.ErrNotFound
	}
	if decision.Role.Rank() < domain.RoleAdmin.Rank() {
		return nil, ErrRoleRequired
	}
	if area.IsGeneral {
		return nil, access.Invariantf("the General Area cannot be deleted")
	}

	areaIDs := []uuid.UUID{areaID}
	result := &domain.CascadeResult{Areas: 1}
	err = s.store.InTx(ctx, func(ops repository.CascadeOps) error {
		var err error
		if result.Tasks, err = ops.ClearTaskArea(ctx, areaID); err != nil {
			return err
		}
		if result.Conversations, err = ops.ClearConversationArea(ctx, areaID); err != nil {
			return err
		}
		if result.Shares, err = s.sum(
			func() (int, error) { return ops.DeleteDocumentSharesByArea(ctx, areaID) },
			func() (int, error) { return ops.DeletePageSharesByAreas(ctx, areaIDs) },
		); err != nil {
			return err
		}
		if result.Pages, err = ops.SoftDeletePagesByAreas(ctx, areaIDs); err != nil {
			return err
		}
		if result.Memberships, err = ops.DeleteAreaMembershipsByAreas(ctx, areaIDs); err != nil {
			return err
		}
		return ops.SoftDeleteArea(ctx, areaID)
	})
	if err != nil {
		return nil, fmt.Errorf("deleting area: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditDelete, domain.ResourceArea, areaID, &area.SpaceID)
	return result, nil
}

// DeleteDocument soft-deletes a document and hard-deletes its area shares and
// task links. Requires admin permission on the document.
func (s *CascadeService) DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) (*domain.CascadeResult, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, access.ErrNotFound
	}

	decision, err := s.resourceRes.ResolveDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, access.ErrNotFound
	}
	if permRank(decision.Permission) < permRank(domain.PermissionAdmin) {
		return nil, ErrRoleRequired
	}

	result := &domain.CascadeResult{Documents: 1}
	err = s.store.InTx(ctx, func(ops repository.CascadeOps) error {
		var err error
		if result.Shares, err = ops.DeleteDocumentShares(ctx, documentID); err != nil {
			return err
		}
		if _, err = ops.DeleteTaskDocumentLinks(ctx, documentID); err != nil {
			return err
		}
		return ops.SoftDeleteDocument(ctx, documentID)
	})
	if err != nil {
		return nil, fmt.Errorf("deleting document: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditDelete, domain.ResourceDocument, documentID, &doc.SpaceID)
	return result, nil
}

// DeletePage soft-deletes a page and hard-deletes its shares and conversation
// links. Requires admin permission on the page.
func (s *CascadeService) DeletePage(ctx context.Context, userID, pageID uuid.UUID) (*domain.CascadeResult, error) {
	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, access.ErrNotFound
	}

	decision, err := s.resourceRes.ResolvePage(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, access.ErrNotFound
	}
	if permRank(decision.Permission) < permRank(domain.PermissionAdmin) {
		return nil, ErrRoleRequired
	}

	result := &domain.CascadeResult{Pages: 1}
	err = s.store.InTx(ctx, func(ops repository.CascadeOps) error {
		var err error
		if result.Shares, err = ops.DeletePageShares(ctx, pageID); err != nil {
			return err
		}
		if _, err = ops.DeletePageConversationLinks(ctx, pageID); err != nil {
			return err
		}
		return ops.SoftDeletePage(ctx, pageID)
	})
	if err != nil {
		return nil, fmt.Errorf("deleting page: %w", err)
	}

	var pageSpace *uuid.UUID
	if parent, err := s.areas.GetByID(ctx, page.AreaID); err == nil && parent != nil {
		pageSpace = &parent.SpaceID
	}
	s.audit.Record(ctx, userID, domain.AuditDelete, domain.ResourcePage, pageID, pageSpace)
	return result, nil
}

func (s *CascadeService) sum(fns ...func() (int, error)) (int, error) {
	total := 0
	for _, fn := range fns {
		n, err := fn()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
