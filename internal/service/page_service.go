package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/access"
	"github.com/mbrekalo/trellis/internal/audit"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
)

type PageService struct {
	pages        repository.PageRepository
	areas        repository.AreaRepository
	users        repository.UserRepository
	groups       repository.GroupRepository
	areaResolver *access.AreaResolver
	resolver     *access.ResourceResolver
	builder      *access.SetBuilder
	audit        *audit.Recorder
}

func NewPageService(
	pages repository.PageRepository,
	areas repository.AreaRepository,
	users repository.UserRepository,
	groups repository.GroupRepository,
	areaResolver *access.AreaResolver,
	resolver *access.ResourceResolver,
	builder *access.SetBuilder,
	auditor *audit.Recorder,
) *PageService {
	return &PageService{
		pages:        pages,
		areas:        areas,
		users:        users,
		groups:       groups,
		areaResolver: areaResolver,
		resolver:     resolver,
		builder:      builder,
		audit:        auditor,
	}
}

type CreatePageInput struct {
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
}

type UpdatePageInput struct {
	Title *string `json:"title"`
}

// SharePageInput targets a user or a group, never both, with an explicit
// permission level.
type SharePageInput struct {
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
	Permission string     `json:"permission"`
}

func (s *PageService) Create(ctx context.Context, userID, areaID uuid.UUID, input CreatePageInput) (*domain.Page, error) {
	decision, err := s.areaResolver.Resolve(ctx, userID, areaID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, access.ErrNotFound
	}
	if decision.Role.Rank() < domain.RoleMember.Rank() {
		return nil, ErrRoleRequired
	}

	visibility := domain.Visibility(input.Visibility)
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}
	if err := validatePageVisibility(visibility); err != nil {
		return nil, err
	}

	now := time.Now()
	page := &domain.Page{
		ID:         uuid.New(),
		AreaID:     areaID,
		OwnerID:    userID,
		Title:      input.Title,
		Visibility: visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.pages.Create(ctx, page); err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditCreate, domain.ResourcePage, page.ID, s.areaSpace(ctx, page.AreaID))
	return page, nil
}

func (s *PageService) Get(ctx context.Context, userID, pageID uuid.UUID) (*domain.Page, access.ResourceDecision, error) {
	decision, err := s.resolver.ResolvePage(ctx, userID, pageID)
	if err != nil {
		return nil, access.ResourceDecision{}, err
	}
	if !decision.Granted {
		return nil, access.ResourceDecision{}, access.ErrNotFound
	}

	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, access.ResourceDecision{}, err
	}
	if page == nil {
		return nil, access.ResourceDecision{}, access.ErrNotFound
	}
	return page, decision, nil
}

func (s *PageService) List(ctx context.Context, userID uuid.UUID, scope repository.PageScope) ([]domain.Page, error) {
	ids, err := s.builder.PageIDs(ctx, userID, scope)
	if err != nil {
		return nil, err
	}
	return s.pages.ListByIDs(ctx, ids)
}

func (s *PageService) Update(ctx context.Context, userID, pageID uuid.UUID, input UpdatePageInput) (*domain.Page, error) {
	page, decision, err := s.Get(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	if permRank(decision.Permission) < permRank(domain.PermissionEditor) {
		return nil, ErrRoleRequired
	}

	if input.Title != nil {
		page.Title = *input.Title
	}
	page.UpdatedAt = time.Now()

	if err := s.pages.Update(ctx, page); err != nil {
		return nil, fmt.Errorf("updating page: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditUpdate, domain.ResourcePage, page.ID, s.areaSpace(ctx, page.AreaID))
	return page, nil
}

func (s *PageService) ChangeVisibility(ctx context.Context, userID, pageID uuid.UUID, visibility domain.Visibility) (*domain.Page, error) {
	page, decision, err := s.Get(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	if permRank(decision.Permission) < permRank(domain.PermissionAdmin) {
		return nil, ErrRoleRequired
	}
	if err := validatePageVisibility(visibility); err != nil {
		return nil, err
	}

	page.Visibility = visibility
	page.UpdatedAt = time.Now()
	if err := s.pages.Update(ctx, page); err != nil {
		return nil, fmt.Errorf("changing page visibility: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditChangeVisibility, domain.ResourcePage, page.ID, s.areaSpace(ctx, page.AreaID))
	return page, nil
}

// Share adds or updates an explicit share. Shares determine access only
// while the page stays private; they are kept when visibility is relaxed.
func (s *PageService) Share(ctx context.Context, actorID, pageID uuid.UUID, input SharePageInput) error {
	page, decision, err := s.Get(ctx, actorID, pageID)
	if err != nil {
		return err
	}
	if permRank(decision.Permission) < permRank(domain.PermissionAdmin) {
		return ErrRoleRequired
	}
	if (input.UserID == nil) == (input.GroupID == nil) {
		return access.Invariantf("a share targets exactly one of user_id or group_id")
	}

	permission := domain.Permission(input.Permission)
	if permission == "" {
		permission = domain.PermissionViewer
	}
	if permRank(permission) == 0 {
		return access.Invariantf("invalid share permission %q", input.Permission)
	}

	now := time.Now()
	if input.UserID != nil {
		target, err := s.users.GetByID(ctx, *input.UserID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrUnknownTarget
		}
		share := &domain.PageUserShare{
			PageID:     pageID,
			UserID:     *input.UserID,
			Permission: permission,
			SharedBy:   actorID,
			SharedAt:   now,
		}
		if err := s.pages.AddUserShare(ctx, share); err != nil {
			return fmt.Errorf("sharing page with user: %w", err)
		}
	} else {
		target, err := s.groups.GetByID(ctx, *input.GroupID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrUnknownTarget
		}
		share := &domain.PageGroupShare{
			PageID:     pageID,
			GroupID:    *input.GroupID,
			Permission: permission,
			SharedBy:   actorID,
			SharedAt:   now,
		}
		if err := s.pages.AddGroupShare(ctx, share); err != nil {
			return fmt.Errorf("sharing page with group: %w", err)
		}
	}

	s.audit.Record(ctx, actorID, domain.AuditShare, domain.ResourcePage, pageID, s.areaSpace(ctx, page.AreaID))
	return nil
}

func (s *PageService) Unshare(ctx context.Context, actorID, pageID uuid.UUID, userID, groupID *uuid.UUID) error {
	page, decision, err := s.Get(ctx, actorID, pageID)
	if err != nil {
		return err
	}
	if permRank(decision.Permission) < permRank(domain.PermissionAdmin) {
		return ErrRoleRequired
	}
	if (userID == nil) == (groupID == nil) {
		return access.Invariantf("an unshare targets exactly one of user_id or group_id")
	}

	if userID != nil {
		err = s.pages.RemoveUserShare(ctx, pageID, *userID)
	} else {
		err = s.pages.RemoveGroupShare(ctx, pageID, *groupID)
	}
	if err != nil {
		return fmt.Errorf("unsharing page: %w", err)
	}

	s.audit.Record(ctx, actorID, domain.AuditUnshare, domain.ResourcePage, pageID, s.areaSpace(ctx, page.AreaID))
	return nil
}

func (s *PageService) ListShares(ctx context.Context, userID, pageID uuid.UUID) ([]domain.PageUserShare, []domain.PageGroupShare, error) {
	if _, _, err := s.Get(ctx, userID, pageID); err != nil {
		return nil, nil, err
	}
	userShares, err := s.pages.ListUserShares(ctx, pageID)
	if err != nil {
		return nil, nil, err
	}
	groupShares, err := s.pages.ListGroupShares(ctx, pageID)
	if err != nil {
		return nil, nil, err
	}
	return userShares, groupShares, nil
}

// areaSpace resolves the space an area belongs to, for audit scoping only.
// Failures degrade to an unscoped event.
func (s *PageService) areaSpace(ctx context.Context, areaID uuid.UUID) *uuid.UUID {
	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil || area == nil {
		return nil
	}
	return &area.SpaceID
}

func validatePageVisibility(v domain.Visibility) error {
	switch v {
	case domain.VisibilityPrivate, domain.VisibilityArea, domain.VisibilitySpace:
		return nil
	}
	return access.Invariantf("invalid page visibility %q", v)
}
