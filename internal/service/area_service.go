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

type AreaService struct {
	areas         repository.AreaRepository
	users         repository.UserRepository
	groups        repository.GroupRepository
	spaceResolver *access.SpaceResolver
	areaResolver  *access.AreaResolver
	builder       *access.SetBuilder
	audit         *audit.Recorder
}

func NewAreaService(
	areas repository.AreaRepository,
	users repository.UserRepository,
	groups repository.GroupRepository,
	spaceResolver *access.SpaceResolver,
	areaResolver *access.AreaResolver,
	builder *access.SetBuilder,
	auditor *audit.Recorder,
) *AreaService {
	return &AreaService{
		areas:         areas,
		users:         users,
		groups:        groups,
		spaceResolver: spaceResolver,
		areaResolver:  areaResolver,
		builder:       builder,
		audit:         auditor,
	}
}

type CreateAreaInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsRestricted bool   `json:"is_restricted"`
}

type UpdateAreaInput struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	IsRestricted *bool   `json:"is_restricted"`
}

func (s *AreaService) Create(ctx context.Context, userID, spaceID uuid.UUID, input CreateAreaInput) (*domain.Area, error) {
	decision, err := s.spaceResolver.Resolve(ctx, userID, spaceID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, access.ErrNotFound
	}
	if decision.Role.Rank() < domain.RoleMember.Rank() {
		return nil, ErrRoleRequired
	}

	var desc *string
	if input.Description != "" {
		desc = &input.Description
	}

	area := &domain.Area{
		ID:           uuid.New(),
		SpaceID:      spaceID,
		Name:         input.Name,
		Description:  desc,
		IsRestricted: input.IsRestricted,
		CreatedBy:    userID,
		CreatedAt:    time.Now(),
	}
	if err := s.areas.Create(ctx, area); err != nil {
		return nil, fmt.Errorf("creating area: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditCreate, domain.ResourceArea, area.ID, &area.SpaceID)
	return area, nil
}

func (s *AreaService) Get(ctx context.Context, userID, areaID uuid.UUID) (*domain.Area, access.AreaDecision, error) {
	decision, err := s.areaResolver.Resolve(ctx, userID, areaID)
	if err != nil {
		return nil, access.AreaDecision{}, err
	}
	if !decision.Granted {
		return nil, access.AreaDecision{}, access.ErrNotFound
	}

	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return nil, access.AreaDecision{}, err
	}
	if area == nil {
		return nil, access.AreaDecision{}, access.ErrNotFound
	}
	return area, decision, nil
}

// List returns the areas of one space the principal can see.
func (s *AreaService) List(ctx context.Context, userID, spaceID uuid.UUID) ([]domain.Area, error) {
	decision, err := s.spaceResolver.Resolve(ctx, userID, spaceID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, access.ErrNotFound
	}

	ids, err := s.builder.AreaIDs(ctx, userID, repository.AreaScope{SpaceID: &spaceID})
	if err != nil {
		return nil, err
	}
	return s.areas.ListByIDs(ctx, ids)
}

// Update renames an area or toggles restriction. Restricting the General
// Area is an invariant violation for every caller role.
func (s *AreaService) Update(ctx context.Context, userID, areaID uuid.UUID, input UpdateAreaInput) (*domain.Area, error) {
	area, decision, err := s.Get(ctx, userID, areaID)
	if err != nil {
		return nil, err
	}
	if decision.Role.Rank() < domain.RoleAdmin.Rank() {
		return nil, ErrRoleRequired
	}

	if input.IsRestricted != nil && *input.IsRestricted && area.IsGeneral {
		return nil, access.Invariantf("the General Area cannot be restricted")
	}

	if input.Name != nil {
		if area.IsGeneral {
			return nil, access.Invariantf("the General Area cannot be renamed")
		}
		area.Name = *input.Name
	}
	if input.Description != nil {
		area.Description = input.Description
	}
	if input.IsRestricted != nil {
		area.IsRestricted = *input.IsRestricted
	}

	if err := s.areas.Update(ctx, area); err != nil {
		return nil, fmt.Errorf("updating area: %w", err)
	}

	action := domain.AuditUpdate
	if input.IsRestricted != nil {
		action = domain.AuditRestrict
	}
	s.audit.Record(ctx, userID, action, domain.ResourceArea, area.ID, &area.SpaceID)
	return area, nil
}

func (s *AreaService) Grant(ctx context.Context, actorID, areaID uuid.UUID, input GrantInput) error {
	area, decision, err := s.Get(ctx, actorID, areaID)
	if err != nil {
		return err
	}
	if decision.Role.Rank() < domain.RoleAdmin.Rank() {
		return ErrRoleRequired
	}
	if area.IsGeneral {
		return access.Invariantf("the General Area has no memberships; it is visible to every space principal")
	}

	role := domain.Role(input.Role)
	if role == "" {
		role = domain.RoleMember
	}
	if err := validateAreaRole(role); err != nil {
		return err
	}
	if err := validateGrantTarget(input); err != nil {
		return err
	}

	var existing *domain.AreaMembership
	if input.UserID != nil {
		target, err := s.users.GetByID(ctx, *input.UserID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrUnknownTarget
		}
		existing, err = s.areas.GetUserMembership(ctx, areaID, *input.UserID)
		if err != nil {
			return err
		}
	} else {
		target, err := s.groups.GetByID(ctx, *input.GroupID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrUnknownTarget
		}
		existing, err = s.areas.GetGroupMembership(ctx, areaID, *input.GroupID)
		if err != nil {
			return err
		}
	}

	if existing != nil {
		if existing.Role == role {
			return nil
		}
		if err := s.areas.UpdateMembershipRole(ctx, existing.ID, role); err != nil {
			return fmt.Errorf("updating area membership role: %w", err)
		}
		s.audit.Record(ctx, actorID, domain.AuditGrant, domain.ResourceArea, areaID, &area.SpaceID)
		return nil
	}

	m := &domain.AreaMembership{
		ID:       uuid.New(),
		AreaID:   areaID,
		UserID:   input.UserID,
		GroupID:  input.GroupID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	if err := s.areas.AddMembership(ctx, m); err != nil {
		return fmt.Errorf("adding area membership: %w", err)
	}

	s.audit.Record(ctx, actorID, domain.AuditGrant, domain.ResourceArea, areaID, &area.SpaceID)
	return nil
}

func (s *AreaService) Revoke(ctx context.Context, actorID, areaID uuid.UUID, input GrantInput) error {
	area, decision, err := s.Get(ctx, actorID, areaID)
	if err != nil {
		return err
	}
	if decision.Role.Rank() < domain.RoleAdmin.Rank() {
		return ErrRoleRequired
	}
	if err := validateGrantTarget(input); err != nil {
		return err
	}

	var existing *domain.AreaMembership
	if input.UserID != nil {
		existing, err = s.areas.GetUserMembership(ctx, areaID, *input.UserID)
	} else {
		existing, err = s.areas.GetGroupMembership(ctx, areaID, *input.GroupID)
	}
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if err := s.areas.RemoveMembership(ctx, existing.ID); err != nil {
		return fmt.Errorf("removing area membership: %w", err)
	}

	s.audit.Record(ctx, actorID, domain.AuditRevoke, domain.ResourceArea, areaID, &area.SpaceID)
	return nil
}

func (s *AreaService) ListMembers(ctx context.Context, userID, areaID uuid.UUID) ([]domain.AreaMembership, error) {
	if _, _, err := s.Get(ctx, userID, areaID); err != nil {
		return nil, err
	}
	return s.areas.ListMemberships(ctx, areaID)
}

func validateAreaRole(role domain.Role) error {
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember, domain.RoleViewer:
		return nil
	}
	return access.Invariantf("invalid area role %q", role)
}
