package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/access"
	"github.com/mbrekalo/trellis/internal/audit"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
)

var (
	ErrSlugTaken     = errors.New("space slug already taken")
	ErrRoleRequired  = errors.New("caller role does not allow this action")
	ErrUnknownTarget = errors.New("grant target not found")
)

type SpaceService struct {
	spaces   repository.SpaceRepository
	users    repository.UserRepository
	groups   repository.GroupRepository
	resolver *access.SpaceResolver
	builder  *access.SetBuilder
	audit    *audit.Recorder
}

func NewSpaceService(
	spaces repository.SpaceRepository,
	users repository.UserRepository,
	groups repository.GroupRepository,
	resolver *access.SpaceResolver,
	builder *access.SetBuilder,
	auditor *audit.Recorder,
) *SpaceService {
	return &SpaceService{
		spaces:   spaces,
		users:    users,
		groups:   groups,
		resolver: resolver,
		builder:  builder,
		audit:    auditor,
	}
}

type CreateSpaceInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	SpaceType   string `json:"space_type"`
}

type UpdateSpaceInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

// GrantInput targets a user or a group, never both.
type GrantInput struct {
	UserID  *uuid.UUID `json:"user_id,omitempty"`
	GroupID *uuid.UUID `json:"group_id,omitempty"`
	Role    string     `json:"role"`
}

func (s *SpaceService) Create(ctx context.Context, userID uuid.UUID, input CreateSpaceInput) (*domain.Space, error) {
	slug := slugify(input.Slug)
	if slug == "" {
		slug = slugify(input.Name)
	}

	existing, err := s.spaces.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlugTaken
	}

	spaceType := domain.SpaceType(input.SpaceType)
	if spaceType == "" {
		spaceType = domain.SpaceTypeProject
	}
	if spaceType == domain.SpaceTypePersonal {
		// Personal spaces exist only through registration.
		return nil, access.Invariantf("personal spaces cannot be created directly")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, access.ErrNotFound
	}

	var desc *string
	if input.Description != "" {
		desc = &input.Description
	}

	now := time.Now()
	space := &domain.Space{
		ID:          uuid.New(),
		Name:        input.Name,
		Slug:        slug,
		Description: desc,
		SpaceType:   spaceType,
		OwnerID:     userID,
		CreatedAt:   now,
	}
	if spaceType == domain.SpaceTypeOrganization {
		org := user.OrganizationID
		space.OrganizationID = &org
	}

	general := GeneralAreaFor(space.ID, userID, now)
	if err := s.spaces.Create(ctx, space, general); err != nil {
		return nil, fmt.Errorf("creating space: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditCreate, domain.ResourceSpace, space.ID, &space.ID)
	return space, nil
}

// GeneralAreaFor builds the one non-restrictable General Area every space is
// born with.
func GeneralAreaFor(spaceID, createdBy uuid.UUID, now time.Time) *domain.Area {
	return &domain.Area{
		ID:        uuid.New(),
		SpaceID:   spaceID,
		Name:      "General",
		IsGeneral: true,
		CreatedBy: createdBy,
		CreatedAt: now,
	}
}

// Get returns the space when the principal has any role in it. Denial and
// absence are indistinguishable to the caller.
func (s *SpaceService) Get(ctx context.Context, userID, spaceID uuid.UUID) (*domain.Space, access.SpaceDecision, error) {
	decision, err := s.resolver.Resolve(ctx, userID, spaceID)
	if err != nil {
		return nil, access.SpaceDecision{}, err
	}
	if !decision.Granted {
		return nil, access.SpaceDecision{}, access.ErrNotFound
	}

	space, err := s.spaces.GetByID(ctx, spaceID)
	if err != nil {
		return nil, access.SpaceDecision{}, err
	}
	if space == nil {
		return nil, access.SpaceDecision{}, access.ErrNotFound
	}
	return space, decision, nil
}

// List goes through the set builder, never per-row resolution.
func (s *SpaceService) List(ctx context.Context, userID uuid.UUID) ([]domain.Space, error) {
	ids, err := s.builder.SpaceIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.spaces.ListByIDs(ctx, ids)
}

func (s *SpaceService) Update(ctx context.Context, userID, spaceID uuid.UUID, input UpdateSpaceInput) (*domain.Space, error) {
	space, decision, err := s.Get(ctx, userID, spaceID)
	if err != nil {
		return nil, err
	}
	if decision.Role.Rank() < domain.RoleAdmin.Rank() {
		return nil, ErrRoleRequired
	}

	if input.Name != nil {
		space.Name = *input.Name
	}
	if input.Slug != nil {
		newSlug := slugify(*input.Slug)
		existing, err := s.spaces.GetBySlug(ctx, newSlug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != space.ID {
			return nil, ErrSlugTaken
		}
		space.Slug = newSlug
	}
	if input.Description != nil {
		space.Description = input.Description
	}

	if err := s.spaces.Update(ctx, space); err != nil {
		return nil, fmt.Errorf("updating space: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditUpdate, domain.ResourceSpace, space.ID, &space.ID)
	return space, nil
}

// Grant adds or adjusts a membership. Re-applying an identical grant is
// success, not conflict.
func (s *SpaceService) Grant(ctx context.Context, actorID, spaceID uuid.UUID, input GrantInput) error {
	space, decision, err := s.Get(ctx, actorID, spaceID)
	if err != nil {
		return err
	}
	if decision.Role.Rank() < domain.RoleAdmin.Rank() {
		return ErrRoleRequired
	}
	if space.SpaceType == domain.SpaceTypePersonal {
		return access.Invariantf("personal spaces have no memberships")
	}

	role := domain.Role(input.Role)
	if role == "" {
		role = domain.RoleMember
	}
	if err := validateSpaceRole(role); err != nil {
		return err
	}
	if err := validateGrantTarget(input); err != nil {
		return err
	}

	var existing *domain.SpaceMembership
	if input.UserID != nil {
		target, err := s.users.GetByID(ctx, *input.UserID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrUnknownTarget
		}
		existing, err = s.spaces.GetUserMembership(ctx, spaceID, *input.UserID)
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
		existing, err = s.spaces.GetGroupMembership(ctx, spaceID, *input.GroupID)
		if err != nil {
			return err
		}
	}

	if existing != nil {
		if existing.Role == role {
			// Idempotent re-grant.
			return nil
		}
		if err := s.spaces.UpdateMembershipRole(ctx, existing.ID, role); err != nil {
			return fmt.Errorf("updating membership role: %w", err)
		}
		s.audit.Record(ctx, actorID, domain.AuditGrant, domain.ResourceSpace, spaceID, &spaceID)
		return nil
	}

	m := &domain.SpaceMembership{
		ID:       uuid.New(),
		SpaceID:  spaceID,
		UserID:   input.UserID,
		GroupID:  input.GroupID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	if err := s.spaces.AddMembership(ctx, m); err != nil {
		return fmt.Errorf("adding membership: %w", err)
	}

	s.audit.Record(ctx, actorID, domain.AuditGrant, domain.ResourceSpace, spaceID, &spaceID)
	return nil
}

func (s *SpaceService) Revoke(ctx context.Context, actorID, spaceID uuid.UUID, input GrantInput) error {
	space, decision, err := s.Get(ctx, actorID, spaceID)
	if err != nil {
		return err
	}
	if decision.Role.Rank() < domain.RoleAdmin.Rank() {
		return ErrRoleRequired
	}
	if err := validateGrantTarget(input); err != nil {
		return err
	}

	var existing *domain.SpaceMembership
	if input.UserID != nil {
		if *input.UserID == space.OwnerID {
			return access.Invariantf("the space owner's access cannot be revoked")
		}
		existing, err = s.spaces.GetUserMembership(ctx, spaceID, *input.UserID)
	} else {
		existing, err = s.spaces.GetGroupMembership(ctx, spaceID, *input.GroupID)
	}
	if err != nil {
		return err
	}
	if existing == nil {
		// Revoking an absent grant is a no-op.
		return nil
	}

	if err := s.spaces.RemoveMembership(ctx, existing.ID); err != nil {
		return fmt.Errorf("removing membership: %w", err)
	}

	s.audit.Record(ctx, actorID, domain.AuditRevoke, domain.ResourceSpace, spaceID, &spaceID)
	return nil
}

func (s *SpaceService) ListMembers(ctx context.Context, userID, spaceID uuid.UUID) ([]domain.SpaceMembership, error) {
	if _, _, err := s.Get(ctx, userID, spaceID); err != nil {
		return nil, err
	}
	return s.spaces.ListMemberships(ctx, spaceID)
}

func validateSpaceRole(role domain.Role) error {
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember, domain.RoleGuest:
		return nil
	}
	return access.Invariantf("invalid space role %q", role)
}

func validateGrantTarget(input GrantInput) error {
	if (input.UserID == nil) == (input.GroupID == nil) {
		return access.Invariantf("a grant targets exactly one of user_id or group_id")
	}
	return nil
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]`)
var multiDash = regexp.MustCompile(`-{2,}`)

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}
