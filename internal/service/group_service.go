package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/access"
	"github.com/mbrekalo/trellis/internal/audit"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
	"github.com/mbrekalo/trellis/pkg/logger"
)

var ErrNotGroupLead = errors.New("group lead role required")

// GroupInvalidator is implemented by the redis identity cache. Every
// membership mutation invalidates the touched user before returning, so a
// stale group set can never outlive the request that changed it.
type GroupInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type GroupService struct {
	groups      repository.GroupRepository
	users       repository.UserRepository
	invalidator GroupInvalidator
	audit       *audit.Recorder
}

func NewGroupService(
	groups repository.GroupRepository,
	users repository.UserRepository,
	invalidator GroupInvalidator,
	auditor *audit.Recorder,
) *GroupService {
	return &GroupService{groups: groups, users: users, invalidator: invalidator, audit: auditor}
}

type CreateGroupInput struct {
	Name string `json:"name"`
}

type GroupMemberInput struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// Create makes a group in the creator's organization with the creator as its
// first lead.
func (s *GroupService) Create(ctx context.Context, userID uuid.UUID, input CreateGroupInput) (*domain.Group, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, access.ErrNotFound
	}

	group := &domain.Group{
		ID:             uuid.New(),
		OrganizationID: user.OrganizationID,
		Name:           input.Name,
		CreatedBy:      userID,
		CreatedAt:      time.Now(),
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	lead := &domain.GroupMember{
		GroupID:  group.ID,
		UserID:   userID,
		Role:     domain.GroupRoleLead,
		JoinedAt: time.Now(),
	}
	if err := s.groups.AddMember(ctx, lead); err != nil {
		return nil, fmt.Errorf("adding group creator as lead: %w", err)
	}
	s.invalidate(ctx, userID)

	s.audit.Record(ctx, userID, domain.AuditCreate, domain.ResourceGroup, group.ID, nil)
	return group, nil
}

func (s *GroupService) Get(ctx context.Context, userID, groupID uuid.UUID) (*domain.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, access.ErrNotFound
	}

	// Groups are visible to their own organization only.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.OrganizationID != group.OrganizationID {
		return nil, access.ErrNotFound
	}
	return group, nil
}

func (s *GroupService) AddMember(ctx context.Context, actorID, groupID uuid.UUID, input GroupMemberInput) error {
	if err := s.requireLead(ctx, actorID, groupID); err != nil {
		return err
	}

	role := domain.GroupRole(input.Role)
	if role == "" {
		role = domain.GroupRoleMember
	}
	if role != domain.GroupRoleLead && role != domain.GroupRoleMember {
		return access.Invariantf("invalid group role %q", input.Role)
	}

	target, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUnknownTarget
	}

	existing, err := s.groups.GetMember(ctx, groupID, input.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		// Re-adding with the same role is a no-op success.
		if existing.Role == role {
			return nil
		}
		if err := s.groups.RemoveMember(ctx, groupID, input.UserID); err != nil {
			return fmt.Errorf("replacing group member role: %w", err)
		}
	}

	member := &domain.GroupMember{
		GroupID:  groupID,
		UserID:   input.UserID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	if err := s.groups.AddMember(ctx, member); err != nil {
		return fmt.Errorf("adding group member: %w", err)
	}
	s.invalidate(ctx, input.UserID)

	s.audit.Record(ctx, actorID, domain.AuditGrant, domain.ResourceGroup, groupID, nil)
	return nil
}

func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, userID uuid.UUID) error {
	if err := s.requireLead(ctx, actorID, groupID); err != nil {
		return err
	}

	existing, err := s.groups.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("removing group member: %w", err)
	}
	s.invalidate(ctx, userID)

	s.audit.Record(ctx, actorID, domain.AuditRevoke, domain.ResourceGroup, groupID, nil)
	return nil
}

func (s *GroupService) ListMembers(ctx context.Context, userID, groupID uuid.UUID) ([]domain.GroupMember, error) {
	if _, err := s.Get(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.groups.ListMembers(ctx, groupID)
}

func (s *GroupService) requireLead(ctx context.Context, actorID, groupID uuid.UUID) error {
	if _, err := s.Get(ctx, actorID, groupID); err != nil {
		return err
	}
	member, err := s.groups.GetMember(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if member == nil || member.Role != domain.GroupRoleLead {
		return ErrNotGroupLead
	}
	return nil
}

func (s *GroupService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, userID); err != nil {
		logger.Log.Warn().Err(err).Str("user_id", userID.String()).Msg("identity cache invalidation failed")
	}
}
