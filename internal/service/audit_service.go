package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/access"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
)

const defaultAuditLimit = 50

// AuditService reads the audit trail. Listing a resource's events requires
// the same access the resource itself requires, so the trail can never leak
// more than the resource would.
type AuditService struct {
	events      repository.AuditRepository
	users       repository.UserRepository
	groups      repository.GroupRepository
	spaceRes    *access.SpaceResolver
	areaRes     *access.AreaResolver
	resourceRes *access.ResourceResolver
}

func NewAuditService(
	events repository.AuditRepository,
	users repository.UserRepository,
	groups repository.GroupRepository,
	spaceRes *access.SpaceResolver,
	areaRes *access.AreaResolver,
	resourceRes *access.ResourceResolver,
) *AuditService {
	return &AuditService{
		events:      events,
		users:       users,
		groups:      groups,
		spaceRes:    spaceRes,
		areaRes:     areaRes,
		resourceRes: resourceRes,
	}
}

func (s *AuditService) ListByResource(ctx context.Context, userID uuid.UUID, resourceType string, resourceID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultAuditLimit
	}

	granted, err := s.mayRead(ctx, userID, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, access.ErrNotFound
	}

	return s.events.ListByResource(ctx, resourceType, resourceID, limit)
}

func (s *AuditService) mayRead(ctx context.Context, userID uuid.UUID, resourceType string, resourceID uuid.UUID) (bool, error) {
	switch resourceType {
	case domain.ResourceSpace:
		d, err := s.spaceRes.Resolve(ctx, userID, resourceID)
		if err != nil {
			return false, err
		}
		return d.Granted, nil
	case domain.ResourceArea:
		d, err := s.areaRes.Resolve(ctx, userID, resourceID)
		if err != nil {
			return false, err
		}
		return d.Granted, nil
	case domain.ResourceDocument:
		d, err := s.resourceRes.ResolveDocument(ctx, userID, resourceID)
		if err != nil {
			return false, err
		}
		return d.Granted, nil
	case domain.ResourcePage:
		d, err := s.resourceRes.ResolvePage(ctx, userID, resourceID)
		if err != nil {
			return false, err
		}
		return d.Granted, nil
	case domain.ResourceGroup:
		group, err := s.groups.GetByID(ctx, resourceID)
		if err != nil {
			return false, err
		}
		if group == nil {
			return false, nil
		}
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return user != nil && user.OrganizationID == group.OrganizationID, nil
	}
	return false, access.Invariantf("unknown resource type %q", resourceType)
}
