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

type DocumentService struct {
	documents     repository.DocumentRepository
	areas         repository.AreaRepository
	spaceResolver *access.SpaceResolver
	resolver      *access.ResourceResolver
	builder       *access.SetBuilder
	audit         *audit.Recorder
}

func NewDocumentService(
	documents repository.DocumentRepository,
	areas repository.AreaRepository,
	spaceResolver *access.SpaceResolver,
	resolver *access.ResourceResolver,
	builder *access.SetBuilder,
	auditor *audit.Recorder,
) *DocumentService {
	return &DocumentService{
		documents:     documents,
		areas:         areas,
		spaceResolver: spaceResolver,
		resolver:      resolver,
		builder:       builder,
		audit:         auditor,
	}
}

type CreateDocumentInput struct {
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
}

type UpdateDocumentInput struct {
	Title *string `json:"title"`
}

func (s *DocumentService) Create(ctx context.Context, userID, spaceID uuid.UUID, input CreateDocumentInput) (*domain.Document, error) {
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

	visibility := domain.Visibility(input.Visibility)
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}
	if err := validateDocumentVisibility(visibility); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &domain.Document{
		ID:         uuid.New(),
		SpaceID:    spaceID,
		OwnerID:    userID,
		Title:      input.Title,
		Visibility: visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditCreate, domain.ResourceDocument, doc.ID, &doc.SpaceID)
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, userID, documentID uuid.UUID) (*domain.Document, access.ResourceDecision, error) {
	decision, err := s.resolver.ResolveDocument(ctx, userID, documentID)
	if err != nil {
		return nil, access.ResourceDecision{}, err
	}
	if !decision.Granted {
		return nil, access.ResourceDecision{}, access.ErrNotFound
	}

	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, access.ResourceDecision{}, err
	}
	if doc == nil {
		return nil, access.ResourceDecision{}, access.ErrNotFound
	}
	return doc, decision, nil
}

func (s *DocumentService) List(ctx context.Context, userID uuid.UUID, scope repository.DocumentScope) ([]domain.Document, error) {
	ids, err := s.builder.DocumentIDs(ctx, userID, scope)
	if err != nil {
		return nil, err
	}
	return s.documents.ListByIDs(ctx, ids)
}

func (s *DocumentService) Update(ctx context.Context, userID, documentID uuid.UUID, input UpdateDocumentInput) (*domain.Document, error) {
	doc, decision, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if permRank(decision.Permission) < permRank(domain.PermissionEditor) {
		return nil, ErrRoleRequired
	}

	if input.Title != nil {
		doc.Title = *input.Title
	}
	doc.UpdatedAt = time.Now()

	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditUpdate, domain.ResourceDocument, doc.ID, &doc.SpaceID)
	return doc, nil
}

// ChangeVisibility relaxes or tightens the inheritance path. Only the owner
// or an admin-permission holder may change it.
func (s *DocumentService) ChangeVisibility(ctx context.Context, userID, documentID uuid.UUID, visibility domain.Visibility) (*domain.Document, error) {
	doc, decision, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if permRank(decision.Permission) < permRank(domain.PermissionAdmin) {
		return nil, ErrRoleRequired
	}
	if err := validateDocumentVisibility(visibility); err != nil {
		return nil, err
	}

	doc.Visibility = visibility
	doc.UpdatedAt = time.Now()
	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("changing document visibility: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditChangeVisibility, domain.ResourceDocument, doc.ID, &doc.SpaceID)
	return doc, nil
}

// ShareToArea links the document to an area in its own space. The share only
// determines access while visibility is "areas"; it is stored regardless.
func (s *DocumentService) ShareToArea(ctx context.Context, userID, documentID, areaID uuid.UUID) error {
	doc, decision, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if permRank(decision.Permission) < permRank(domain.PermissionAdmin) {
		return ErrRoleRequired
	}

	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return err
	}
	if area == nil {
		return access.ErrNotFound
	}
	if area.SpaceID != doc.SpaceID {
		return access.Invariantf("a document can only be shared to areas of its own space")
	}

	share := &domain.DocumentAreaShare{
		DocumentID: documentID,
		AreaID:     areaID,
		SharedBy:   userID,
		SharedAt:   time.Now(),
	}
	if err := s.documents.AddAreaShare(ctx, share); err != nil {
		return fmt.Errorf("sharing document to area: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditShare, domain.ResourceDocument, documentID, &doc.SpaceID)
	return nil
}

func (s *DocumentService) UnshareFromArea(ctx context.Context, userID, documentID, areaID uuid.UUID) error {
	doc, decision, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if permRank(decision.Permission) < permRank(domain.PermissionAdmin) {
		return ErrRoleRequired
	}

	if err := s.documents.RemoveAreaShare(ctx, documentID, areaID); err != nil {
		return fmt.Errorf("unsharing document from area: %w", err)
	}

	s.audit.Record(ctx, userID, domain.AuditUnshare, domain.ResourceDocument, documentID, &doc.SpaceID)
	return nil
}

func (s *DocumentService) ListAreaShares(ctx context.Context, userID, documentID uuid.UUID) ([]domain.DocumentAreaShare, error) {
	if _, _, err := s.Get(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.documents.ListAreaShares(ctx, documentID)
}

func validateDocumentVisibility(v domain.Visibility) error {
	switch v {
	case domain.VisibilityPrivate, domain.VisibilityAreas, domain.VisibilitySpace:
		return nil
	}
	return access.Invariantf("invalid document visibility %q", v)
}

var permissionRank = map[domain.Permission]int{
	domain.PermissionAdmin:  3,
	domain.PermissionEditor: 2,
	domain.PermissionViewer: 1,
}

func permRank(p domain.Permission) int {
	return permissionRank[p]
}
