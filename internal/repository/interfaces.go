package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
)

// Scope filters narrow bulk candidate queries to a container. A nil field
// means "no filter".

type AreaScope struct {
	SpaceID *uuid.UUID
}

type DocumentScope struct {
	SpaceID *uuid.UUID
	AreaID  *uuid.UUID // documents shared to this area
}

type PageScope struct {
	SpaceID *uuid.UUID
	AreaID  *uuid.UUID
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	GetByName(ctx context.Context, name string) (*domain.Organization, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// GroupLister is the read side of group membership the access engine depends
// on. The redis identity cache implements it as a read-through over the
// postgres repository.
type GroupLister interface {
	GroupIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type GroupRepository interface {
	GroupLister
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	AddMember(ctx context.Context, member *domain.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	GetMember(ctx context.Context, groupID, userID uuid.UUID) (*domain.GroupMember, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]domain.GroupMember, error)
}

type SpaceRepository interface {
	// Create inserts the space and its General Area in one transaction: a
	// space without a General Area must never be observable.
	Create(ctx context.Context, space *domain.Space, general *domain.Area) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Space, error)
	Update(ctx context.Context, space *domain.Space) error
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Space, error)

	GetUserMembership(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMembership, error)
	GetGroupMembership(ctx context.Context, spaceID, groupID uuid.UUID) (*domain.SpaceMembership, error)
	GroupMemberships(ctx context.Context, spaceID uuid.UUID, groupIDs []uuid.UUID) ([]domain.SpaceMembership, error)
	AddMembership(ctx context.Context, m *domain.SpaceMembership) error
	UpdateMembershipRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	RemoveMembership(ctx context.Context, id uuid.UUID) error
	ListMemberships(ctx context.Context, spaceID uuid.UUID) ([]domain.SpaceMembership, error)

	// Bulk candidate queries, one per grant pathway.
	OwnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	UserMembershipRoles(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]domain.Role, error)
	GroupMembershipRoles(ctx context.Context, groupIDs []uuid.UUID) (map[uuid.UUID]domain.Role, error)
}

type AreaRepository interface {
	Create(ctx context.Context, area *domain.Area) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Area, error)
	GetGeneral(ctx context.Context, spaceID uuid.UUID) (*domain.Area, error)
	Update(ctx context.Context, area *domain.Area) error
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Area, error)

	GetUserMembership(ctx context.Context, areaID, userID uuid.UUID) (*domain.AreaMembership, error)
	GetGroupMembership(ctx context.Context, areaID, groupID uuid.UUID) (*domain.AreaMembership, error)
	GroupMemberships(ctx context.Context, areaID uuid.UUID, groupIDs []uuid.UUID) ([]domain.AreaMembership, error)
	AddMembership(ctx context.Context, m *domain.AreaMembership) error
	UpdateMembershipRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	RemoveMembership(ctx context.Context, id uuid.UUID) error
	ListMemberships(ctx context.Context, areaID uuid.UUID) ([]domain.AreaMembership, error)

	// Bulk candidate queries, one per grant pathway of the area resolver.
	GeneralIDsBySpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error)
	CreatedIDs(ctx context.Context, userID uuid.UUID, scope AreaScope) ([]uuid.UUID, error)
	UserMembershipIDs(ctx context.Context, userID uuid.UUID, scope AreaScope) ([]uuid.UUID, error)
	GroupMembershipIDs(ctx context.Context, groupIDs []uuid.UUID, scope AreaScope) ([]uuid.UUID, error)
	OpenIDsBySpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) error
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Document, error)

	AddAreaShare(ctx context.Context, share *domain.DocumentAreaShare) error
	RemoveAreaShare(ctx context.Context, documentID, areaID uuid.UUID) error
	SharedAreaIDs(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error)
	ListAreaShares(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentAreaShare, error)

	// Bulk candidate queries, one per grant pathway of the document resolver.
	OwnedIDs(ctx context.Context, userID uuid.UUID, scope DocumentScope) ([]uuid.UUID, error)
	SpaceVisibleIDs(ctx context.Context, spaceIDs []uuid.UUID, scope DocumentScope) ([]uuid.UUID, error)
	AreaSharedIDs(ctx context.Context, areaIDs []uuid.UUID, scope DocumentScope) ([]uuid.UUID, error)
}

type PageRepository interface {
	Create(ctx context.Context, page *domain.Page) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error)
	Update(ctx context.Context, page *domain.Page) error
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Page, error)

	GetUserShare(ctx context.Context, pageID, userID uuid.UUID) (*domain.PageUserShare, error)
	GroupShares(ctx context.Context, pageID uuid.UUID, groupIDs []uuid.UUID) ([]domain.PageGroupShare, error)
	AddUserShare(ctx context.Context, share *domain.PageUserShare) error
	RemoveUserShare(ctx context.Context, pageID, userID uuid.UUID) error
	AddGroupShare(ctx context.Context, share *domain.PageGroupShare) error
	RemoveGroupShare(ctx context.Context, pageID, groupID uuid.UUID) error
	ListUserShares(ctx context.Context, pageID uuid.UUID) ([]domain.PageUserShare, error)
	ListGroupShares(ctx context.Context, pageID uuid.UUID) ([]domain.PageGroupShare, error)

	// Bulk candidate queries, one per grant pathway of the page resolver.
	OwnedIDs(ctx context.Context, userID uuid.UUID, scope PageScope) ([]uuid.UUID, error)
	UserSharedIDs(ctx context.Context, userID uuid.UUID, scope PageScope) ([]uuid.UUID, error)
	GroupSharedIDs(ctx context.Context, groupIDs []uuid.UUID, scope PageScope) ([]uuid.UUID, error)
	AreaVisibleIDs(ctx context.Context, areaIDs []uuid.UUID, scope PageScope) ([]uuid.UUID, error)
	SpaceVisibleIDs(ctx context.Context, spaceIDs []uuid.UUID, scope PageScope) ([]uuid.UUID, error)
}

type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID, limit int) ([]domain.AuditEvent, error)
}

// CascadeOps is the set of cleanup statements a cascade executes. All methods
// run on the transaction owned by the enclosing InTx call.
type CascadeOps interface {
	AreaIDsBySpace(ctx context.Context, spaceID uuid.UUID) ([]uuid.UUID, error)
	SoftDeleteAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error)
	SoftDeleteTasksBySpace(ctx context.Context, spaceID uuid.UUID) (int, error)
	SoftDeleteConversationsBySpace(ctx context.Context, spaceID uuid.UUID) (int, error)
	SoftDeleteDocumentsBySpace(ctx context.Context, spaceID uuid.UUID) (int, error)
	SoftDeletePagesByAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error)
	DeleteSpaceMemberships(ctx context.Context, spaceID uuid.UUID) (int, error)
	DeleteAreaMembershipsByAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error)
	DeleteDocumentSharesBySpace(ctx context.Context, spaceID uuid.UUID) (int, error)
	DeletePageSharesByAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error)
	SoftDeleteSpace(ctx context.Context, spaceID uuid.UUID) error

	ClearTaskArea(ctx context.Context, areaID uuid.UUID) (int, error)
	ClearConversationArea(ctx context.Context, areaID uuid.UUID) (int, error)
	DeleteDocumentSharesByArea(ctx context.Context, areaID uuid.UUID) (int, error)
	SoftDeleteArea(ctx context.Context, areaID uuid.UUID) error

	DeleteDocumentShares(ctx context.Context, documentID uuid.UUID) (int, error)
	DeleteTaskDocumentLinks(ctx context.Context, documentID uuid.UUID) (int, error)
	SoftDeleteDocument(ctx context.Context, documentID uuid.UUID) error

	DeletePageShares(ctx context.Context, pageID uuid.UUID) (int, error)
	DeletePageConversationLinks(ctx context.Context, pageID uuid.UUID) (int, error)
	SoftDeletePage(ctx context.Context, pageID uuid.UUID) error
}

// CascadeStore runs a cascade as one atomic unit: fn either fully commits or
// the transaction rolls back with no partial cleanup visible.
type CascadeStore interface {
	InTx(ctx context.Context, fn func(ops CascadeOps) error) error
}
