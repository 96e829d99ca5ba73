package access_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mbrekalo/trellis/internal/access"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
)

// memStore is an in-memory double for every repository the access engine
// reads. The candidate queries reproduce the WHERE clauses of the postgres
// implementations, so the resolver/builder consistency tests exercise the
// same filtering the real store applies.
type memStore struct {
	users           []*domain.User
	userGroups      map[uuid.UUID][]uuid.UUID
	spaces          []*domain.Space
	spaceMembers    []*domain.SpaceMembership
	areas           []*domain.Area
	areaMembers     []*domain.AreaMembership
	documents       []*domain.Document
	docShares       []*domain.DocumentAreaShare
	pages           []*domain.Page
	pageUserShares  []*domain.PageUserShare
	pageGroupShares []*domain.PageGroupShare
}

func newMemStore() *memStore {
	return &memStore{userGroups: make(map[uuid.UUID][]uuid.UUID)}
}

// engine wires the full resolver stack over the store, the same way main
// does over postgres.
func (s *memStore) engine() (*access.SpaceResolver, *access.AreaResolver, *access.ResourceResolver, *access.SetBuilder) {
	identity := access.NewIdentityGraph(memUsers{s}, memGroups{s})
	spaces := access.NewSpaceResolver(memSpaces{s}, identity)
	areas := access.NewAreaResolver(memAreas{s}, spaces, identity)
	resources := access.NewResourceResolver(memDocuments{s}, memPages{s}, areas, spaces, identity)
	builder := access.NewSetBuilder(memSpaces{s}, memAreas{s}, memDocuments{s}, memPages{s}, spaces)
	return spaces, areas, resources, builder
}

// Fixture builders. Every entity gets a fresh id; grants take pointers so the
// user/group XOR reads the same as the domain types.

func (s *memStore) addUser(username string) uuid.UUID {
	id := uuid.New()
	s.users = append(s.users, &domain.User{ID: id, Username: username, Email: username + "@example.com"})
	return id
}

func (s *memStore) addGroup(memberIDs ...uuid.UUID) uuid.UUID {
	id := uuid.New()
	for _, userID := range memberIDs {
		s.userGroups[userID] = append(s.userGroups[userID], id)
	}
	return id
}

func (s *memStore) addSpace(ownerID uuid.UUID, spaceType domain.SpaceType) (spaceID, generalID uuid.UUID) {
	spaceID = uuid.New()
	s.spaces = append(s.spaces, &domain.Space{
		ID:        spaceID,
		Name:      "space-" + spaceID.String()[:8],
		Slug:      "space-" + spaceID.String()[:8],
		SpaceType: spaceType,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	})
	generalID = uuid.New()
	s.areas = append(s.areas, &domain.Area{
		ID:        generalID,
		SpaceID:   spaceID,
		Name:      "General",
		IsGeneral: true,
		CreatedBy: ownerID,
		CreatedAt: time.Now(),
	})
	return spaceID, generalID
}

func (s *memStore) addArea(spaceID, createdBy uuid.UUID, restricted bool) uuid.UUID {
	id := uuid.New()
	s.areas = append(s.areas, &domain.Area{
		ID:           id,
		SpaceID:      spaceID,
		Name:         "area-" + id.String()[:8],
		IsRestricted: restricted,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now(),
	})
	return id
}

func (s *memStore) grantSpace(spaceID uuid.UUID, userID, groupID *uuid.UUID, role domain.Role) {
	s.spaceMembers = append(s.spaceMembers, &domain.SpaceMembership{
		ID: uuid.New(), SpaceID: spaceID, UserID: userID, GroupID: groupID, Role: role, JoinedAt: time.Now(),
	})
}

func (s *memStore) grantArea(areaID uuid.UUID, userID, groupID *uuid.UUID, role domain.Role) {
	s.areaMembers = append(s.areaMembers, &domain.AreaMembership{
		ID: uuid.New(), AreaID: areaID, UserID: userID, GroupID: groupID, Role: role, JoinedAt: time.Now(),
	})
}

func (s *memStore) addDocument(spaceID, ownerID uuid.UUID, visibility domain.Visibility) uuid.UUID {
	id := uuid.New()
	s.documents = append(s.documents, &domain.Document{
		ID: id, SpaceID: spaceID, OwnerID: ownerID, Title: "doc", Visibility: visibility, CreatedAt: time.Now(),
	})
	return id
}

func (s *memStore) shareDocument(documentID, areaID, sharedBy uuid.UUID) {
	s.docShares = append(s.docShares, &domain.DocumentAreaShare{
		DocumentID: documentID, AreaID: areaID, SharedBy: sharedBy, SharedAt: time.Now(),
	})
}

func (s *memStore) addPage(areaID, ownerID uuid.UUID, visibility domain.Visibility) uuid.UUID {
	id := uuid.New()
	s.pages = append(s.pages, &domain.Page{
		ID: id, AreaID: areaID, OwnerID: ownerID, Title: "page", Visibility: visibility, CreatedAt: time.Now(),
	})
	return id
}

func (s *memStore) sharePageUser(pageID, userID uuid.UUID, perm domain.Permission) {
	s.pageUserShares = append(s.pageUserShares, &domain.PageUserShare{
		PageID: pageID, UserID: userID, Permission: perm, SharedAt: time.Now(),
	})
}

func (s *memStore) sharePageGroup(pageID, groupID uuid.UUID, perm domain.Permission) {
	s.pageGroupShares = append(s.pageGroupShares, &domain.PageGroupShare{
		PageID: pageID, GroupID: groupID, Permission: perm, SharedAt: time.Now(),
	})
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *memStore) spaceByID(id uuid.UUID) *domain.Space {
	for _, space := range s.spaces {
		if space.ID == id && space.DeletedAt == nil {
			return space
		}
	}
	return nil
}

func (s *memStore) areaByID(id uuid.UUID) *domain.Area {
	for _, area := range s.areas {
		if area.ID == id && area.DeletedAt == nil {
			return area
		}
	}
	return nil
}

// --- UserRepository / GroupLister ---

type memUsers struct{ s *memStore }

func (m memUsers) Create(ctx context.Context, user *domain.User) error {
	m.s.users = append(m.s.users, user)
	return nil
}

func (m memUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range m.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m memUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range m.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

type memGroups struct{ s *memStore }

func (m memGroups) GroupIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return m.s.userGroups[userID], nil
}

// --- SpaceRepository ---

type memSpaces struct{ s *memStore }

func (m memSpaces) Create(ctx context.Context, space *domain.Space, general *domain.Area) error {
	m.s.spaces = append(m.s.spaces, space)
	m.s.areas = append(m.s.areas, general)
	return nil
}

func (m memSpaces) GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error) {
	return m.s.spaceByID(id), nil
}

func (m memSpaces) GetBySlug(ctx context.Context, slug string) (*domain.Space, error) {
	for _, space := range m.s.spaces {
		if space.Slug == slug && space.DeletedAt == nil {
			return space, nil
		}
	}
	return nil, nil
}

func (m memSpaces) Update(ctx context.Context, space *domain.Space) error { return nil }

func (m memSpaces) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Space, error) {
	var out []domain.Space
	for _, space := range m.s.spaces {
		if contains(ids, space.ID) && space.DeletedAt == nil {
			out = append(out, *space)
		}
	}
	return out, nil
}

func (m memSpaces) GetUserMembership(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMembership, error) {
	for _, sm := range m.s.spaceMembers {
		if sm.SpaceID == spaceID && sm.UserID != nil && *sm.UserID == userID {
			return sm, nil
		}
	}
	return nil, nil
}

func (m memSpaces) GetGroupMembership(ctx context.Context, spaceID, groupID uuid.UUID) (*domain.SpaceMembership, error) {
	for _, sm := range m.s.spaceMembers {
		if sm.SpaceID == spaceID && sm.GroupID != nil && *sm.GroupID == groupID {
			return sm, nil
		}
	}
	return nil, nil
}

func (m memSpaces) GroupMemberships(ctx context.Context, spaceID uuid.UUID, groupIDs []uuid.UUID) ([]domain.SpaceMembership, error) {
	var out []domain.SpaceMembership
	for _, sm := range m.s.spaceMembers {
		if sm.SpaceID == spaceID && sm.GroupID != nil && contains(groupIDs, *sm.GroupID) {
			out = append(out, *sm)
		}
	}
	return out, nil
}

func (m memSpaces) AddMembership(ctx context.Context, sm *domain.SpaceMembership) error {
	m.s.spaceMembers = append(m.s.spaceMembers, sm)
	return nil
}

func (m memSpaces) UpdateMembershipRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	for _, sm := range m.s.spaceMembers {
		if sm.ID == id {
			sm.Role = role
		}
	}
	return nil
}

func (m memSpaces) RemoveMembership(ctx context.Context, id uuid.UUID) error {
	for i, sm := range m.s.spaceMembers {
		if sm.ID == id {
			m.s.spaceMembers = append(m.s.spaceMembers[:i], m.s.spaceMembers[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m memSpaces) ListMemberships(ctx context.Context, spaceID uuid.UUID) ([]domain.SpaceMembership, error) {
	var out []domain.SpaceMembership
	for _, sm := range m.s.spaceMembers {
		if sm.SpaceID == spaceID {
			out = append(out, *sm)
		}
	}
	return out, nil
}

func (m memSpaces) OwnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, space := range m.s.spaces {
		if space.OwnerID == userID && space.DeletedAt == nil {
			out = append(out, space.ID)
		}
	}
	return out, nil
}

func (m memSpaces) UserMembershipRoles(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]domain.Role, error) {
	roles := make(map[uuid.UUID]domain.Role)
	for _, sm := range m.s.spaceMembers {
		if sm.UserID != nil && *sm.UserID == userID && m.s.spaceByID(sm.SpaceID) != nil {
			roles[sm.SpaceID] = sm.Role
		}
	}
	return roles, nil
}

func (m memSpaces) GroupMembershipRoles(ctx context.Context, groupIDs []uuid.UUID) (map[uuid.UUID]domain.Role, error) {
	roles := make(map[uuid.UUID]domain.Role)
	for _, sm := range m.s.spaceMembers {
		if sm.GroupID == nil || !contains(groupIDs, *sm.GroupID) || m.s.spaceByID(sm.SpaceID) == nil {
			continue
		}
		if existing, ok := roles[sm.SpaceID]; ok {
			roles[sm.SpaceID] = domain.MaxRole(existing, sm.Role)
		} else {
			roles[sm.SpaceID] = sm.Role
		}
	}
	return roles, nil
}

// --- AreaRepository ---

type memAreas struct{ s *memStore }

func (m memAreas) Create(ctx context.Context, area *domain.Area) error {
	m.s.areas = append(m.s.areas, area)
	return nil
}

func (m memAreas) GetByID(ctx context.Context, id uuid.UUID) (*domain.Area, error) {
	return m.s.areaByID(id), nil
}

func (m memAreas) GetGeneral(ctx context.Context, spaceID uuid.UUID) (*domain.Area, error) {
	for _, area := range m.s.areas {
		if area.SpaceID == spaceID && area.IsGeneral && area.DeletedAt == nil {
			return area, nil
		}
	}
	return nil, nil
}

func (m memAreas) Update(ctx context.Context, area *domain.Area) error { return nil }

func (m memAreas) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Area, error) {
	var out []domain.Area
	for _, area := range m.s.areas {
		if contains(ids, area.ID) && area.DeletedAt == nil {
			out = append(out, *area)
		}
	}
	return out, nil
}

func (m memAreas) GetUserMembership(ctx context.Context, areaID, userID uuid.UUID) (*domain.AreaMembership, error) {
	for _, am := range m.s.areaMembers {
		if am.AreaID == areaID && am.UserID != nil && *am.UserID == userID {
			return am, nil
		}
	}
	return nil, nil
}

func (m memAreas) GetGroupMembership(ctx context.Context, areaID, groupID uuid.UUID) (*domain.AreaMembership, error) {
	for _, am := range m.s.areaMembers {
		if am.AreaID == areaID && am.GroupID != nil && *am.GroupID == groupID {
			return am, nil
		}
	}
	return nil, nil
}

func (m memAreas) GroupMemberships(ctx context.Context, areaID uuid.UUID, groupIDs []uuid.UUID) ([]domain.AreaMembership, error) {
	var out []domain.AreaMembership
	for _, am := range m.s.areaMembers {
		if am.AreaID == areaID && am.GroupID != nil && contains(groupIDs, *am.GroupID) {
			out = append(out, *am)
		}
	}
	return out, nil
}

func (m memAreas) AddMembership(ctx context.Context, am *domain.AreaMembership) error {
	m.s.areaMembers = append(m.s.areaMembers, am)
	return nil
}

func (m memAreas) UpdateMembershipRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	for _, am := range m.s.areaMembers {
		if am.ID == id {
			am.Role = role
		}
	}
	return nil
}

func (m memAreas) RemoveMembership(ctx context.Context, id uuid.UUID) error {
	for i, am := range m.s.areaMembers {
		if am.ID == id {
			m.s.areaMembers = append(m.s.areaMembers[:i], m.s.areaMembers[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m memAreas) ListMemberships(ctx context.Context, areaID uuid.UUID) ([]domain.AreaMembership, error) {
	var out []domain.AreaMembership
	for _, am := range m.s.areaMembers {
		if am.AreaID == areaID {
			out = append(out, *am)
		}
	}
	return out, nil
}

func (m memAreas) GeneralIDsBySpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, area := range m.s.areas {
		if area.IsGeneral && area.DeletedAt == nil && contains(spaceIDs, area.SpaceID) {
			out = append(out, area.ID)
		}
	}
	return out, nil
}

func (m memAreas) CreatedIDs(ctx context.Context, userID uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, area := range m.s.areas {
		if area.CreatedBy == userID && !area.IsGeneral && area.DeletedAt == nil && areaInScope(area, scope) {
			out = append(out, area.ID)
		}
	}
	return out, nil
}

func (m memAreas) UserMembershipIDs(ctx context.Context, userID uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, am := range m.s.areaMembers {
		if am.UserID == nil || *am.UserID != userID {
			continue
		}
		area := m.s.areaByID(am.AreaID)
		if area != nil && !area.IsGeneral && areaInScope(area, scope) {
			out = append(out, area.ID)
		}
	}
	return out, nil
}

func (m memAreas) GroupMembershipIDs(ctx context.Context, groupIDs []uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, am := range m.s.areaMembers {
		if am.GroupID == nil || !contains(groupIDs, *am.GroupID) {
			continue
		}
		area := m.s.areaByID(am.AreaID)
		if area == nil || area.IsGeneral || !areaInScope(area, scope) {
			continue
		}
		if _, ok := seen[area.ID]; ok {
			continue
		}
		seen[area.ID] = struct{}{}
		out = append(out, area.ID)
	}
	return out, nil
}

func (m memAreas) OpenIDsBySpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, area := range m.s.areas {
		if !area.IsRestricted && !area.IsGeneral && area.DeletedAt == nil && contains(spaceIDs, area.SpaceID) {
			out = append(out, area.ID)
		}
	}
	return out, nil
}

func areaInScope(area *domain.Area, scope repository.AreaScope) bool {
	return scope.SpaceID == nil || area.SpaceID == *scope.SpaceID
}

// --- DocumentRepository ---

type memDocuments struct{ s *memStore }

func (m memDocuments) Create(ctx context.Context, doc *domain.Document) error {
	m.s.documents = append(m.s.documents, doc)
	return nil
}

func (m memDocuments) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	for _, doc := range m.s.documents {
		if doc.ID == id && doc.DeletedAt == nil {
			return doc, nil
		}
	}
	return nil, nil
}

func (m memDocuments) Update(ctx context.Context, doc *domain.Document) error { return nil }

func (m memDocuments) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range m.s.documents {
		if contains(ids, doc.ID) && doc.DeletedAt == nil {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (m memDocuments) AddAreaShare(ctx context.Context, share *domain.DocumentAreaShare) error {
	m.s.docShares = append(m.s.docShares, share)
	return nil
}

func (m memDocuments) RemoveAreaShare(ctx context.Context, documentID, areaID uuid.UUID) error {
	for i, share := range m.s.docShares {
		if share.DocumentID == documentID && share.AreaID == areaID {
			m.s.docShares = append(m.s.docShares[:i], m.s.docShares[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m memDocuments) SharedAreaIDs(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, share := range m.s.docShares {
		if share.DocumentID == documentID {
			out = append(out, share.AreaID)
		}
	}
	return out, nil
}

func (m memDocuments) ListAreaShares(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentAreaShare, error) {
	var out []domain.DocumentAreaShare
	for _, share := range m.s.docShares {
		if share.DocumentID == documentID {
			out = append(out, *share)
		}
	}
	return out, nil
}

func (m memDocuments) OwnedIDs(ctx context.Context, userID uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, doc := range m.s.documents {
		if doc.OwnerID == userID && doc.DeletedAt == nil && m.docInScope(doc, scope) {
			out = append(out, doc.ID)
		}
	}
	return out, nil
}

func (m memDocuments) SpaceVisibleIDs(ctx context.Context, spaceIDs []uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, doc := range m.s.documents {
		if doc.Visibility == domain.VisibilitySpace && doc.DeletedAt == nil &&
			contains(spaceIDs, doc.SpaceID) && m.docInScope(doc, scope) {
			out = append(out, doc.ID)
		}
	}
	return out, nil
}

func (m memDocuments) AreaSharedIDs(ctx context.Context, areaIDs []uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, share := range m.s.docShares {
		if !contains(areaIDs, share.AreaID) {
			continue
		}
		doc, _ := m.GetByID(ctx, share.DocumentID)
		if doc == nil || doc.Visibility != domain.VisibilityAreas || !m.docInScope(doc, scope) {
			continue
		}
		if _, ok := seen[doc.ID]; ok {
			continue
		}
		seen[doc.ID] = struct{}{}
		out = append(out, doc.ID)
	}
	return out, nil
}

func (m memDocuments) docInScope(doc *domain.Document, scope repository.DocumentScope) bool {
	if scope.SpaceID != nil && doc.SpaceID != *scope.SpaceID {
		return false
	}
	if scope.AreaID != nil {
		for _, share := range m.s.docShares {
			if share.DocumentID == doc.ID && share.AreaID == *scope.AreaID {
				return true
			}
		}
		return false
	}
	return true
}

// --- PageRepository ---

type memPages struct{ s *memStore }

func (m memPages) Create(ctx context.Context, page *domain.Page) error {
	m.s.pages = append(m.s.pages, page)
	return nil
}

func (m memPages) GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error) {
	for _, page := range m.s.pages {
		if page.ID == id && page.DeletedAt == nil {
			return page, nil
		}
	}
	return nil, nil
}

func (m memPages) Update(ctx context.Context, page *domain.Page) error { return nil }

func (m memPages) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Page, error) {
	var out []domain.Page
	for _, page := range m.s.pages {
		if contains(ids, page.ID) && page.DeletedAt == nil {
			out = append(out, *page)
		}
	}
	return out, nil
}

func (m memPages) GetUserShare(ctx context.Context, pageID, userID uuid.UUID) (*domain.PageUserShare, error) {
	for _, share := range m.s.pageUserShares {
		if share.PageID == pageID && share.UserID == userID {
			return share, nil
		}
	}
	return nil, nil
}

func (m memPages) GroupShares(ctx context.Context, pageID uuid.UUID, groupIDs []uuid.UUID) ([]domain.PageGroupShare, error) {
	var out []domain.PageGroupShare
	for _, share := range m.s.pageGroupShares {
		if share.PageID == pageID && contains(groupIDs, share.GroupID) {
			out = append(out, *share)
		}
	}
	return out, nil
}

func (m memPages) AddUserShare(ctx context.Context, share *domain.PageUserShare) error {
	m.s.pageUserShares = append(m.s.pageUserShares, share)
	return nil
}

func (m memPages) RemoveUserShare(ctx context.Context, pageID, userID uuid.UUID) error {
	for i, share := range m.s.pageUserShares {
		if share.PageID == pageID && share.UserID == userID {
			m.s.pageUserShares = append(m.s.pageUserShares[:i], m.s.pageUserShares[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m memPages) AddGroupShare(ctx context.Context, share *domain.PageGroupShare) error {
	m.s.pageGroupShares = append(m.s.pageGroupShares, share)
	return nil
}

func (m memPages) RemoveGroupShare(ctx context.Context, pageID, groupID uuid.UUID) error {
	for i, share := range m.s.pageGroupShares {
		if share.PageID == pageID && share.GroupID == groupID {
			m.s.pageGroupShares = append(m.s.pageGroupShares[:i], m.s.pageGroupShares[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m memPages) ListUserShares(ctx context.Context, pageID uuid.UUID) ([]domain.PageUserShare, error) {
	var out []domain.PageUserShare
	for _, share := range m.s.pageUserShares {
		if share.PageID == pageID {
			out = append(out, *share)
		}
	}
	return out, nil
}

func (m memPages) ListGroupShares(ctx context.Context, pageID uuid.UUID) ([]domain.PageGroupShare, error) {
	var out []domain.PageGroupShare
	for _, share := range m.s.pageGroupShares {
		if share.PageID == pageID {
			out = append(out, *share)
		}
	}
	return out, nil
}

func (m memPages) OwnedIDs(ctx context.Context, userID uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, page := range m.s.pages {
		if page.OwnerID == userID && page.DeletedAt == nil && m.pageInScope(page, scope) {
			out = append(out, page.ID)
		}
	}
	return out, nil
}

func (m memPages) UserSharedIDs(ctx context.Context, userID uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, share := range m.s.pageUserShares {
		if share.UserID != userID {
			continue
		}
		page, _ := m.GetByID(ctx, share.PageID)
		if page != nil && page.Visibility == domain.VisibilityPrivate && m.pageInScope(page, scope) {
			out = append(out, page.ID)
		}
	}
	return out, nil
}

func (m memPages) GroupSharedIDs(ctx context.Context, groupIDs []uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, share := range m.s.pageGroupShares {
		if !contains(groupIDs, share.GroupID) {
			continue
		}
		page, _ := m.GetByID(ctx, share.PageID)
		if page == nil || page.Visibility != domain.VisibilityPrivate || !m.pageInScope(page, scope) {
			continue
		}
		if _, ok := seen[page.ID]; ok {
			continue
		}
		seen[page.ID] = struct{}{}
		out = append(out, page.ID)
	}
	return out, nil
}

func (m memPages) AreaVisibleIDs(ctx context.Context, areaIDs []uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, page := range m.s.pages {
		if page.Visibility == domain.VisibilityArea && page.DeletedAt == nil &&
			contains(areaIDs, page.AreaID) && m.pageInScope(page, scope) {
			out = append(out, page.ID)
		}
	}
	return out, nil
}

func (m memPages) SpaceVisibleIDs(ctx context.Context, spaceIDs []uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, page := range m.s.pages {
		if page.Visibility != domain.VisibilitySpace || page.DeletedAt != nil {
			continue
		}
		area := m.s.areaByID(page.AreaID)
		if area != nil && contains(spaceIDs, area.SpaceID) && m.pageInScope(page, scope) {
			out = append(out, page.ID)
		}
	}
	return out, nil
}

func (m memPages) pageInScope(page *domain.Page, scope repository.PageScope) bool {
	if scope.AreaID != nil && page.AreaID != *scope.AreaID {
		return false
	}
	if scope.SpaceID != nil {
		area := m.s.areaByID(page.AreaID)
		if area == nil || area.SpaceID != *scope.SpaceID {
			return false
		}
	}
	return true
}
