package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mbrekalo/trellis/internal/access"
	"github.com/mbrekalo/trellis/internal/audit"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
	"github.com/mbrekalo/trellis/internal/service"
)

// fakeStore is an in-memory double for the whole repository layer, including
// the cascade transaction. InTx snapshots the store and restores it when the
// callback fails, which is what the atomicity tests lean on.
type fakeStore struct {
	orgs            []*domain.Organization
	users           []*domain.User
	groups          []*domain.Group
	groupMembers    []*domain.GroupMember
	spaces          []*domain.Space
	spaceMembers    []*domain.SpaceMembership
	areas           []*domain.Area
	areaMembers     []*domain.AreaMembership
	documents       []*domain.Document
	docShares       []*domain.DocumentAreaShare
	pages           []*domain.Page
	pageUserShares  []*domain.PageUserShare
	pageGroupShares []*domain.PageGroupShare
	tasks           []*domain.Task
	conversations   []*domain.Conversation
	auditEvents     []*domain.AuditEvent

	failCascadeOn string // CascadeOps method name that should error
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

// harness wires the service layer over the fake store the way main wires it
// over postgres.
type harness struct {
	store     *fakeStore
	spaces    *service.SpaceService
	areas     *service.AreaService
	documents *service.DocumentService
	pages     *service.PageService
	cascade   *service.CascadeService
	groups    *service.GroupService
	auditLog  *service.AuditService
}

func newHarness(store *fakeStore) *harness {
	identity := access.NewIdentityGraph(fakeUsers{store}, fakeGroups{store})
	spaceRes := access.NewSpaceResolver(fakeSpaces{store}, identity)
	areaRes := access.NewAreaResolver(fakeAreas{store}, spaceRes, identity)
	resourceRes := access.NewResourceResolver(fakeDocuments{store}, fakePages{store}, areaRes, spaceRes, identity)
	builder := access.NewSetBuilder(fakeSpaces{store}, fakeAreas{store}, fakeDocuments{store}, fakePages{store}, spaceRes)
	recorder := audit.NewRecorder(fakeAudit{store}, nil, zerolog.Nop())

	return &harness{
		store: store,
		spaces: service.NewSpaceService(
			fakeSpaces{store}, fakeUsers{store}, fakeGroups{store}, spaceRes, builder, recorder),
		areas: service.NewAreaService(
			fakeAreas{store}, fakeUsers{store}, fakeGroups{store}, spaceRes, areaRes, builder, recorder),
		documents: service.NewDocumentService(
			fakeDocuments{store}, fakeAreas{store}, spaceRes, resourceRes, builder, recorder),
		pages: service.NewPageService(
			fakePages{store}, fakeAreas{store}, fakeUsers{store}, fakeGroups{store}, areaRes, resourceRes, builder, recorder),
		auditLog: service.NewAuditService(
			fakeAudit{store}, fakeUsers{store}, fakeGroups{store}, spaceRes, areaRes, resourceRes),
		cascade: service.NewCascadeService(
			fakeCascade{store}, fakeSpaces{store}, fakeAreas{store}, fakeDocuments{store}, fakePages{store},
			spaceRes, areaRes, resourceRes, recorder),
		groups: service.NewGroupService(
			fakeGroups{store}, fakeUsers{store}, nil, recorder),
	}
}

// Fixture builders.

func (s *fakeStore) addUser(orgID uuid.UUID, username string) uuid.UUID {
	id := uuid.New()
	s.users = append(s.users, &domain.User{
		ID: id, OrganizationID: orgID, Username: username, Email: username + "@example.com",
	})
	return id
}

func (s *fakeStore) addGroup(orgID, createdBy uuid.UUID, memberIDs ...uuid.UUID) uuid.UUID {
	id := uuid.New()
	s.groups = append(s.groups, &domain.Group{
		ID: id, OrganizationID: orgID, Name: "group-" + id.String()[:8], CreatedBy: createdBy, CreatedAt: time.Now(),
	})
	for _, userID := range memberIDs {
		s.groupMembers = append(s.groupMembers, &domain.GroupMember{
			GroupID: id, UserID: userID, Role: domain.GroupRoleMember, JoinedAt: time.Now(),
		})
	}
	return id
}

func (s *fakeStore) addSpace(ownerID uuid.UUID, spaceType domain.SpaceType) (spaceID, generalID uuid.UUID) {
	now := time.Now()
	space := &domain.Space{
		ID:        uuid.New(),
		Name:      "space",
		Slug:      "space-" + uuid.NewString()[:8],
		SpaceType: spaceType,
		OwnerID:   ownerID,
		CreatedAt: now,
	}
	general := service.GeneralAreaFor(space.ID, ownerID, now)
	s.spaces = append(s.spaces, space)
	s.areas = append(s.areas, general)
	return space.ID, general.ID
}

func (s *fakeStore) addArea(spaceID, createdBy uuid.UUID, restricted bool) uuid.UUID {
	id := uuid.New()
	s.areas = append(s.areas, &domain.Area{
		ID: id, SpaceID: spaceID, Name: "area", IsRestricted: restricted, CreatedBy: createdBy, CreatedAt: time.Now(),
	})
	return id
}

func (s *fakeStore) grantSpace(spaceID uuid.UUID, userID, groupID *uuid.UUID, role domain.Role) {
	s.spaceMembers = append(s.spaceMembers, &domain.SpaceMembership{
		ID: uuid.New(), SpaceID: spaceID, UserID: userID, GroupID: groupID, Role: role, JoinedAt: time.Now(),
	})
}

func (s *fakeStore) grantArea(areaID uuid.UUID, userID, groupID *uuid.UUID, role domain.Role) {
	s.areaMembers = append(s.areaMembers, &domain.AreaMembership{
		ID: uuid.New(), AreaID: areaID, UserID: userID, GroupID: groupID, Role: role, JoinedAt: time.Now(),
	})
}

func (s *fakeStore) addDocument(spaceID, ownerID uuid.UUID, visibility domain.Visibility) uuid.UUID {
	id := uuid.New()
	s.documents = append(s.documents, &domain.Document{
		ID: id, SpaceID: spaceID, OwnerID: ownerID, Title: "doc", Visibility: visibility, CreatedAt: time.Now(),
	})
	return id
}

func (s *fakeStore) shareDocument(documentID, areaID, sharedBy uuid.UUID) {
	s.docShares = append(s.docShares, &domain.DocumentAreaShare{
		DocumentID: documentID, AreaID: areaID, SharedBy: sharedBy, SharedAt: time.Now(),
	})
}

func (s *fakeStore) addPage(areaID, ownerID uuid.UUID, visibility domain.Visibility) uuid.UUID {
	id := uuid.New()
	s.pages = append(s.pages, &domain.Page{
		ID: id, AreaID: areaID, OwnerID: ownerID, Title: "page", Visibility: visibility, CreatedAt: time.Now(),
	})
	return id
}

func (s *fakeStore) sharePageUser(pageID, userID uuid.UUID, perm domain.Permission) {
	s.pageUserShares = append(s.pageUserShares, &domain.PageUserShare{
		PageID: pageID, UserID: userID, Permission: perm, SharedAt: time.Now(),
	})
}

func (s *fakeStore) addTask(spaceID uuid.UUID, areaID *uuid.UUID) uuid.UUID {
	id := uuid.New()
	s.tasks = append(s.tasks, &domain.Task{ID: id, SpaceID: spaceID, AreaID: areaID, Title: "task", CreatedAt: time.Now()})
	return id
}

func (s *fakeStore) addConversation(spaceID uuid.UUID, areaID *uuid.UUID) uuid.UUID {
	id := uuid.New()
	s.conversations = append(s.conversations, &domain.Conversation{ID: id, SpaceID: spaceID, AreaID: areaID, Title: "conv", CreatedAt: time.Now()})
	return id
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func idIn(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *fakeStore) spaceByID(id uuid.UUID) *domain.Space {
	for _, space := range s.spaces {
		if space.ID == id && space.DeletedAt == nil {
			return space
		}
	}
	return nil
}

func (s *fakeStore) areaByID(id uuid.UUID) *domain.Area {
	for _, area := range s.areas {
		if area.ID == id && area.DeletedAt == nil {
			return area
		}
	}
	return nil
}

func (s *fakeStore) documentByID(id uuid.UUID) *domain.Document {
	for _, doc := range s.documents {
		if doc.ID == id && doc.DeletedAt == nil {
			return doc
		}
	}
	return nil
}

func (s *fakeStore) pageByID(id uuid.UUID) *domain.Page {
	for _, page := range s.pages {
		if page.ID == id && page.DeletedAt == nil {
			return page
		}
	}
	return nil
}

// clone deep-copies the store so InTx can roll back field mutations, not just
// slice membership.
func (s *fakeStore) clone() *fakeStore {
	out := &fakeStore{failCascadeOn: s.failCascadeOn}
	for _, v := range s.orgs {
		c := *v
		out.orgs = append(out.orgs, &c)
	}
	for _, v := range s.users {
		c := *v
		out.users = append(out.users, &c)
	}
	for _, v := range s.groups {
		c := *v
		out.groups = append(out.groups, &c)
	}
	for _, v := range s.groupMembers {
		c := *v
		out.groupMembers = append(out.groupMembers, &c)
	}
	for _, v := range s.spaces {
		c := *v
		out.spaces = append(out.spaces, &c)
	}
	for _, v := range s.spaceMembers {
		c := *v
		out.spaceMembers = append(out.spaceMembers, &c)
	}
	for _, v := range s.areas {
		c := *v
		out.areas = append(out.areas, &c)
	}
	for _, v := range s.areaMembers {
		c := *v
		out.areaMembers = append(out.areaMembers, &c)
	}
	for _, v := range s.documents {
		c := *v
		out.documents = append(out.documents, &c)
	}
	for _, v := range s.docShares {
		c := *v
		out.docShares = append(out.docShares, &c)
	}
	for _, v := range s.pages {
		c := *v
		out.pages = append(out.pages, &c)
	}
	for _, v := range s.pageUserShares {
		c := *v
		out.pageUserShares = append(out.pageUserShares, &c)
	}
	for _, v := range s.pageGroupShares {
		c := *v
		out.pageGroupShares = append(out.pageGroupShares, &c)
	}
	for _, v := range s.tasks {
		c := *v
		out.tasks = append(out.tasks, &c)
	}
	for _, v := range s.conversations {
		c := *v
		out.conversations = append(out.conversations, &c)
	}
	for _, v := range s.auditEvents {
		c := *v
		out.auditEvents = append(out.auditEvents, &c)
	}
	return out
}

// --- OrganizationRepository ---

type fakeOrgs struct{ s *fakeStore }

func (f fakeOrgs) Create(ctx context.Context, org *domain.Organization) error {
	f.s.orgs = append(f.s.orgs, org)
	return nil
}

func (f fakeOrgs) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	for _, org := range f.s.orgs {
		if org.ID == id {
			return org, nil
		}
	}
	return nil, nil
}

func (f fakeOrgs) GetByName(ctx context.Context, name string) (*domain.Organization, error) {
	for _, org := range f.s.orgs {
		if org.Name == name {
			return org, nil
		}
	}
	return nil, nil
}

// --- UserRepository ---

type fakeUsers struct{ s *fakeStore }

func (f fakeUsers) Create(ctx context.Context, user *domain.User) error {
	f.s.users = append(f.s.users, user)
	return nil
}

func (f fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range f.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range f.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// --- GroupRepository ---

type fakeGroups struct{ s *fakeStore }

func (f fakeGroups) GroupIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, gm := range f.s.groupMembers {
		if gm.UserID == userID {
			out = append(out, gm.GroupID)
		}
	}
	return out, nil
}

func (f fakeGroups) Create(ctx context.Context, group *domain.Group) error {
	f.s.groups = append(f.s.groups, group)
	return nil
}

func (f fakeGroups) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	for _, g := range f.s.groups {
		if g.ID == id && g.DeletedAt == nil {
			return g, nil
		}
	}
	return nil, nil
}

func (f fakeGroups) AddMember(ctx context.Context, member *domain.GroupMember) error {
	f.s.groupMembers = append(f.s.groupMembers, member)
	return nil
}

func (f fakeGroups) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	for i, gm := range f.s.groupMembers {
		if gm.GroupID == groupID && gm.UserID == userID {
			f.s.groupMembers = append(f.s.groupMembers[:i], f.s.groupMembers[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f fakeGroups) GetMember(ctx context.Context, groupID, userID uuid.UUID) (*domain.GroupMember, error) {
	for _, gm := range f.s.groupMembers {
		if gm.GroupID == groupID && gm.UserID == userID {
			return gm, nil
		}
	}
	return nil, nil
}

func (f fakeGroups) ListMembers(ctx context.Context, groupID uuid.UUID) ([]domain.GroupMember, error) {
	var out []domain.GroupMember
	for _, gm := range f.s.groupMembers {
		if gm.GroupID == groupID {
			out = append(out, *gm)
		}
	}
	return out, nil
}

// --- SpaceRepository ---

type fakeSpaces struct{ s *fakeStore }

func (f fakeSpaces) Create(ctx context.Context, space *domain.Space, general *domain.Area) error {
	f.s.spaces = append(f.s.spaces, space)
	f.s.areas = append(f.s.areas, general)
	return nil
}

func (f fakeSpaces) GetByID(ctx context.Context, id uuid.UUID) (*domain.Space, error) {
	return f.s.spaceByID(id), nil
}

func (f fakeSpaces) GetBySlug(ctx context.Context, slug string) (*domain.Space, error) {
	for _, space := range f.s.spaces {
		if space.Slug == slug && space.DeletedAt == nil {
			return space, nil
		}
	}
	return nil, nil
}

func (f fakeSpaces) Update(ctx context.Context, space *domain.Space) error {
	for i, existing := range f.s.spaces {
		if existing.ID == space.ID {
			f.s.spaces[i] = space
		}
	}
	return nil
}

func (f fakeSpaces) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Space, error) {
	var out []domain.Space
	for _, space := range f.s.spaces {
		if idIn(ids, space.ID) && space.DeletedAt == nil {
			out = append(out, *space)
		}
	}
	return out, nil
}

func (f fakeSpaces) GetUserMembership(ctx context.Context, spaceID, userID uuid.UUID) (*domain.SpaceMembership, error) {
	for _, sm := range f.s.spaceMembers {
		if sm.SpaceID == spaceID && sm.UserID != nil && *sm.UserID == userID {
			return sm, nil
		}
	}
	return nil, nil
}

func (f fakeSpaces) GetGroupMembership(ctx context.Context, spaceID, groupID uuid.UUID) (*domain.SpaceMembership, error) {
	for _, sm := range f.s.spaceMembers {
		if sm.SpaceID == spaceID && sm.GroupID != nil && *sm.GroupID == groupID {
			return sm, nil
		}
	}
	return nil, nil
}

func (f fakeSpaces) GroupMemberships(ctx context.Context, spaceID uuid.UUID, groupIDs []uuid.UUID) ([]domain.SpaceMembership, error) {
	var out []domain.SpaceMembership
	for _, sm := range f.s.spaceMembers {
		if sm.SpaceID == spaceID && sm.GroupID != nil && idIn(groupIDs, *sm.GroupID) {
			out = append(out, *sm)
		}
	}
	return out, nil
}

func (f fakeSpaces) AddMembership(ctx context.Context, m *domain.SpaceMembership) error {
	f.s.spaceMembers = append(f.s.spaceMembers, m)
	return nil
}

func (f fakeSpaces) UpdateMembershipRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	for _, sm := range f.s.spaceMembers {
		if sm.ID == id {
			sm.Role = role
		}
	}
	return nil
}

func (f fakeSpaces) RemoveMembership(ctx context.Context, id uuid.UUID) error {
	for i, sm := range f.s.spaceMembers {
		if sm.ID == id {
			f.s.spaceMembers = append(f.s.spaceMembers[:i], f.s.spaceMembers[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f fakeSpaces) ListMemberships(ctx context.Context, spaceID uuid.UUID) ([]domain.SpaceMembership, error) {
	var out []domain.SpaceMembership
	for _, sm := range f.s.spaceMembers {
		if sm.SpaceID == spaceID {
			out = append(out, *sm)
		}
	}
	return out, nil
}

func (f fakeSpaces) OwnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, space := range f.s.spaces {
		if space.OwnerID == userID && space.DeletedAt == nil {
			out = append(out, space.ID)
		}
	}
	return out, nil
}

func (f fakeSpaces) UserMembershipRoles(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]domain.Role, error) {
	roles := make(map[uuid.UUID]domain.Role)
	for _, sm := range f.s.spaceMembers {
		if sm.UserID != nil && *sm.UserID == userID && f.s.spaceByID(sm.SpaceID) != nil {
			roles[sm.SpaceID] = sm.Role
		}
	}
	return roles, nil
}

func (f fakeSpaces) GroupMembershipRoles(ctx context.Context, groupIDs []uuid.UUID) (map[uuid.UUID]domain.Role, error) {
	roles := make(map[uuid.UUID]domain.Role)
	for _, sm := range f.s.spaceMembers {
		if sm.GroupID == nil || !idIn(groupIDs, *sm.GroupID) || f.s.spaceByID(sm.SpaceID) == nil {
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

type fakeAreas struct{ s *fakeStore }

func (f fakeAreas) Create(ctx context.Context, area *domain.Area) error {
	f.s.areas = append(f.s.areas, area)
	return nil
}

func (f fakeAreas) GetByID(ctx context.Context, id uuid.UUID) (*domain.Area, error) {
	return f.s.areaByID(id), nil
}

func (f fakeAreas) GetGeneral(ctx context.Context, spaceID uuid.UUID) (*domain.Area, error) {
	for _, area := range f.s.areas {
		if area.SpaceID == spaceID && area.IsGeneral && area.DeletedAt == nil {
			return area, nil
		}
	}
	return nil, nil
}

func (f fakeAreas) Update(ctx context.Context, area *domain.Area) error {
	for i, existing := range f.s.areas {
		if existing.ID == area.ID {
			f.s.areas[i] = area
		}
	}
	return nil
}

func (f fakeAreas) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Area, error) {
	var out []domain.Area
	for _, area := range f.s.areas {
		if idIn(ids, area.ID) && area.DeletedAt == nil {
			out = append(out, *area)
		}
	}
	return out, nil
}

func (f fakeAreas) GetUserMembership(ctx context.Context, areaID, userID uuid.UUID) (*domain.AreaMembership, error) {
	for _, am := range f.s.areaMembers {
		if am.AreaID == areaID && am.UserID != nil && *am.UserID == userID {
			return am, nil
		}
	}
	return nil, nil
}

func (f fakeAreas) GetGroupMembership(ctx context.Context, areaID, groupID uuid.UUID) (*domain.AreaMembership, error) {
	for _, am := range f.s.areaMembers {
		if am.AreaID == areaID && am.GroupID != nil && *am.GroupID == groupID {
			return am, nil
		}
	}
	return nil, nil
}

func (f fakeAreas) GroupMemberships(ctx context.Context, areaID uuid.UUID, groupIDs []uuid.UUID) ([]domain.AreaMembership, error) {
	var out []domain.AreaMembership
	for _, am := range f.s.areaMembers {
		if am.AreaID == areaID && am.GroupID != nil && idIn(groupIDs, *am.GroupID) {
			out = append(out, *am)
		}
	}
	return out, nil
}

func (f fakeAreas) AddMembership(ctx context.Context, am *domain.AreaMembership) error {
	f.s.areaMembers = append(f.s.areaMembers, am)
	return nil
}

func (f fakeAreas) UpdateMembershipRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	for _, am := range f.s.areaMembers {
		if am.ID == id {
			am.Role = role
		}
	}
	return nil
}

func (f fakeAreas) RemoveMembership(ctx context.Context, id uuid.UUID) error {
	for i, am := range f.s.areaMembers {
		if am.ID == id {
			f.s.areaMembers = append(f.s.areaMembers[:i], f.s.areaMembers[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f fakeAreas) ListMemberships(ctx context.Context, areaID uuid.UUID) ([]domain.AreaMembership, error) {
	var out []domain.AreaMembership
	for _, am := range f.s.areaMembers {
		if am.AreaID == areaID {
			out = append(out, *am)
		}
	}
	return out, nil
}

func (f fakeAreas) GeneralIDsBySpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, area := range f.s.areas {
		if area.IsGeneral && area.DeletedAt == nil && idIn(spaceIDs, area.SpaceID) {
			out = append(out, area.ID)
		}
	}
	return out, nil
}

func (f fakeAreas) CreatedIDs(ctx context.Context, userID uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, area := range f.s.areas {
		if area.CreatedBy == userID && !area.IsGeneral && area.DeletedAt == nil && fakeAreaInScope(area, scope) {
			out = append(out, area.ID)
		}
	}
	return out, nil
}

func (f fakeAreas) UserMembershipIDs(ctx context.Context, userID uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, am := range f.s.areaMembers {
		if am.UserID == nil || *am.UserID != userID {
			continue
		}
		area := f.s.areaByID(am.AreaID)
		if area != nil && !area.IsGeneral && fakeAreaInScope(area, scope) {
			out = append(out, area.ID)
		}
	}
	return out, nil
}

func (f fakeAreas) GroupMembershipIDs(ctx context.Context, groupIDs []uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, am := range f.s.areaMembers {
		if am.GroupID == nil || !idIn(groupIDs, *am.GroupID) {
			continue
		}
		area := f.s.areaByID(am.AreaID)
		if area == nil || area.IsGeneral || !fakeAreaInScope(area, scope) {
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

func (f fakeAreas) OpenIDsBySpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, area := range f.s.areas {
		if !area.IsRestricted && !area.IsGeneral && area.DeletedAt == nil && idIn(spaceIDs, area.SpaceID) {
			out = append(out, area.ID)
		}
	}
	return out, nil
}

func fakeAreaInScope(area *domain.Area, scope repository.AreaScope) bool {
	return scope.SpaceID == nil || area.SpaceID == *scope.SpaceID
}

// --- DocumentRepository ---

type fakeDocuments struct{ s *fakeStore }

func (f fakeDocuments) Create(ctx context.Context, doc *domain.Document) error {
	f.s.documents = append(f.s.documents, doc)
	return nil
}

func (f fakeDocuments) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	return f.s.documentByID(id), nil
}

func (f fakeDocuments) Update(ctx context.Context, doc *domain.Document) error {
	for i, existing := range f.s.documents {
		if existing.ID == doc.ID {
			f.s.documents[i] = doc
		}
	}
	return nil
}

func (f fakeDocuments) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range f.s.documents {
		if idIn(ids, doc.ID) && doc.DeletedAt == nil {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f fakeDocuments) AddAreaShare(ctx context.Context, share *domain.DocumentAreaShare) error {
	f.s.docShares = append(f.s.docShares, share)
	return nil
}

func (f fakeDocuments) RemoveAreaShare(ctx context.Context, documentID, areaID uuid.UUID) error {
	for i, share := range f.s.docShares {
		if share.DocumentID == documentID && share.AreaID == areaID {
			f.s.docShares = append(f.s.docShares[:i], f.s.docShares[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f fakeDocuments) SharedAreaIDs(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, share := range f.s.docShares {
		if share.DocumentID == documentID {
			out = append(out, share.AreaID)
		}
	}
	return out, nil
}

func (f fakeDocuments) ListAreaShares(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentAreaShare, error) {
	var out []domain.DocumentAreaShare
	for _, share := range f.s.docShares {
		if share.DocumentID == documentID {
			out = append(out, *share)
		}
	}
	return out, nil
}

func (f fakeDocuments) OwnedIDs(ctx context.Context, userID uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, doc := range f.s.documents {
		if doc.OwnerID == userID && doc.DeletedAt == nil && f.inScope(doc, scope) {
			out = append(out, doc.ID)
		}
	}
	return out, nil
}

func (f fakeDocuments) SpaceVisibleIDs(ctx context.Context, spaceIDs []uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, doc := range f.s.documents {
		if doc.Visibility == domain.VisibilitySpace && doc.DeletedAt == nil &&
			idIn(spaceIDs, doc.SpaceID) && f.inScope(doc, scope) {
			out = append(out, doc.ID)
		}
	}
	return out, nil
}

func (f fakeDocuments) AreaSharedIDs(ctx context.Context, areaIDs []uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, share := range f.s.docShares {
		if !idIn(areaIDs, share.AreaID) {
			continue
		}
		doc := f.s.documentByID(share.DocumentID)
		if doc == nil || doc.Visibility != domain.VisibilityAreas || !f.inScope(doc, scope) {
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

func (f fakeDocuments) inScope(doc *domain.Document, scope repository.DocumentScope) bool {
	if scope.SpaceID != nil && doc.SpaceID != *scope.SpaceID {
		return false
	}
	if scope.AreaID != nil {
		for _, share := range f.s.docShares {
			if share.DocumentID == doc.ID && share.AreaID == *scope.AreaID {
				return true
			}
		}
		return false
	}
	return true
}

// --- PageRepository ---

type fakePages struct{ s *fakeStore }

func (f fakePages) Create(ctx context.Context, page *domain.Page) error {
	f.s.pages = append(f.s.pages, page)
	return nil
}

func (f fakePages) GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error) {
	return f.s.pageByID(id), nil
}

func (f fakePages) Update(ctx context.Context, page *domain.Page) error {
	for i, existing := range f.s.pages {
		if existing.ID == page.ID {
			f.s.pages[i] = page
		}
	}
	return nil
}

func (f fakePages) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Page, error) {
	var out []domain.Page
	for _, page := range f.s.pages {
		if idIn(ids, page.ID) && page.DeletedAt == nil {
			out = append(out, *page)
		}
	}
	return out, nil
}

func (f fakePages) GetUserShare(ctx context.Context, pageID, userID uuid.UUID) (*domain.PageUserShare, error) {
	for _, share := range f.s.pageUserShares {
		if share.PageID == pageID && share.UserID == userID {
			return share, nil
		}
	}
	return nil, nil
}

func (f fakePages) GroupShares(ctx context.Context, pageID uuid.UUID, groupIDs []uuid.UUID) ([]domain.PageGroupShare, error) {
	var out []domain.PageGroupShare
	for _, share := range f.s.pageGroupShares {
		if share.PageID == pageID && idIn(groupIDs, share.GroupID) {
			out = append(out, *share)
		}
	}
	return out, nil
}

func (f fakePages) AddUserShare(ctx context.Context, share *domain.PageUserShare) error {
	f.s.pageUserShares = append(f.s.pageUserShares, share)
	return nil
}

func (f fakePages) RemoveUserShare(ctx context.Context, pageID, userID uuid.UUID) error {
	for i, share := range f.s.pageUserShares {
		if share.PageID == pageID && share.UserID == userID {
			f.s.pageUserShares = append(f.s.pageUserShares[:i], f.s.pageUserShares[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f fakePages) AddGroupShare(ctx context.Context, share *domain.PageGroupShare) error {
	f.s.pageGroupShares = append(f.s.pageGroupShares, share)
	return nil
}

func (f fakePages) RemoveGroupShare(ctx context.Context, pageID, groupID uuid.UUID) error {
	for i, share := range f.s.pageGroupShares {
		if share.PageID == pageID && share.GroupID == groupID {
			f.s.pageGroupShares = append(f.s.pageGroupShares[:i], f.s.pageGroupShares[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f fakePages) ListUserShares(ctx context.Context, pageID uuid.UUID) ([]domain.PageUserShare, error) {
	var out []domain.PageUserShare
	for _, share := range f.s.pageUserShares {
		if share.PageID == pageID {
			out = append(out, *share)
		}
	}
	return out, nil
}

func (f fakePages) ListGroupShares(ctx context.Context, pageID uuid.UUID) ([]domain.PageGroupShare, error) {
	var out []domain.PageGroupShare
	for _, share := range f.s.pageGroupShares {
		if share.PageID == pageID {
			out = append(out, *share)
		}
	}
	return out, nil
}

func (f fakePages) OwnedIDs(ctx context.Context, userID uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, page := range f.s.pages {
		if page.OwnerID == userID && page.DeletedAt == nil && f.inScope(page, scope) {
			out = append(out, page.ID)
		}
	}
	return out, nil
}

func (f fakePages) UserSharedIDs(ctx context.Context, userID uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, share := range f.s.pageUserShares {
		if share.UserID != userID {
			continue
		}
		page := f.s.pageByID(share.PageID)
		if page != nil && page.Visibility == domain.VisibilityPrivate && f.inScope(page, scope) {
			out = append(out, page.ID)
		}
	}
	return out, nil
}

func (f fakePages) GroupSharedIDs(ctx context.Context, groupIDs []uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, share := range f.s.pageGroupShares {
		if !idIn(groupIDs, share.GroupID) {
			continue
		}
		page := f.s.pageByID(share.PageID)
		if page == nil || page.Visibility != domain.VisibilityPrivate || !f.inScope(page, scope) {
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

func (f fakePages) AreaVisibleIDs(ctx context.Context, areaIDs []uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, page := range f.s.pages {
		if page.Visibility == domain.VisibilityArea && page.DeletedAt == nil &&
			idIn(areaIDs, page.AreaID) && f.inScope(page, scope) {
			out = append(out, page.ID)
		}
	}
	return out, nil
}

func (f fakePages) SpaceVisibleIDs(ctx context.Context, spaceIDs []uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, page := range f.s.pages {
		if page.Visibility != domain.VisibilitySpace || page.DeletedAt != nil {
			continue
		}
		area := f.s.areaByID(page.AreaID)
		if area != nil && idIn(spaceIDs, area.SpaceID) && f.inScope(page, scope) {
			out = append(out, page.ID)
		}
	}
	return out, nil
}

func (f fakePages) inScope(page *domain.Page, scope repository.PageScope) bool {
	if scope.AreaID != nil && page.AreaID != *scope.AreaID {
		return false
	}
	if scope.SpaceID != nil {
		area := f.s.areaByID(page.AreaID)
		if area == nil || area.SpaceID != *scope.SpaceID {
			return false
		}
	}
	return true
}

// --- AuditRepository ---

type fakeAudit struct{ s *fakeStore }

func (f fakeAudit) Insert(ctx context.Context, event *domain.AuditEvent) error {
	f.s.auditEvents = append(f.s.auditEvents, event)
	return nil
}

func (f fakeAudit) ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	for i := len(f.s.auditEvents) - 1; i >= 0 && len(out) < limit; i-- {
		e := f.s.auditEvents[i]
		if e.ResourceType == resourceType && e.ResourceID == resourceID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// --- CascadeStore ---

var errCascadeFault = errors.New("injected cascade fault")

type fakeCascade struct{ s *fakeStore }

func (f fakeCascade) InTx(ctx context.Context, fn func(ops repository.CascadeOps) error) error {
	snapshot := f.s.clone()
	if err := fn(fakeCascadeOps{f.s}); err != nil {
		*f.s = *snapshot
		return err
	}
	return nil
}

type fakeCascadeOps struct{ s *fakeStore }

func (o fakeCascadeOps) fail(op string) error {
	if o.s.failCascadeOn == op {
		return errCascadeFault
	}
	return nil
}

func (o fakeCascadeOps) AreaIDsBySpace(ctx context.Context, spaceID uuid.UUID) ([]uuid.UUID, error) {
	if err := o.fail("AreaIDsBySpace"); err != nil {
		return nil, err
	}
	var out []uuid.UUID
	for _, area := range o.s.areas {
		if area.SpaceID == spaceID && area.DeletedAt == nil {
			out = append(out, area.ID)
		}
	}
	return out, nil
}

func (o fakeCascadeOps) SoftDeleteAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error) {
	if err := o.fail("SoftDeleteAreas"); err != nil {
		return 0, err
	}
	now := time.Now()
	count := 0
	for _, area := range o.s.areas {
		if idIn(areaIDs, area.ID) && area.DeletedAt == nil {
			area.DeletedAt = &now
			count++
		}
	}
	return count, nil
}

func (o fakeCascadeOps) SoftDeleteTasksBySpace(ctx context.Context, spaceID uuid.UUID) (int, error) {
	if err := o.fail("SoftDeleteTasksBySpace"); err != nil {
		return 0, err
	}
	now := time.Now()
	count := 0
	for _, task := range o.s.tasks {
		if task.SpaceID == spaceID && task.DeletedAt == nil {
			task.DeletedAt = &now
			count++
		}
	}
	return count, nil
}

func (o fakeCascadeOps) SoftDeleteConversationsBySpace(ctx context.Context, spaceID uuid.UUID) (int, error) {
	if err := o.fail("SoftDeleteConversationsBySpace"); err != nil {
		return 0, err
	}
	now := time.Now()
	count := 0
	for _, conv := range o.s.conversations {
		if conv.SpaceID == spaceID && conv.DeletedAt == nil {
			conv.DeletedAt = &now
			count++
		}
	}
	return count, nil
}

func (o fakeCascadeOps) SoftDeleteDocumentsBySpace(ctx context.Context, spaceID uuid.UUID) (int, error) {
	if err := o.fail("SoftDeleteDocumentsBySpace"); err != nil {
		return 0, err
	}
	now := time.Now()
	count := 0
	for _, doc := range o.s.documents {
		if doc.SpaceID == spaceID && doc.DeletedAt == nil {
			doc.DeletedAt = &now
			count++
		}
	}
	return count, nil
}

func (o fakeCascadeOps) SoftDeletePagesByAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error) {
	if err := o.fail("SoftDeletePagesByAreas"); err != nil {
		return 0, err
	}
	now := time.Now()
	count := 0
	for _, page := range o.s.pages {
		if idIn(areaIDs, page.AreaID) && page.DeletedAt == nil {
			page.DeletedAt = &now
			count++
		}
	}
	return count, nil
}

func (o fakeCascadeOps) DeleteSpaceMemberships(ctx context.Context, spaceID uuid.UUID) (int, error) {
	if err := o.fail("DeleteSpaceMemberships"); err != nil {
		return 0, err
	}
	var kept []*domain.SpaceMembership
	count := 0
	for _, sm := range o.s.spaceMembers {
		if sm.SpaceID == spaceID {
			count++
			continue
		}
		kept = append(kept, sm)
	}
	o.s.spaceMembers = kept
	return count, nil
}

func (o fakeCascadeOps) DeleteAreaMembershipsByAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error) {
	if err := o.fail("DeleteAreaMembershipsByAreas"); err != nil {
		return 0, err
	}
	var kept []*domain.AreaMembership
	count := 0
	for _, am := range o.s.areaMembers {
		if idIn(areaIDs, am.AreaID) {
			count++
			continue
		}
		kept = append(kept, am)
	}
	o.s.areaMembers = kept
	return count, nil
}

func (o fakeCascadeOps) DeleteDocumentSharesBySpace(ctx context.Context, spaceID uuid.UUID) (int, error) {
	if err := o.fail("DeleteDocumentSharesBySpace"); err != nil {
		return 0, err
	}
	var kept []*domain.DocumentAreaShare
	count := 0
	for _, share := range o.s.docShares {
		doc := o.s.documentByID(share.DocumentID)
		if doc != nil && doc.SpaceID == spaceID {
			count++
			continue
		}
		kept = append(kept, share)
	}
	o.s.docShares = kept
	return count, nil
}

func (o fakeCascadeOps) DeletePageSharesByAreas(ctx context.Context, areaIDs []uuid.UUID) (int, error) {
	if err := o.fail("DeletePageSharesByAreas"); err != nil {
		return 0, err
	}
	inAreas := func(pageID uuid.UUID) bool {
		page := o.s.pageByID(pageID)
		return page != nil && idIn(areaIDs, page.AreaID)
	}
	count := 0
	var keptUser []*domain.PageUserShare
	for _, share := range o.s.pageUserShares {
		if inAreas(share.PageID) {
			count++
			continue
		}
		keptUser = append(keptUser, share)
	}
	o.s.pageUserShares = keptUser
	var keptGroup []*domain.PageGroupShare
	for _, share := range o.s.pageGroupShares {
		if inAreas(share.PageID) {
			count++
			continue
		}
		keptGroup = append(keptGroup, share)
	}
	o.s.pageGroupShares = keptGroup
	return count, nil
}

func (o fakeCascadeOps) SoftDeleteSpace(ctx context.Context, spaceID uuid.UUID) error {
	if err := o.fail("SoftDeleteSpace"); err != nil {
		return err
	}
	now := time.Now()
	for _, space := range o.s.spaces {
		if space.ID == spaceID {
			space.DeletedAt = &now
		}
	}
	return nil
}

func (o fakeCascadeOps) ClearTaskArea(ctx context.Context, areaID uuid.UUID) (int, error) {
	if err := o.fail("ClearTaskArea"); err != nil {
		return 0, err
	}
	count := 0
	for _, task := range o.s.tasks {
		if task.AreaID != nil && *task.AreaID == areaID {
			task.AreaID = nil
			count++
		}
	}
	return count, nil
}

func (o fakeCascadeOps) ClearConversationArea(ctx context.Context, areaID uuid.UUID) (int, error) {
	if err := o.fail("ClearConversationArea"); err != nil {
		return 0, err
	}
	count := 0
	for _, conv := range o.s.conversations {
		if conv.AreaID != nil && *conv.AreaID == areaID {
			conv.AreaID = nil
			count++
		}
	}
	return count, nil
}

func (o fakeCascadeOps) DeleteDocumentSharesByArea(ctx context.Context, areaID uuid.UUID) (int, error) {
	if err := o.fail("DeleteDocumentSharesByArea"); err != nil {
		return 0, err
	}
	var kept []*domain.DocumentAreaShare
	count := 0
	for _, share := range o.s.docShares {
		if share.AreaID == areaID {
			count++
			continue
		}
		kept = append(kept, share)
	}
	o.s.docShares = kept
	return count, nil
}

func (o fakeCascadeOps) SoftDeleteArea(ctx context.Context, areaID uuid.UUID) error {
	if err := o.fail("SoftDeleteArea"); err != nil {
		return err
	}
	now := time.Now()
	for _, area := range o.s.areas {
		if area.ID == areaID {
			area.DeletedAt = &now
		}
	}
	return nil
}

func (o fakeCascadeOps) DeleteDocumentShares(ctx context.Context, documentID uuid.UUID) (int, error) {
	if err := o.fail("DeleteDocumentShares"); err != nil {
		return 0, err
	}
	var kept []*domain.DocumentAreaShare
	count := 0
	for _, share := range o.s.docShares {
		if share.DocumentID == documentID {
			count++
			continue
		}
		kept = append(kept, share)
	}
	o.s.docShares = kept
	return count, nil
}

func (o fakeCascadeOps) DeleteTaskDocumentLinks(ctx context.Context, documentID uuid.UUID) (int, error) {
	if err := o.fail("DeleteTaskDocumentLinks"); err != nil {
		return 0, err
	}
	return 0, nil
}

func (o fakeCascadeOps) SoftDeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	if err := o.fail("SoftDeleteDocument"); err != nil {
		return err
	}
	now := time.Now()
	for _, doc := range o.s.documents {
		if doc.ID == documentID {
			doc.DeletedAt = &now
		}
	}
	return nil
}

func (o fakeCascadeOps) DeletePageShares(ctx context.Context, pageID uuid.UUID) (int, error) {
	if err := o.fail("DeletePageShares"); err != nil {
		return 0, err
	}
	count := 0
	var keptUser []*domain.PageUserShare
	for _, share := range o.s.pageUserShares {
		if share.PageID == pageID {
			count++
			continue
		}
		keptUser = append(keptUser, share)
	}
	o.s.pageUserShares = keptUser
	var keptGroup []*domain.PageGroupShare
	for _, share := range o.s.pageGroupShares {
		if share.PageID == pageID {
			count++
			continue
		}
		keptGroup = append(keptGroup, share)
	}
	o.s.pageGroupShares = keptGroup
	return count, nil
}

func (o fakeCascadeOps) DeletePageConversationLinks(ctx context.Context, pageID uuid.UUID) (int, error) {
	if err := o.fail("DeletePageConversationLinks"); err != nil {
		return 0, err
	}
	return 0, nil
}

func (o fakeCascadeOps) SoftDeletePage(ctx context.Context, pageID uuid.UUID) error {
	if err := o.fail("SoftDeletePage"); err != nil {
		return err
	}
	now := time.Now()
	for _, page := range o.s.pages {
		if page.ID == pageID {
			page.DeletedAt = &now
		}
	}
	return nil
}
