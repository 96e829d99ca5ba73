package domain

// Role is a membership role on a Space or Area.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleGuest  Role = "guest"  // Space only
	RoleViewer Role = "viewer" // Area only
)

var roleRank = map[Role]int{
	RoleOwner:  4,
	RoleAdmin:  3,
	RoleMember: 2,
	RoleViewer: 1,
	RoleGuest:  1,
}

// Rank orders roles by privilege. Unknown roles rank below everything.
func (r Role) Rank() int {
	return roleRank[r]
}

// MaxRole returns the more privileged of two roles.
func MaxRole(a, b Role) Role {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Permission is the access level carried by an explicit page share.
type Permission string

const (
	PermissionViewer Permission = "viewer"
	PermissionEditor Permission = "editor"
	PermissionAdmin  Permission = "admin"
)

// GroupRole is a member's role within a Group.
type GroupRole string

const (
	GroupRoleLead   GroupRole = "lead"
	GroupRoleMember GroupRole = "member"
)

// Visibility controls how a Document or Page inherits access.
type Visibility string

const (
	// Documents: private | areas | space. Pages: private | area | space.
	VisibilityPrivate Visibility = "private"
	VisibilityAreas   Visibility = "areas"
	VisibilityArea    Visibility = "area"
	VisibilitySpace   Visibility = "space"
)
