package domain

import (
	"time"

	"github.com/google/uuid"
)

// SpaceType distinguishes the three workspace flavors. Personal spaces carry
// no memberships and cannot be deleted through the public API.
type SpaceType string

const (
	SpaceTypePersonal     SpaceType = "personal"
	SpaceTypeOrganization SpaceType = "organization"
	SpaceTypeProject      SpaceType = "project"
)

type Space struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Description    *string    `json:"description,omitempty"`
	SpaceType      SpaceType  `json:"space_type"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// SpaceMembership grants a user or a group (never both) access to a Space.
type SpaceMembership struct {
	ID       uuid.UUID  `json:"id"`
	SpaceID  uuid.UUID  `json:"space_id"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	GroupID  *uuid.UUID `json:"group_id,omitempty"`
	Role     Role       `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
	// Joined fields
	Username  string `json:"username,omitempty"`
	GroupName string `json:"group_name,omitempty"`
}
