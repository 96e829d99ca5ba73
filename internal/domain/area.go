package domain

import (
	"time"

	"github.com/google/uuid"
)

// Area is a named partition inside a Space. Every Space has exactly one
// General Area, which is never restricted and never deletable.
type Area struct {
	ID           uuid.UUID  `json:"id"`
	SpaceID      uuid.UUID  `json:"space_id"`
	Name         string     `json:"name"`
	Description  *string    `json:"description,omitempty"`
	IsGeneral    bool       `json:"is_general"`
	IsRestricted bool       `json:"is_restricted"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// AreaMembership grants a user or a group (never both) access to a restricted
// Area. Same shape as SpaceMembership.
type AreaMembership struct {
	ID       uuid.UUID  `json:"id"`
	AreaID   uuid.UUID  `json:"area_id"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	GroupID  *uuid.UUID `json:"group_id,omitempty"`
	Role     Role       `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
	// Joined fields
	Username  string `json:"username,omitempty"`
	GroupName string `json:"group_name,omitempty"`
}
