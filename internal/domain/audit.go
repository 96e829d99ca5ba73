package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent records an access-changing mutation. One-way: nothing waits on it.
// SpaceID scopes the live feed; nil for events outside any space (groups).
type AuditEvent struct {
	ID           uuid.UUID  `json:"id"`
	ActorID      uuid.UUID  `json:"actor_id"`
	Action       string     `json:"action"`
	ResourceType string     `json:"resource_type"`
	ResourceID   uuid.UUID  `json:"resource_id"`
	SpaceID      *uuid.UUID `json:"space_id,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Audit actions.
const (
	AuditGrant            = "grant"
	AuditRevoke           = "revoke"
	AuditChangeVisibility = "change_visibility"
	AuditShare            = "share"
	AuditUnshare          = "unshare"
	AuditDelete           = "delete"
	AuditCreate           = "create"
	AuditUpdate           = "update"
	AuditRestrict         = "restrict"
)

// Audit resource types.
const (
	ResourceSpace    = "space"
	ResourceArea     = "area"
	ResourceDocument = "document"
	ResourcePage     = "page"
	ResourceGroup    = "group"
)
