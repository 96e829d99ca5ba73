package domain

import (
	"time"

	"github.com/google/uuid"
)

// Page is area-scoped rich-text content. Visibility: private (explicit
// user/group shares), area (inherits its Area), or space (inherits the Area's
// parent Space).
type Page struct {
	ID         uuid.UUID  `json:"id"`
	AreaID     uuid.UUID  `json:"area_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Title      string     `json:"title"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

type PageUserShare struct {
	PageID     uuid.UUID  `json:"page_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Permission Permission `json:"permission"`
	SharedBy   uuid.UUID  `json:"shared_by"`
	SharedAt   time.Time  `json:"shared_at"`
}

type PageGroupShare struct {
	PageID     uuid.UUID  `json:"page_id"`
	GroupID    uuid.UUID  `json:"group_id"`
	Permission Permission `json:"permission"`
	SharedBy   uuid.UUID  `json:"shared_by"`
	SharedAt   time.Time  `json:"shared_at"`
}
