package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is space-scoped content. Visibility: private (owner only — there
// is deliberately no per-user share list), areas (via DocumentAreaShare), or
// space (any space member).
type Document struct {
	ID         uuid.UUID  `json:"id"`
	SpaceID    uuid.UUID  `json:"space_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Title      string     `json:"title"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

type DocumentAreaShare struct {
	DocumentID uuid.UUID `json:"document_id"`
	AreaID     uuid.UUID `json:"area_id"`
	SharedBy   uuid.UUID `json:"shared_by"`
	SharedAt   time.Time `json:"shared_at"`
}
