package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task and Conversation are cascade targets only: the engine never resolves
// access to them directly, but container deletion must re-point or soft-delete
// them.

type Task struct {
	ID        uuid.UUID  `json:"id"`
	SpaceID   uuid.UUID  `json:"space_id"`
	AreaID    *uuid.UUID `json:"area_id,omitempty"` // nil = "no area"
	Title     string     `json:"title"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type Conversation struct {
	ID        uuid.UUID  `json:"id"`
	SpaceID   uuid.UUID  `json:"space_id"`
	AreaID    *uuid.UUID `json:"area_id,omitempty"` // nil = "no area"
	Title     string     `json:"title"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// CascadeResult reports how many children a container deletion touched.
type CascadeResult struct {
	Areas         int `json:"areas"`
	Tasks         int `json:"tasks"`
	Conversations int `json:"conversations"`
	Documents     int `json:"documents"`
	Pages         int `json:"pages"`
	Memberships   int `json:"memberships"`
	Shares        int `json:"shares"`
}
