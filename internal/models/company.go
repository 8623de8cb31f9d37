package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant: all synced QuickBooks data hangs off the
// connection owned by exactly one company.
type Company struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
