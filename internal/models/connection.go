package models

import (
	"time"

	"github.com/google/uuid"
)

// Connection binds one company to its QuickBooks realm. At most one
// connection exists per company; it is created on the OAuth callback,
// rewritten on every token refresh, and deleted on disconnect.
type Connection struct {
	ID             uuid.UUID  `json:"id"`
	CompanyID      uuid.UUID  `json:"company_id"`
	RealmID        string     `json:"realm_id"`
	AccessToken    string     `json:"-"`
	RefreshToken   string     `json:"-"`
	TokenExpiresAt time.Time  `json:"token_expires_at"`
	IsActive       bool       `json:"is_active"`
	LastSynced     *time.Time `json:"last_synced,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}
