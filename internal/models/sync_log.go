package models

import (
	"time"

	"github.com/google/uuid"
)

type SyncStatus string

const (
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncLog records one sync pass over one entity kind.
type SyncLog struct {
	ID            uuid.UUID  `json:"id"`
	ConnectionID  uuid.UUID  `json:"connection_id"`
	SyncType      string     `json:"sync_type"`
	Status        SyncStatus `json:"status"`
	RecordsSynced int        `json:"records_synced"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}
