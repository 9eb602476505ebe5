package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SyncCursor - per-organization mail sync boundary
// =============================================================================

type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusError   SyncStatus = "error"
)

// SyncCursor tracks the timestamp boundary of already-fetched mail for
// one organization. It advances only after a full sync window completed;
// a mid-sync failure leaves the old boundary intact so the next run
// re-fetches the same window (the ledger makes the replay safe).
type SyncCursor struct {
	OrgID        uuid.UUID  `json:"org_id"`
	LastSyncedAt time.Time  `json:"last_synced_at"`
	Status       SyncStatus `json:"status"`
	LastError    string     `json:"last_error,omitempty"`

	// Stats from the most recent completed run.
	LastRunProcessed int       `json:"last_run_processed"`
	LastRunSkipped   int       `json:"last_run_skipped"`
	LastRunFailed    int       `json:"last_run_failed"`
	LastRunDuration  int64     `json:"last_run_duration_ms"`
	TotalProcessed   int64     `json:"total_processed"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsFirstSync reports whether this organization has never completed a
// sync; the retriever applies the default lookback in that case.
func (c *SyncCursor) IsFirstSync() bool {
	return c.LastSyncedAt.IsZero()
}

// SyncRunStats summarizes one sync run for the cursor row and logs.
type SyncRunStats struct {
	Fetched   int
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
}
