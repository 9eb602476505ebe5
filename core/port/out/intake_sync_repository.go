package out

import (
	"context"
	"time"

	"github.com/google/uuid"

	"intake_server/core/domain"
)

// SyncCursorRepository persists the per-organization sync boundary.
type SyncCursorRepository interface {
	// GetByOrg returns the cursor for an organization, or nil when the
	// organization has never synced.
	GetByOrg(ctx context.Context, orgID uuid.UUID) (*domain.SyncCursor, error)

	// Advance moves the boundary forward and records run stats. Called
	// only after every page of the window completed.
	Advance(ctx context.Context, orgID uuid.UUID, syncedAt time.Time, stats domain.SyncRunStats) error

	// SetStatus updates the run status without moving the boundary.
	SetStatus(ctx context.Context, orgID uuid.UUID, status domain.SyncStatus, lastError string) error
}
