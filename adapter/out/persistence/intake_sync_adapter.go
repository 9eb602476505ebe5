package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"intake_server/core/domain"
)

// SyncCursorAdapter implements out.SyncCursorRepository using PostgreSQL.
// One row per organization, upserted on advance.
type SyncCursorAdapter struct {
	db *sqlx.DB
}

// NewSyncCursorAdapter creates a new SyncCursorAdapter.
func NewSyncCursorAdapter(db *sqlx.DB) *SyncCursorAdapter {
	return &SyncCursorAdapter{db: db}
}

type syncCursorRow struct {
	OrgID            uuid.UUID      `db:"org_id"`
	LastSyncedAt     sql.NullTime   `db:"last_synced_at"`
	Status           string         `db:"status"`
	LastError        sql.NullString `db:"last_error"`
	LastRunProcessed int            `db:"last_run_processed"`
	LastRunSkipped   int            `db:"last_run_skipped"`
	LastRunFailed    int            `db:"last_run_failed"`
	LastRunDuration  int64          `db:"last_run_duration_ms"`
	TotalProcessed   int64          `db:"total_processed"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *syncCursorRow) toDomain() *domain.SyncCursor {
	cursor := &domain.SyncCursor{
		OrgID:            r.OrgID,
		Status:           domain.SyncStatus(r.Status),
		LastRunProcessed: r.LastRunProcessed,
		LastRunSkipped:   r.LastRunSkipped,
		LastRunFailed:    r.LastRunFailed,
		LastRunDuration:  r.LastRunDuration,
		TotalProcessed:   r.TotalProcessed,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.LastSyncedAt.Valid {
		cursor.LastSyncedAt = r.LastSyncedAt.Time
	}
	if r.LastError.Valid {
		cursor.LastError = r.LastError.String
	}
	return cursor
}

// GetByOrg returns the cursor for an organization, or nil before the
// first sync.
func (a *SyncCursorAdapter) GetByOrg(ctx context.Context, orgID uuid.UUID) (*domain.SyncCursor, error) {
	var row syncCursorRow
	err := a.db.GetContext(ctx, &row,
		`SELECT * FROM sync_cursors WHERE org_id = $1`, orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync cursor: %w", err)
	}
	return row.toDomain(), nil
}

// Advance moves the boundary forward and records run stats in one write,
// upserting the row for first-time organizations.
func (a *SyncCursorAdapter) Advance(ctx context.Context, orgID uuid.UUID, syncedAt time.Time, stats domain.SyncRunStats) error {
	query := `
		INSERT INTO sync_cursors (org_id, last_synced_at, status, last_error,
			last_run_processed, last_run_skipped, last_run_failed, last_run_duration_ms,
			total_processed, updated_at)
		VALUES ($1, $2, $3, '', $4, $5, $6, $7, $4, NOW())
		ON CONFLICT (org_id) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			status = EXCLUDED.status,
			last_error = '',
			last_run_processed = EXCLUDED.last_run_processed,
			last_run_skipped = EXCLUDED.last_run_skipped,
			last_run_failed = EXCLUDED.last_run_failed,
			last_run_duration_ms = EXCLUDED.last_run_duration_ms,
			total_processed = sync_cursors.total_processed + EXCLUDED.last_run_processed,
			updated_at = NOW()
	`
	_, err := a.db.ExecContext(ctx, query,
		orgID, syncedAt, string(domain.SyncStatusIdle),
		stats.Processed, stats.Skipped, stats.Failed, stats.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to advance sync cursor: %w", err)
	}
	return nil
}

// SetStatus updates the run status without moving the boundary.
func (a *SyncCursorAdapter) SetStatus(ctx context.Context, orgID uuid.UUID, status domain.SyncStatus, lastError string) error {
	query := `
		INSERT INTO sync_cursors (org_id, status, last_error, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (org_id) DO UPDATE SET
			status = EXCLUDED.status,
			last_error = EXCLUDED.last_error,
			updated_at = NOW()
	`
	_, err := a.db.ExecContext(ctx, query, orgID, string(status), lastError)
	if err != nil {
		return fmt.Errorf("failed to set sync status: %w", err)
	}
	return nil
}
