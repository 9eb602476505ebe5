package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"intake_server/core/domain"
)

// ActivityAdapter implements out.ActivityRepository using PostgreSQL.
type ActivityAdapter struct {
	db *sqlx.DB
}

// NewActivityAdapter creates a new ActivityAdapter.
func NewActivityAdapter(db *sqlx.DB) *ActivityAdapter {
	return &ActivityAdapter{db: db}
}

type activityRow struct {
	ID              uuid.UUID      `db:"id"`
	OrgID           uuid.UUID      `db:"org_id"`
	Type            string         `db:"type"`
	Title           string         `db:"title"`
	Description     sql.NullString `db:"description"`
	LinkedContactID uuid.NullUUID  `db:"linked_contact_id"`
	LinkedMessageID sql.NullString `db:"linked_message_id"`
	IsRead          bool           `db:"is_read"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (r *activityRow) toDomain() *domain.ActivityEntry {
	entry := &domain.ActivityEntry{
		ID:        r.ID,
		OrgID:     r.OrgID,
		Type:      domain.ActivityType(r.Type),
		Title:     r.Title,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
	if r.Description.Valid {
		entry.Description = r.Description.String
	}
	if r.LinkedContactID.Valid {
		id := r.LinkedContactID.UUID
		entry.LinkedContactID = &id
	}
	if r.LinkedMessageID.Valid {
		entry.LinkedMessageID = r.LinkedMessageID.String
	}
	return entry
}

// Create appends an activity entry.
func (a *ActivityAdapter) Create(ctx context.Context, entry *domain.ActivityEntry) error {
	query := `
		INSERT INTO activity_entries (id, org_id, type, title, description, linked_contact_id, linked_message_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
	`
	var linked uuid.NullUUID
	if entry.LinkedContactID != nil {
		linked = uuid.NullUUID{UUID: *entry.LinkedContactID, Valid: true}
	}
	_, err := a.db.ExecContext(ctx, query,
		entry.ID, entry.OrgID, string(entry.Type), entry.Title,
		nullString(entry.Description), linked, nullString(entry.LinkedMessageID), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}
	return nil
}

// ListUnread returns unread entries, newest first.
func (a *ActivityAdapter) ListUnread(ctx context.Context, orgID uuid.UUID, limit int) ([]*domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []activityRow
	err := a.db.SelectContext(ctx, &rows,
		`SELECT * FROM activity_entries
		 WHERE org_id = $1 AND is_read = FALSE
		 ORDER BY created_at DESC
		 LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread activities: %w", err)
	}
	entries := make([]*domain.ActivityEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toDomain())
	}
	return entries, nil
}

// MarkRead flips the read flag, the only mutation entries ever receive.
func (a *ActivityAdapter) MarkRead(ctx context.Context, orgID, id uuid.UUID) error {
	result, err := a.db.ExecContext(ctx,
		`UPDATE activity_entries SET is_read = TRUE WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to mark activity read: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}
