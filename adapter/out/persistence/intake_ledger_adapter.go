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
	"intake_server/core/port/out"
)

// LedgerAdapter implements out.LedgerRepository using PostgreSQL. The
// UNIQUE constraint on message_id is what makes concurrent and retried
// syncs safe without a cross-store transaction.
type LedgerAdapter struct {
	db *sqlx.DB
}

// NewLedgerAdapter creates a new LedgerAdapter.
func NewLedgerAdapter(db *sqlx.DB) *LedgerAdapter {
	return &LedgerAdapter{db: db}
}

type processedMessageRow struct {
	MessageID       string         `db:"message_id"`
	OrgID           uuid.UUID      `db:"org_id"`
	Status          string         `db:"status"`
	Classification  string         `db:"classification"`
	LinkedContactID uuid.NullUUID  `db:"linked_contact_id"`
	Error           sql.NullString `db:"error"`
	ProcessedAt     time.Time      `db:"processed_at"`
}

func (r *processedMessageRow) toDomain() *domain.ProcessedMessage {
	rec := &domain.ProcessedMessage{
		MessageID:      r.MessageID,
		OrgID:          r.OrgID,
		Status:         domain.ProcessedStatus(r.Status),
		Classification: domain.Classification(r.Classification),
		ProcessedAt:    r.ProcessedAt,
	}
	if r.LinkedContactID.Valid {
		id := r.LinkedContactID.UUID
		rec.LinkedContactID = &id
	}
	if r.Error.Valid {
		rec.Error = r.Error.String
	}
	return rec
}

// Insert writes one ledger row. Returns out.ErrAlreadyProcessed when the
// message_id unique constraint fires.
func (a *LedgerAdapter) Insert(ctx context.Context, record *domain.ProcessedMessage) error {
	query := `
		INSERT INTO processed_messages (message_id, org_id, status, classification, linked_contact_id, error, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var linked uuid.NullUUID
	if record.LinkedContactID != nil {
		linked = uuid.NullUUID{UUID: *record.LinkedContactID, Valid: true}
	}
	_, err := a.db.ExecContext(ctx, query,
		record.MessageID, record.OrgID, string(record.Status), string(record.Classification),
		linked, nullString(record.Error), record.ProcessedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return out.ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to insert ledger row: %w", err)
	}
	return nil
}

// GetByMessageID returns the ledger row for a message, or nil when the
// message has never been processed.
func (a *LedgerAdapter) GetByMessageID(ctx context.Context, messageID string) (*domain.ProcessedMessage, error) {
	var row processedMessageRow
	err := a.db.GetContext(ctx, &row,
		`SELECT * FROM processed_messages WHERE message_id = $1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger row: %w", err)
	}
	return row.toDomain(), nil
}
