package out

import (
	"context"
	"errors"

	"intake_server/core/domain"
)

// ErrAlreadyProcessed is returned by LedgerRepository.Insert when the
// message id already has a ledger row (unique-constraint hit). Callers
// treat it as a successful no-op: a concurrent or earlier run won.
var ErrAlreadyProcessed = errors.New("message already processed")

// LedgerRepository is the outbound port for the processed-message ledger,
// the idempotency record keyed by provider message id.
type LedgerRepository interface {
	// Insert writes a ledger row with insert-if-absent semantics.
	// Returns ErrAlreadyProcessed when the unique constraint fires.
	Insert(ctx context.Context, record *domain.ProcessedMessage) error

	// GetByMessageID returns the row for a message id, or nil when the
	// message has never been processed.
	GetByMessageID(ctx context.Context, messageID string) (*domain.ProcessedMessage, error)
}
