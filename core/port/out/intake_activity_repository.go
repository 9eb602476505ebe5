package out

import (
	"context"

	"github.com/google/uuid"

	"intake_server/core/domain"
)

// ActivityRepository is the outbound port for the append-only activity
// log. Entries are never mutated except to flip the read flag.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityEntry) error
	ListUnread(ctx context.Context, orgID uuid.UUID, limit int) ([]*domain.ActivityEntry, error)
	MarkRead(ctx context.Context, orgID, id uuid.UUID) error
}
