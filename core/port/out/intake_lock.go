package out

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncLocker serializes sync runs per organization across processes.
// Acquire returns false when another run holds the lock; that is not an
// error, the caller just skips this tick.
type SyncLocker interface {
	Acquire(ctx context.Context, orgID uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, orgID uuid.UUID) error
}
