// Package redislock implements the per-organization sync lock on Redis.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SyncLockAdapter implements out.SyncLocker using SET NX with a TTL. The
// TTL bounds how long a crashed run can block an organization's syncs.
type SyncLockAdapter struct {
	client *redis.Client
}

// NewSyncLockAdapter creates the lock adapter.
func NewSyncLockAdapter(client *redis.Client) *SyncLockAdapter {
	return &SyncLockAdapter{client: client}
}

func lockKey(orgID uuid.UUID) string {
	return "intake:sync:lock:" + orgID.String()
}

// Acquire takes the organization's lock. Returns false without error
// when another run holds it.
func (a *SyncLockAdapter) Acquire(ctx context.Context, orgID uuid.UUID, ttl time.Duration) (bool, error) {
	ok, err := a.client.SetNX(ctx, lockKey(orgID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	return ok, nil
}

// Release drops the organization's lock.
func (a *SyncLockAdapter) Release(ctx context.Context, orgID uuid.UUID) error {
	if err := a.client.Del(ctx, lockKey(orgID)).Err(); err != nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}
	return nil
}
