package intake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"intake_server/core/port/out"
	"intake_server/pkg/logger"
)

// Scheduler triggers a sync run per organization on a fixed interval.
// A distributed lock serializes runs per organization, so overlapping
// ticks and multiple instances never sync the same inbox concurrently.
// Different organizations run concurrently; all shared state is
// partitioned by organization id.
type Scheduler struct {
	sync   *SyncService
	locker out.SyncLocker
	orgIDs []uuid.UUID

	interval time.Duration
	lockTTL  time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewScheduler creates a scheduler for the given organizations.
func NewScheduler(syncService *SyncService, locker out.SyncLocker, orgIDs []uuid.UUID, interval, lockTTL time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &Scheduler{
		sync:     syncService,
		locker:   locker,
		orgIDs:   orgIDs,
		interval: interval,
		lockTTL:  lockTTL,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start blocks, running sync ticks until Stop is called.
func (s *Scheduler) Start() {
	defer close(s.doneCh)

	logger.Info("scheduler started: %d org(s), interval %s", len(s.orgIDs), s.interval)
	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopCh:
			logger.Info("scheduler stopping")
			return
		}
	}
}

// Stop signals the scheduler and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for _, orgID := range s.orgIDs {
		wg.Add(1)
		go func(orgID uuid.UUID) {
			defer wg.Done()
			s.runOrg(ctx, orgID)
		}(orgID)
	}
	wg.Wait()
}

func (s *Scheduler) runOrg(ctx context.Context, orgID uuid.UUID) {
	acquired, err := s.locker.Acquire(ctx, orgID, s.lockTTL)
	if err != nil {
		logger.Error("sync lock acquire failed for org %s: %v", orgID, err)
		return
	}
	if !acquired {
		logger.Debug("sync already running for org %s, skipping tick", orgID)
		return
	}
	defer func() {
		if err := s.locker.Release(ctx, orgID); err != nil {
			logger.Warn("sync lock release failed for org %s: %v", orgID, err)
		}
	}()

	if _, err := s.sync.Run(ctx, orgID); err != nil {
		logger.Error("sync run failed for org %s: %v", orgID, err)
	}
}
