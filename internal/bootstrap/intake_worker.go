package bootstrap

import (
	"time"

	"intake_server/config"
	"intake_server/core/service/intake"
	"intake_server/pkg/logger"

	"github.com/google/uuid"
)

// Worker runs the scheduled intake sync loop.
type Worker struct {
	scheduler *intake.Scheduler
	deps      *Dependencies
}

// NewWorker builds the sync worker from config.
func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "intake-worker",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.Error("Failed to initialize dependencies: %v", err)
		return nil, nil, err
	}

	orgIDs := make([]uuid.UUID, 0, len(cfg.SyncOrgIDs))
	for _, raw := range cfg.SyncOrgIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			logger.Warn("Skipping invalid org ID %q: %v", raw, err)
			continue
		}
		orgIDs = append(orgIDs, id)
	}
	if len(orgIDs) == 0 {
		logger.Warn("No organizations configured for sync")
	}

	scheduler := intake.NewScheduler(
		deps.SyncService,
		deps.SyncLock,
		orgIDs,
		time.Duration(cfg.SyncIntervalSec)*time.Second,
		time.Duration(cfg.SyncLockTTLSec)*time.Second,
	)

	return &Worker{scheduler: scheduler, deps: deps}, cleanup, nil
}

// Start blocks until Stop is called.
func (w *Worker) Start() {
	logger.Info("Intake worker started")
	w.scheduler.Start()
}

// Stop shuts the scheduler down and waits for in-flight runs.
func (w *Worker) Stop() {
	w.scheduler.Stop()
	logger.Info("Intake worker stopped")
}
