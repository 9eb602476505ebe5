package http

import (
	"context"
	"time"

	"intake_server/core/port/out"
	"intake_server/core/service/intake"
	"intake_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SyncHandler exposes manual sync triggers and cursor status.
type SyncHandler struct {
	sync    *intake.SyncService
	cursors out.SyncCursorRepository
	locker  out.SyncLocker
	lockTTL time.Duration
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(sync *intake.SyncService, cursors out.SyncCursorRepository, locker out.SyncLocker, lockTTL time.Duration) *SyncHandler {
	return &SyncHandler{
		sync:    sync,
		cursors: cursors,
		locker:  locker,
		lockTTL: lockTTL,
	}
}

// Register registers sync routes.
func (h *SyncHandler) Register(router fiber.Router) {
	sync := router.Group("/sync")

	sync.Get("/:orgID", h.GetStatus)
	sync.Post("/:orgID/run", h.TriggerRun)
}

// GetStatus returns the sync cursor for an organization.
func (h *SyncHandler) GetStatus(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("orgID"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid organization ID")
	}

	cursor, err := h.cursors.GetByOrg(c.Context(), orgID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if cursor == nil {
		return c.JSON(fiber.Map{
			"org_id": orgID,
			"status": "never synced",
		})
	}

	return c.JSON(cursor)
}

// TriggerRun starts a sync run for an organization. The run executes in
// the background; the response only confirms it was accepted.
func (h *SyncHandler) TriggerRun(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("orgID"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid organization ID")
	}

	acquired, err := h.locker.Acquire(c.Context(), orgID, h.lockTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !acquired {
		return fiber.NewError(fiber.StatusConflict, "Sync already running for this organization")
	}

	go func() {
		defer func() {
			if err := h.locker.Release(context.Background(), orgID); err != nil {
				logger.Warn("failed to release sync lock for org %s: %v", orgID, err)
			}
		}()
		stats, err := h.sync.Run(context.Background(), orgID)
		if err != nil {
			logger.Error("manual sync failed for org %s: %v", orgID, err)
			return
		}
		logger.Info("manual sync finished for org %s: fetched=%d processed=%d skipped=%d failed=%d",
			orgID, stats.Fetched, stats.Processed, stats.Skipped, stats.Failed)
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"org_id": orgID,
		"status": "started",
	})
}
