package http

import (
	"errors"
	"strconv"

	"intake_server/adapter/out/persistence"
	"intake_server/core/port/out"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ActivityHandler serves the intake activity feed.
type ActivityHandler struct {
	activities out.ActivityRepository
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(activities out.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// Register registers activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	activities := router.Group("/activities")

	activities.Get("/", h.ListUnread)
	activities.Post("/:id/read", h.MarkRead)
}

// ListUnread returns unread activity entries for an organization,
// newest first.
func (h *ActivityHandler) ListUnread(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Query("org_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid organization ID")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	entries, err := h.activities.ListUnread(c.Context(), orgID, limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"activities": entries,
		"count":      len(entries),
	})
}

// MarkRead marks a single activity entry as read.
func (h *ActivityHandler) MarkRead(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Query("org_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid organization ID")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid activity ID")
	}

	if err := h.activities.MarkRead(c.Context(), orgID, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Activity not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
