package http

import (
	"errors"

	"intake_server/pkg/apperr"
	"intake_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler maps errors to JSON responses: AppError carries its own
// status and code, fiber errors pass through, everything else is a 500.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    appErr.Code,
					"message": appErr.Message,
					"details": appErr.Details,
				},
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    apperr.CodeBadRequest,
					"message": fiberErr.Message,
				},
			})
		}

		logger.Error("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    apperr.CodeInternalError,
				"message": "internal server error",
			},
		})
	}
}
