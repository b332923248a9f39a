package handlers

import (
	"strings"

	"github.com/acadocs/backend/internal/services"
	"github.com/acadocs/backend/pkg/logger"
	"github.com/acadocs/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// serviceError maps lifecycle-engine sentinels onto HTTP statuses. Unknown
// errors are internal faults: logged with detail, reported without it.
func serviceError(c *fiber.Ctx, err error, action string) error {
	switch err {
	case services.ErrForbidden:
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	case services.ErrRequestNotFound:
		return utils.Error(c, fiber.StatusNotFound, "request not found")
	case services.ErrInvalidInput:
		return utils.Error(c, fiber.StatusBadRequest, "documentType and message are required")
	default:
		logger.Error(action, err, map[string]interface{}{
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
	}
}
