// Package server contains the HTTP handlers for the application's API
// endpoints.
package server

import (
	"errors"

	"aimarket/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的 ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parsePageQuery extracts page/limit/sort query parameters. Out-of-range
// values are normalized later by PageQuery.Normalize.
func parsePageQuery(c *fiber.Ctx) models.PageQuery {
	return models.PageQuery{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", models.DefaultPageLimit),
		Sort:  c.Query("sort"),
	}
}

// currentUserID reads the authenticated user's ID set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

// currentRole reads the authenticated user's role set by AuthRequired.
func currentRole(c *fiber.Ctx) string {
	if role, ok := c.Locals("userRole").(string); ok {
		return role
	}
	return ""
}

// respondError maps a service error onto the standard envelope.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}
