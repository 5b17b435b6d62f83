package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tasktracker/internal/middleware"
)

// Summary returns the caller's dashboard rollup: status counts, overdue and
// due-soon buckets, and the assignee rankings.
func (h *Handler) Summary(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	summary, err := h.Dashboard.Summary(c.Context(), ownerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
