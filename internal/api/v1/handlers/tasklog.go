package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tasktracker/internal/middleware"
	"tasktracker/pkg/logger"
)

// ListLogs returns a task's audit trail, oldest first.
func (h *Handler) ListLogs(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	taskID, err := parseTaskID(c)
	if err != nil {
		return badRequest(c, "Invalid task ID")
	}

	logs, err := h.Tasks.ListLogs(c.Context(), ownerID, taskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(logs)
}

// AddLog appends a manual entry to a task's audit trail.
func (h *Handler) AddLog(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	taskID, err := parseTaskID(c)
	if err != nil {
		return badRequest(c, "Invalid task ID")
	}

	type LogRequest struct {
		Event  string  `json:"event" validate:"required"`
		Detail *string `json:"detail"`
	}
	var req LogRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in add log", zap.Error(err))
		return badRequest(c, "Bad request")
	}
	if err := h.Validate.Struct(req); err != nil {
		return badRequest(c, "Validation error")
	}

	entry, err := h.Tasks.AddLog(c.Context(), ownerID, taskID, req.Event, req.Detail)
	if err != nil {
		return writeError(c, err)
	}

	logger.AuditLogger.Info("Manual log appended",
		zap.String("task_id", taskID.String()),
		zap.String("event", entry.Event))
	return c.JSON(entry)
}
