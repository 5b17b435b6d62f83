package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tasktracker/internal/middleware"
	"tasktracker/internal/models"
	"tasktracker/pkg/logger"
)

const taskCacheTTL = time.Hour

func taskCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id)
}

func parseTaskID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// CreateTask stores a new task owned by the caller.
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)

	type TaskRequest struct {
		Title       string        `json:"title" validate:"required"`
		Description *string       `json:"description"`
		Assignee    *string       `json:"assignee"`
		Status      models.Status `json:"status" validate:"required,oneof=NOT_STARTED IN_PROGRESS DONE"`
		StartDate   *models.Date  `json:"start_date"`
		DueDate     *models.Date  `json:"due_date"`
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return badRequest(c, "Bad request")
	}
	if err := h.Validate.Struct(req); err != nil {
		logger.ErrorLogger.Error("Validation error in create task", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
		})
	}

	task, err := h.Tasks.Create(c.Context(), ownerID, models.TaskDraft{
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		Status:      req.Status,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return writeError(c, err)
	}

	logger.AuditLogger.Info("Task created",
		zap.String("task_id", task.ID.String()),
		zap.String("owner_id", ownerID.String()))
	return c.JSON(task)
}

// ListTasks returns the caller's tasks, optionally filtered by status and a
// case-insensitive text query, newest first.
func (h *Handler) ListTasks(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)

	filter := models.ListFilter{
		Query: c.Query("q"),
		Page:  c.QueryInt("page", 1),
		Size:  c.QueryInt("size", models.DefaultPageSize),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.Status(raw)
		if !status.Valid() {
			return badRequest(c, fmt.Sprintf("Invalid status %q", raw))
		}
		filter.Status = &status
	}

	tasks, err := h.Tasks.List(c.Context(), ownerID, filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(tasks)
}

// GetTask fetches a single task, serving from the Redis cache when the
// entry is fresh. Ownership is re-checked on cache hits.
func (h *Handler) GetTask(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	taskID, err := parseTaskID(c)
	if err != nil {
		return badRequest(c, "Invalid task ID")
	}

	if h.Redis != nil {
		if cached, err := h.Redis.Get(c.Context(), taskCacheKey(taskID)).Result(); err == nil {
			var task models.Task
			if err := json.Unmarshal([]byte(cached), &task); err == nil {
				if task.CreatedBy != ownerID {
					logger.SecurityLogger.Warn("Forbidden task access",
						zap.String("task_id", taskID.String()),
						zap.String("owner_id", ownerID.String()))
					return writeError(c, models.ErrForbidden)
				}
				return c.JSON(task)
			}
		}
	}

	task, err := h.Tasks.Get(c.Context(), ownerID, taskID)
	if err != nil {
		return writeError(c, err)
	}

	h.cacheTask(c, task)
	return c.JSON(task)
}

// UpdateTask applies a partial update. Fields absent from the body are left
// untouched; explicit nulls clear nullable fields.
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	taskID, err := parseTaskID(c)
	if err != nil {
		return badRequest(c, "Invalid task ID")
	}

	var patch models.TaskPatch
	if err := c.BodyParser(&patch); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return badRequest(c, "Bad request")
	}

	task, err := h.Tasks.Update(c.Context(), ownerID, taskID, patch)
	if err != nil {
		return writeError(c, err)
	}

	h.invalidateTask(c, taskID)
	h.cacheTask(c, task)
	logger.AuditLogger.Info("Task updated", zap.String("task_id", taskID.String()))
	return c.JSON(task)
}

// DeleteTask removes a task and its logs. Deleting an absent task is a
// success, so the endpoint is idempotent.
func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	taskID, err := parseTaskID(c)
	if err != nil {
		return badRequest(c, "Invalid task ID")
	}

	if err := h.Tasks.Delete(c.Context(), ownerID, taskID); err != nil {
		if err == models.ErrForbidden {
			logger.SecurityLogger.Warn("Forbidden task delete",
				zap.String("task_id", taskID.String()),
				zap.String("owner_id", ownerID.String()))
		}
		return writeError(c, err)
	}

	h.invalidateTask(c, taskID)
	logger.AuditLogger.Info("Task deleted", zap.String("task_id", taskID.String()))
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handler) cacheTask(c *fiber.Ctx, task models.Task) {
	if h.Redis == nil {
		return
	}
	if payload, err := json.Marshal(task); err == nil {
		h.Redis.SetEX(c.Context(), taskCacheKey(task.ID), payload, taskCacheTTL)
	}
}

func (h *Handler) invalidateTask(c *fiber.Ctx, taskID uuid.UUID) {
	if h.Redis == nil {
		return
	}
	h.Redis.Del(c.Context(), taskCacheKey(taskID))
}
