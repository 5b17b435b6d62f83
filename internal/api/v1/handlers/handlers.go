package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tasktracker/internal/auth"
	"tasktracker/internal/models"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"
	"tasktracker/pkg/logger"
)

// Handler bundles the collaborators every endpoint needs. Everything is
// injected; handlers hold no ambient state.
type Handler struct {
	Tasks     *service.TaskService
	Dashboard *service.DashboardService
	Identity  *auth.Identity
	Users     repository.UserStore
	Validate  *validator.Validate
	Redis     *redis.Client // optional task read cache
}

func New(tasks *service.TaskService, dashboard *service.DashboardService, identity *auth.Identity, users repository.UserStore, rdb *redis.Client) *Handler {
	return &Handler{
		Tasks:     tasks,
		Dashboard: dashboard,
		Identity:  identity,
		Users:     users,
		Validate:  validator.New(),
		Redis:     rdb,
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Forbidden stays
// distinct from NotFound on every endpoint; task ids are random UUIDs, so
// the 403 reveals nothing guessable.
func writeError(c *fiber.Ctx, err error) error {
	var ve *models.ValidationError
	var ae *models.AuthError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": ve.Msg})
	case errors.As(err, &ae):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": ae.Msg})
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden"})
	default:
		logger.ErrorLogger.Error("Internal error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
}
