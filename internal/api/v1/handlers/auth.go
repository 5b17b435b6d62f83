package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tasktracker/internal/middleware"
	"tasktracker/pkg/logger"
)

// Login exchanges credentials for a signed access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return badRequest(c, "Bad request")
	}
	if err := h.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return badRequest(c, "Validation error")
	}

	token, err := h.Identity.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		logger.SecurityLogger.Warn("Login failed", zap.String("email", req.Email))
		return writeError(c, err)
	}

	logger.AuditLogger.Info("Login success", zap.String("email", req.Email))
	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Register creates a new user account. The role defaults to "PM".
func (h *Handler) Register(c *fiber.Ctx) error {
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Name     string `json:"name" validate:"required"`
		Role     string `json:"role"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return badRequest(c, "Bad request")
	}
	if err := h.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during register", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return writeError(c, err)
	}

	user, err := h.Users.CreateUser(c.Context(), req.Email, string(hashedPassword), req.Name, req.Role)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			logger.SecurityLogger.Warn("Duplicate email", zap.String("email", req.Email))
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already exists"})
		}
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return writeError(c, err)
	}

	logger.AuditLogger.Info("User registered", zap.String("user_id", user.ID.String()))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": user.ID})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	user, err := h.Users.GetUser(c.Context(), ownerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
	})
}
