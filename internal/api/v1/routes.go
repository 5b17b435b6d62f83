package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"tasktracker/internal/api/v1/handlers"
	"tasktracker/internal/middleware"
	myws "tasktracker/internal/websocket"
)

// RegisterRoutes wires every endpoint. The hub is optional; passing nil
// skips the websocket activity stream.
func RegisterRoutes(app *fiber.App, h *handlers.Handler, resolver middleware.TokenResolver, hub *myws.Hub) {
	requireAuth := middleware.RequireAuth(resolver)

	// Auth
	app.Post("/auth/login", h.Login)
	app.Post("/auth/register", h.Register)
	app.Get("/auth/me", requireAuth, h.Me)

	// Tasks
	taskRoutes := app.Group("/tasks", requireAuth)
	taskRoutes.Post("/", h.CreateTask)
	taskRoutes.Get("/", h.ListTasks)
	taskRoutes.Get("/:id", h.GetTask)
	taskRoutes.Patch("/:id", h.UpdateTask)
	taskRoutes.Delete("/:id", h.DeleteTask)

	// Task audit logs
	taskRoutes.Get("/:id/logs", h.ListLogs)
	taskRoutes.Post("/:id/logs", h.AddLog)

	// Dashboard
	app.Get("/dashboard/summary", requireAuth, h.Summary)

	// Activity stream
	if hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/activity", requireAuth, websocket.New(func(conn *websocket.Conn) {
			owner := conn.Locals("ownerID").(uuid.UUID)
			client := &myws.Client{Conn: conn, Owner: owner}
			hub.Register <- client
			defer func() {
				hub.Unregister <- client
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}))
	}
}
