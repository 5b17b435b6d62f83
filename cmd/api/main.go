package main

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"tasktracker/configs"
	v1 "tasktracker/internal/api/v1"
	"tasktracker/internal/api/v1/handlers"
	"tasktracker/internal/auth"
	"tasktracker/internal/middleware"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"
	myws "tasktracker/internal/websocket"
	"tasktracker/pkg/database"
	"tasktracker/pkg/logger"
)

func main() {
	logger.InitLoggers()
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	cfg := configs.LoadConfig()

	db := database.ConnectDB(cfg)
	defer db.Close()
	logger.SystemLogger.Info("Database Connected")

	repository.CreateTableIfNotExists(db)
	if cfg.SeedAdmin {
		repository.SeedAdminUser(db)
	}

	redisClient := database.ConnectRedis(cfg)
	defer redisClient.Close()

	taskStore := repository.NewTaskStore(db)
	userStore := repository.NewUserStore(db)
	identity := auth.NewIdentity(userStore, cfg.JWTSecret, cfg.TokenTTL)

	hub := myws.NewHub()
	go hub.Run()

	taskService := service.NewTaskService(taskStore, hub)
	dashboardService := service.NewDashboardService(taskStore, cfg.Location())
	h := handlers.New(taskService, dashboardService, identity, userStore, redisClient)

	app := fiber.New()
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	v1.RegisterRoutes(app, h, identity, hub)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}
