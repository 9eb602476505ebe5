package bootstrap

import (
	"time"

	"intake_server/adapter/in/http"
	"intake_server/config"
	"intake_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewAPI builds the operational HTTP server.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "intake-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.Error("Failed to initialize dependencies: %v", err)
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          http.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,

		// go-json is a drop-in replacement for encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit: 1 * 1024 * 1024,
	})

	app.Use(recover.New())

	healthHandler := http.NewHealthHandler(deps.DB, deps.Redis)
	healthHandler.Register(app)

	api := app.Group("/api/v1")

	syncHandler := http.NewSyncHandler(
		deps.SyncService,
		deps.CursorRepo,
		deps.SyncLock,
		time.Duration(cfg.SyncLockTTLSec)*time.Second,
	)
	syncHandler.Register(api)

	activityHandler := http.NewActivityHandler(deps.ActivityRepo)
	activityHandler.Register(api)

	logger.Info("API server initialized")
	return app, cleanup, nil
}
