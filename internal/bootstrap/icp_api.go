package bootstrap

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"icp_server/adapter/in/http"
	"icp_server/config"
	"icp_server/infra/middleware"
	"icp_server/pkg/logger"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "icp-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,

		// go-json is noticeably faster than encoding/json for the ruleset
		// payloads, which carry two dozen keyword arrays.
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit: 1 * 1024 * 1024,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// CORS: credentials require explicit origins
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health check (no auth required)
	healthHandler := http.NewHealthHandler(deps.DB, deps.Redis, deps.MongoDB)
	healthHandler.Register(app)

	// API routes (with auth)
	api := app.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))

	rulesetHandler := http.NewRulesetHandler(deps.RulesetService)
	rulesetHandler.Register(api)

	scoringHandler := http.NewScoringHandler(deps.BatchService, deps.RulesetService, deps.TriggerLimiter)
	scoringHandler.Register(api)

	prospectHandler := http.NewProspectHandler(deps.ProspectRepo, deps.RulesetService)
	prospectHandler.Register(api)

	logger.Info("API routes registered")

	return app, cleanup, nil
}
