// Package server contains the HTTP and WebSocket handlers for the arena API.
package server

import (
	"context"
	"fmt"
	"time"

	"arena/internal/cache"
	"arena/internal/clock"
	"arena/internal/config"
	"arena/internal/database"
	"arena/internal/middleware"
	"arena/internal/models"
	"arena/internal/notifications"
	"arena/internal/repository"
	"arena/internal/service"
	"arena/internal/validation"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	clock          clock.Clock
	tokens         *middleware.Tokens
	notifier       *notifications.Notifier
	userRepo       repository.UserRepository
	debateRepo     repository.DebateRepository
	engine         *service.DebateEngine
	userService    *service.UserService
	leaderboard    *service.LeaderboardService
}

// Option customizes a Server built by NewServerWithDeps.
type Option func(*Server)

// WithClock drives debate expiry from clk instead of wall time.
func WithClock(clk clock.Clock) Option {
	return func(s *Server) { s.clock = clk }
}

// WithDebateRepository overrides the store selected by DEBATE_STORE.
func WithDebateRepository(repo repository.DebateRepository) Option {
	return func(s *Server) { s.debateRepo = repo }
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, which disables caching, rate limiting and live feeds.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	shutdownCtx, shutdownFn := context.WithCancel(context.Background())
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("arena-api"),
		shutdownCtx:    shutdownCtx,
		shutdownFn:     shutdownFn,
		clock:          clock.Real{},
		tokens:         middleware.NewTokens(cfg.JWTSecret),
		userRepo:       repository.NewUserRepository(db),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.debateRepo == nil {
		if cfg.DebateStore == config.DebateStoreDatabase {
			s.debateRepo = repository.NewDebateRepository(db)
		} else {
			s.debateRepo = repository.NewMemoryDebateRepository()
		}
	}

	leaderboardCache := cache.New(redisClient)
	engineOpts := []service.EngineOption{service.WithLeaderboardCache(leaderboardCache)}
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		engineOpts = append(engineOpts, service.WithEventPublisher(s.notifier))
	}

	filter := validation.NewContentFilter(cfg.BannedWordList())
	s.engine = service.NewDebateEngine(s.debateRepo, s.clock, filter, engineOpts...)
	s.userService = service.NewUserService(s.userRepo, s.clock)
	s.leaderboard = service.NewLeaderboardService(s.debateRepo, s.userRepo, leaderboardCache, s.clock, cfg.LeaderboardCacheTTL)

	return s, nil
}

// App builds the Fiber app on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Arena API",
		ErrorHandler: errorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses keep their headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: s.config.AllowedOrigins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	s.promMiddleware.RegisterAt(app, "/metrics")

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Arena Metrics Dashboard",
	}))

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	requireAuth := middleware.AuthRequired(s.tokens)
	api.Get("/me", requireAuth, s.Me)
	api.Get("/leaderboard", s.GetLeaderboard)

	debates := api.Group("/debates")
	debates.Get("/", s.ListDebates)
	debates.Get("/facets", s.GetFacets)
	debates.Post("/", requireAuth,
		middleware.RateLimit(s.redis, 5, 10*time.Minute, "create_debate"), s.CreateDebate)
	// Specific /:id/:resource routes before the generic /:id route
	debates.Get("/:id/arguments", s.ListArguments)
	debates.Get("/:id/tally", s.GetTally)
	debates.Get("/:id/result", s.GetResult)
	debates.Get("/:id/live", s.LiveFeedUpgrade, s.LiveFeed())
	debates.Get("/:id/side", requireAuth, s.GetMySide)
	debates.Post("/:id/join", requireAuth, s.JoinSide)
	debates.Post("/:id/arguments", requireAuth,
		middleware.RateLimit(s.redis, 10, time.Minute, "post_argument"), s.PostArgument)
	debates.Get("/:id", s.GetDebate)

	arguments := api.Group("/arguments", requireAuth)
	arguments.Post("/:id/vote", middleware.RateLimit(s.redis, 60, time.Minute, "vote"), s.VoteArgument)
	arguments.Put("/:id", s.EditArgument)
	arguments.Delete("/:id", s.DeleteArgument)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only an unreachable configured Redis fails readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":       overallStatus,
		"debate_store": s.config.DebateStore,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	addr := ":" + s.config.Port
	middleware.Logger.Info("starting server", "addr", addr, "env", s.config.Env, "debate_store", s.config.DebateStore)
	return s.App().Listen(addr)
}

// Shutdown closes live feeds, stops the HTTP server and releases connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()

	var firstErr error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			firstErr = err
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
