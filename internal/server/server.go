// Package server contains the HTTP handlers of the huddle API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "huddle/docs" // swagger docs
	"huddle/internal/cache"
	"huddle/internal/config"
	"huddle/internal/database"
	"huddle/internal/events"
	"huddle/internal/middleware"
	"huddle/internal/observability"
	"huddle/internal/repository"
	"huddle/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
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

	store         *repository.Store
	publisher     *events.Publisher
	notifications *service.NotificationService
	interactions  *service.InteractionService
	feed          *service.FeedService
	polls         *service.PollService
	posts         *service.PostService
	trending      *service.TrendingService
}

// NewServer connects to the database and Redis described by cfg and builds
// the server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: activities are then dropped and rate limiting
// fails open.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("server requires a database")
	}
	store := repository.NewStore(db)
	publisher := events.NewPublisher(redisClient)
	notifications := service.NewNotificationService(store, publisher)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("huddle-api"),
		store:          store,
		publisher:      publisher,
		notifications:  notifications,
		interactions:   service.NewInteractionService(store, notifications, publisher),
		feed:           service.NewFeedService(store, cfg.FeedPageSize, cfg.FeedMaxPageSize),
		polls:          service.NewPollService(store, publisher),
		posts:          service.NewPostService(store, notifications, publisher),
		trending:       service.NewTrendingService(store, cfg.TrendingLimit, cfg.TrendingWindowDays),
	}
	s.app = s.newApp()
	return s, nil
}

// App returns the configured fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "huddle",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.CorrelationHeader,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api", middleware.AuthRequired(s.config.JWTSecret))
	limited := middleware.RateLimit(s.redis, s.config.RateLimitMutations,
		time.Duration(s.config.RateLimitWindowSecond)*time.Second, "mutations", middleware.FailOpen)

	api.Get("/feed", s.GetFeed)
	api.Get("/trending/hashtags", s.GetTrendingHashtags)

	posts := api.Group("/posts")
	posts.Post("/", limited, s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", limited, s.ToggleLike)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", limited, s.CreateComment)
	posts.Get("/:id/poll", s.GetPollResults)
	posts.Post("/:id/vote", limited, s.Vote)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", limited, s.DeletePost)

	characters := api.Group("/characters")
	characters.Post("/:id/follow", limited, s.ToggleFollow)
	characters.Post("/:id/activate", limited, s.ActivateCharacter)
	characters.Get("/:id", s.GetCharacter)

	notifications := api.Group("/notifications")
	notifications.Get("/", s.GetNotifications)
	notifications.Get("/unread-count", s.GetUnreadCount)
	notifications.Post("/read", s.MarkNotificationsRead)
}

// HealthCheck reports database and Redis reachability.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only carries the activity stream and rate limits, so its absence
	// degrades the service without failing the check.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start subscribes to the activity stream and serves HTTP until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	if err := s.publisher.StartSubscriber(s.shutdownCtx, logActivity); err != nil {
		observability.Logger.Warn("activity subscriber not started", slog.String("error", err.Error()))
	}

	observability.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

func logActivity(channel string, a events.Activity) {
	observability.Logger.Debug("activity",
		slog.String("channel", channel),
		slog.String("kind", string(a.Kind)),
		slog.Uint64("actor_id", uint64(a.ActorID)),
	)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.Logger.Info("server shutdown complete")
	return nil
}
