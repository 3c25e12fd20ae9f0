// Package server exposes the forum's domain operations over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"levelforum/internal/cache"
	"levelforum/internal/config"
	"levelforum/internal/database"
	"levelforum/internal/middleware"
	"levelforum/internal/models"
	"levelforum/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	safe          *service.SafeExecutor
	users         *service.UserService
	topics        *service.TopicService
	follows       *service.TopicFollowService
	posts         *service.PostService
	comments      *service.CommentService
	votes         *service.VoteService
	reports       *service.ReportService
	notifications *service.NotificationService
}

// NewServer creates a server instance, establishing the database and Redis
// connections itself.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient()), nil
}

// NewServerWithDeps creates a Server from already-initialized dependencies.
// Tests use this with an in-memory database and no Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	middleware.InitMiddleware(cfg)

	safe := service.NewSafeExecutor(db)
	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("levelforum-api"),
		safe:           safe,
		users:          service.NewUserService(db, safe),
		topics:         service.NewTopicService(db, safe),
		follows:        service.NewTopicFollowService(db, safe),
		posts:          service.NewPostService(db, safe),
		comments:       service.NewCommentService(db, safe),
		votes:          service.NewVoteService(db, safe),
		reports:        service.NewReportService(db, safe),
		notifications:  service.NewNotificationService(db, safe),
	}
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public user routes
	users := api.Group("/users")
	users.Get("/username/:username", s.GetUserByUsername)
	users.Get("/:id", s.GetUserProfile)

	// Protected user routes
	me := api.Group("/me", middleware.IdentityRequired)
	me.Get("/", s.GetMyProfile)
	me.Put("/", s.UpdateMyProfile)
	me.Post("/username", s.ChangeMyUsername)
	me.Post("/password", s.ChangeMyPassword)
	me.Get("/topics", s.GetMyFollowedTopics)
	me.Get("/feed", s.GetMyFeed)

	// Notification routes
	notifications := api.Group("/notifications", middleware.IdentityRequired)
	notifications.Get("/", s.GetNotifications)
	notifications.Get("/count", s.GetNotificationCount)
	notifications.Delete("/", s.ClearNotifications)

	// Topic routes
	topics := api.Group("/topics")
	topics.Get("/", middleware.OptionalIdentity, s.SearchTopics)
	topics.Get("/suggestions", middleware.OptionalIdentity, s.GetTopicSuggestions)
	topics.Post("/", middleware.IdentityRequired, s.CreateTopic)
	// Specific /:id/:resource routes BEFORE generic /:id route
	topics.Get("/:id/posts", middleware.OptionalIdentity, s.GetTopicPosts)
	topics.Get("/:id/roles", middleware.IdentityRequired, s.GetTopicRoles)
	topics.Put("/:id/roles", middleware.IdentityRequired,
		middleware.RequireRole(models.RoleModerator), s.DefineTopicRoles)
	topics.Post("/:id/follow", middleware.IdentityRequired, s.FollowTopic)
	topics.Delete("/:id/follow", middleware.IdentityRequired, s.UnfollowTopic)
	topics.Post("/:id/lock", middleware.IdentityRequired,
		middleware.RequireRole(models.RoleModerator), s.LockTopic)
	topics.Delete("/:id/lock", middleware.IdentityRequired,
		middleware.RequireRole(models.RoleModerator), s.UnlockTopic)
	topics.Post("/:id/ban", middleware.IdentityRequired,
		middleware.RequireRole(models.RoleAdmin), s.BanTopic)
	topics.Delete("/:id/ban", middleware.IdentityRequired,
		middleware.RequireRole(models.RoleAdmin), s.UnbanTopic)
	topics.Put("/:id", middleware.IdentityRequired, s.UpdateTopic)
	topics.Delete("/:id", middleware.IdentityRequired,
		middleware.RequireRole(models.RoleModerator), s.DeleteTopic)
	topics.Get("/:id", s.GetTopic)

	// Post routes
	posts := api.Group("/posts")
	posts.Post("/", middleware.IdentityRequired, middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", middleware.OptionalIdentity, s.GetPostComments)
	posts.Post("/:id/comments", middleware.IdentityRequired, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id", middleware.IdentityRequired, s.UpdatePost)
	posts.Delete("/:id", middleware.IdentityRequired, s.DeletePost)
	posts.Get("/:id", middleware.OptionalIdentity, s.GetPost)

	// Comment routes
	comments := api.Group("/comments")
	comments.Get("/:id/replies", middleware.OptionalIdentity, s.GetCommentReplies)
	comments.Put("/:id", middleware.IdentityRequired, s.UpdateComment)
	comments.Delete("/:id", middleware.IdentityRequired, s.DeleteComment)

	// Vote routes; the path carries the tagged target.
	votes := api.Group("/votes")
	votes.Put("/:targetType/:id", middleware.IdentityRequired, middleware.RateLimit(
		s.redis, 30, time.Minute, "vote"), s.ToggleVote)
	votes.Get("/:targetType/:id", middleware.OptionalIdentity, s.GetVoteState)

	// Report routes
	reports := api.Group("/reports", middleware.IdentityRequired)
	reports.Post("/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "create_report"), s.CreateReport)

	moderation := reports.Group("", middleware.RequireRole(models.RoleModerator))
	moderation.Get("/", s.ListReports)
	moderation.Get("/target/:targetType/:id/info", s.GetReportTargetInfo)
	moderation.Get("/target/:targetType/:id", s.ListReportsForTarget)
	moderation.Post("/:id/review", s.ReviewReport)
	moderation.Post("/:id/close", s.CloseReport)
	moderation.Post("/:id/delete-target", s.DeleteReportTarget)
	moderation.Get("/:id", s.GetReport)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis only backs rate limiting; the API stays up without it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "LevelForum API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
