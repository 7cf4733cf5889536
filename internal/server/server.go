// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	_ "virtuefeed/docs" // swagger docs
	"virtuefeed/internal/bootstrap"
	"virtuefeed/internal/config"
	"virtuefeed/internal/featureflags"
	"virtuefeed/internal/job"
	"virtuefeed/internal/llm"
	"virtuefeed/internal/middleware"
	"virtuefeed/internal/models"
	"virtuefeed/internal/repository"
	"virtuefeed/internal/service"
	"virtuefeed/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	verifier        *middleware.IdentityVerifier
	flags           *featureflags.Set
	store           storage.ImageStore
	uploader        *storage.Uploader
	userRepo        repository.UserRepository
	postRepo        repository.PostRepository
	commentRepo     repository.CommentRepository
	reactionRepo    repository.ReactionRepository
	postService     *service.PostService
	commentService  *service.CommentService
	reactionService *service.ReactionService
	userService     *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	verifier, err := middleware.NewIdentityVerifier(cfg)
	if err != nil {
		return nil, err
	}

	flags := featureflags.Parse(cfg.FeatureFlags)
	if names := flags.Names(); len(names) > 0 {
		middleware.Logger.Info("feature flags configured", "flags", names)
	}
	rewriter, err := newRewriter(cfg, flags)
	if err != nil {
		return nil, fmt.Errorf("content rewriter: %w", err)
	}

	store, err := storage.NewFromConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("image store: %w", err)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("virtuefeed-api"),
		verifier:       verifier,
		flags:          flags,
		store:          store,
		uploader:       storage.NewUploader(store, cfg.ImageMaxUploadBytes()),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		reactionRepo:   repository.NewReactionRepository(db),
	}

	// A typed nil would defeat the nil check in UserService.Sync.
	var profiles service.ProfileFetcher
	if cfg.IDPSecretKey != "" {
		profiles = service.NewRestProfileFetcher(cfg.IDPAPIURL, cfg.IDPSecretKey)
	}

	server.postService = service.NewPostService(server.postRepo, rewriter, service.PostRules{
		MaxContentLength: cfg.PostMaxContentLength,
		ImageRequired:    cfg.PostImageRequired,
	})
	server.commentService = service.NewCommentService(server.commentRepo, server.postRepo, rewriter)
	server.reactionService = service.NewReactionService(server.reactionRepo, server.postRepo)
	server.userService = service.NewUserService(server.userRepo, profiles)

	return server, nil
}

func newRewriter(cfg *config.Config, flags *featureflags.Set) (service.ContentRewriter, error) {
	if cfg.RewriteProvider != "openai" {
		return service.TrimRewriter{}, nil
	}
	primary, err := llm.NewOpenAIRewriter(cfg)
	if err != nil {
		return nil, err
	}
	return service.FlaggedRewriter{Flags: flags, Primary: primary, Fallback: service.TrimRewriter{}}, nil
}

// UploadCleanupJob returns the orphan sweep over this server's image store.
func (s *Server) UploadCleanupJob() *job.UploadCleanupJob {
	ttl := time.Duration(s.config.UploadOrphanTTLHours) * time.Hour
	return job.NewUploadCleanupJob(s.store, s.postRepo, ttl)
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:     "Virtuefeed API",
		BodyLimit:   int(s.config.ImageMaxUploadBytes()) + 1024*1024,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
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

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Uploaded images are embedded by the web client from another origin.
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
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
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if s.store.Driver() == "local" {
		app.Static(s.config.UploadPublicPath, s.config.UploadDir, fiber.Static{MaxAge: 86400})
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	optional := middleware.OptionalIdentity(s.verifier)
	authed := middleware.RequireIdentity(s.verifier)
	member := []fiber.Handler{authed, s.requireUser()}

	posts := api.Group("/posts")
	posts.Get("/", optional, s.ListPosts)
	posts.Post("/", append(member, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)...)
	// Specific /:id/:resource routes before the generic /:id routes
	posts.Get("/:id/comments", optional, s.ListComments)
	posts.Post("/:id/comments", append(member, middleware.RateLimit(s.redis, 30, time.Minute, "create_comment"), s.CreateComment)...)
	posts.Get("/:id/reaction", append(member, s.GetReaction)...)
	posts.Put("/:id/reaction", append(member, s.UpsertReaction)...)
	posts.Delete("/:id/reaction", append(member, s.RemoveReaction)...)
	posts.Post("/:id/reactions", append(member, middleware.RateLimit(s.redis, 60, time.Minute, "toggle_reaction"), s.ToggleReaction)...)
	posts.Delete("/:id/reactions", append(member, middleware.RateLimit(s.redis, 60, time.Minute, "toggle_reaction"), s.ToggleReaction)...)
	posts.Get("/:id", optional, s.GetPost)
	posts.Patch("/:id", append(member, s.UpdatePost)...)
	posts.Delete("/:id", append(member, s.DeletePost)...)

	comments := api.Group("/comments")
	comments.Patch("/:id", append(member, s.UpdateComment)...)
	comments.Delete("/:id", append(member, s.DeleteComment)...)

	users := api.Group("/users")
	users.Get("/me", authed, s.GetMe)
	users.Patch("/me", authed, s.UpdateMe)
	users.Post("/sync", authed, s.SyncUser)
	users.Get("/:id", s.GetUserProfile)

	api.Post("/webhooks", s.HandleIdentityWebhook)

	uploadLimit := middleware.RateLimitRule{Name: "upload_image", Limit: 20, Window: time.Minute, Policy: middleware.FailClosed}
	api.Post("/uploads/image", append(member, uploadLimit.Handler(s.redis), s.UploadImage)...)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs the cache and rate limits, so its absence degrades but does not fail readiness.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  s.store.Driver(),
		},
		"time": time.Now().UTC(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
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
