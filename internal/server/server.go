// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"phora/internal/cache"
	"phora/internal/config"
	"phora/internal/database"
	"phora/internal/livechat"
	"phora/internal/middleware"
	"phora/internal/models"
	"phora/internal/repository"
	"phora/internal/resolver"
	"phora/internal/service"

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
	log            *slog.Logger

	cacheManager *cache.Manager
	resolver     *resolver.Resolver

	userRepo    repository.UserRepository
	subRepo     repository.SubRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	messageRepo repository.MessageRepository
	siteRepo    repository.SiteRepository

	userService    *service.UserService
	subService     *service.SubService
	postService    *service.PostService
	commentService *service.CommentService
	voteService    *service.VoteService
	messageService *service.MessageService
	siteService    *service.SiteService

	chatHub *livechat.Hub
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.NewRedisClient(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized
// dependencies. Tests use this with an in-memory DB and a nil or fake
// Redis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	log := middleware.Logger

	cacheManager, err := cache.NewDefaultManager(log, cfg.CacheTimeout(), cfg.CacheLocalSize,
		cache.NewRedisBackend(redisClient))
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	res := resolver.New(db, cacheManager, log, cfg.DBTimeout())

	dbTimeout := cfg.DBTimeout()
	userRepo := repository.NewUserRepository(db, cacheManager, dbTimeout)
	subRepo := repository.NewSubRepository(db, cacheManager, dbTimeout)
	postRepo := repository.NewPostRepository(db, cacheManager, dbTimeout)
	commentRepo := repository.NewCommentRepository(db, cacheManager, dbTimeout)
	messageRepo := repository.NewMessageRepository(db, cacheManager, dbTimeout)
	siteRepo := repository.NewSiteRepository(db, cacheManager, dbTimeout)

	prom := middleware.InitMetrics("phora-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		log:            log,
		cacheManager:   cacheManager,
		resolver:       res,
		userRepo:       userRepo,
		subRepo:        subRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		messageRepo:    messageRepo,
		siteRepo:       siteRepo,
	}

	server.userService = service.NewUserService(userRepo, res)
	server.subService = service.NewSubService(subRepo, postRepo, res)
	server.postService = service.NewPostService(postRepo, userRepo, subRepo, res, log)
	server.commentService = service.NewCommentService(commentRepo, postRepo, res)
	server.voteService = service.NewVoteService(db, res, log)
	server.messageService = service.NewMessageService(messageRepo, userRepo)
	server.siteService = service.NewSiteService(siteRepo, postRepo, res)

	server.chatHub = livechat.NewHub(server.siteService, log)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
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

// SetupRoutes configures all routes for the application
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
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Phora Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public browse routes
	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetRecentPosts)
	publicPosts.Get("/announcement", s.GetAnnouncement)
	publicPosts.Get("/:pid/comments", s.GetCommentTree)
	publicPosts.Get("/:pid/comments/children", s.GetCommentChildren)
	publicPosts.Get("/:pid", s.GetPost)

	publicSubs := api.Group("/subs")
	publicSubs.Get("/:name", s.GetSub)
	publicSubs.Get("/:name/posts", s.GetSubPosts)
	publicSubs.Get("/:name/flairs", s.GetSubFlairs)
	publicSubs.Get("/:name/stylesheet", s.GetSubStylesheet)

	api.Get("/users/:name", s.GetUserProfile)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	me := protected.Group("/me")
	me.Get("/", s.GetMyProfile)
	me.Put("/preferences", s.SetPreference)
	me.Get("/subscriptions", s.GetMySubscriptions)

	subs := protected.Group("/subs")
	subs.Post("/", middleware.RateLimit(
		s.redis, 2, 10*time.Minute, "create_sub"), s.CreateSub)
	subs.Post("/:name/subscribe", s.SubscribeSub)
	subs.Post("/:name/block", s.BlockSub)
	subs.Post("/:name/flairs", s.AddSubFlair)
	subs.Put("/:name/stylesheet", s.SetSubStylesheet)
	subs.Put("/:name/nsfw", s.SetSubNSFW)
	subs.Put("/:name/sticky", s.SetSubSticky)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 2, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:pid/vote", s.VotePost)
	posts.Post("/:pid/comments", middleware.RateLimit(
		s.redis, 5, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:pid", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Post("/:cid/vote", s.VoteComment)
	comments.Put("/:cid", s.UpdateComment)
	comments.Delete("/:cid", s.DeleteComment)

	messages := protected.Group("/messages")
	messages.Get("/inbox", s.GetInbox)
	messages.Get("/sent", s.GetSent)
	messages.Get("/saved", s.GetSaved)
	messages.Get("/unread-count", s.GetUnreadCount)
	messages.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "send_message"), s.SendMessage)
	messages.Post("/read-all", s.MarkAllMessagesRead)
	messages.Get("/:mid", s.ReadMessage)
	messages.Put("/:mid/status", s.SetMessageStatus)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Put("/announcement", s.SetAnnouncement)
	admin.Delete("/announcement", s.ClearAnnouncement)
	admin.Get("/sitelog", s.GetSiteLog)
	admin.Put("/users/:uid/status", s.SetUserStatus)

	// Live chat over WebSocket
	api.Get("/live/chat", middleware.WebSocketAuthRequired, s.LiveChatHandler())
	api.Get("/live/history", s.GetChatHistory)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis being down
// degrades caching to misses, so it reports but does not fail readiness.
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

// AdminRequired returns middleware that rejects non-admin users with
// 403. Must be placed after AuthRequired so the uid is available.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := c.Locals("userUID").(string)

		admin, err := s.isAdminByUID(c.UserContext(), uid)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Admin access required"))
		}
		return c.Next()
	}
}

// isAdminByUID checks the user's "admin" metadata flag.
func (s *Server) isAdminByUID(ctx context.Context, uid string) (bool, error) {
	md, err := s.userRepo.GetMetadata(ctx, uid, "admin")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return md.Value == "1", nil
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Phora API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			s.log.Error("unhandled request error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	s.log.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			s.log.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.chatHub != nil {
		if err := s.chatHub.Shutdown(ctx); err != nil {
			s.log.Error("error shutting down live chat", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			s.log.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			s.log.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	s.log.Info("server shutdown complete")
	return nil
}
