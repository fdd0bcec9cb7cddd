package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/repository"
	"warbler/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server owns the fiber app and everything its handlers depend on.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *middleware.SessionManager
	userRepo       repository.UserRepository
	messageRepo    repository.MessageRepository
	likeRepo       repository.LikeRepository
	followRepo     repository.FollowRepository
	gate           *service.Gate
	userService    *service.UserService
	messageService *service.MessageService
	followService  *service.FollowService
}

// NewServer connects to the configured database and Redis and builds the app.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limits and session revocation are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	cache.SetClient(redisClient)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("warbler"),
		sessions: middleware.NewSessionManager(
			cfg.SessionSecret,
			time.Duration(cfg.SessionTTLHours)*time.Hour,
			redisClient,
			cfg.IsProduction(),
		),
		userRepo:    repository.NewUserRepository(db),
		messageRepo: repository.NewMessageRepository(db),
		likeRepo:    repository.NewLikeRepository(db),
		followRepo:  repository.NewFollowRepository(db),
	}

	server.gate = service.NewGate(server.userRepo)
	server.userService = service.NewUserService(server.userRepo, server.followRepo)
	server.messageService = service.NewMessageService(server.messageRepo, server.likeRepo, server.followRepo, server.gate)
	server.followService = service.NewFollowService(server.followRepo, server.userRepo)

	app := fiber.New(fiber.Config{
		AppName:      "Warbler",
		Views:        newViewEngine(),
		ViewsLayout:  defaultLayout,
		ErrorHandler: server.errorHandler,
	})
	server.SetupMiddleware(app)
	server.SetupRoutes(app)
	server.app = app

	return server, nil
}

// App returns the configured Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware installs the global chain. Order matters: request ids
// must exist before logging, and the session must be resolved before any
// route handler runs.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Avatars and header images are arbitrary remote URLs.
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLogger())
	app.Use(cors.New(s.corsConfig()))
	app.Use(limiter.New(pageLimiterConfig()))

	app.Use(s.sessions.Middleware())
	app.Use(s.ResolveUser())
	app.Use(csrf.New(s.csrfConfig()))
}

func (s *Server) corsConfig() cors.Config {
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:" + s.config.Port
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           int((24 * time.Hour).Seconds()),
	}
}

const (
	csrfCookieName = "warbler_csrf"
	csrfFormField  = "_csrf"
	csrfContextKey = "csrf"
)

// msgFormExpired is flashed when a form comes back without a valid token.
const msgFormExpired = "Your form has expired. Please try again."

// csrfConfig guards every unsafe request with a double-submit token posted
// in the _csrf form field. Test mode skips the check.
func (s *Server) csrfConfig() csrf.Config {
	return csrf.Config{
		Next: func(c *fiber.Ctx) bool {
			return s.config.Env == "test"
		},
		KeyLookup:      "form:" + csrfFormField,
		CookieName:     csrfCookieName,
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		CookieSecure:   s.config.IsProduction(),
		Expiration:     time.Hour,
		ContextKey:     csrfContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.WarnContext(c.UserContext(), "csrf check failed",
				"error", err, "method", c.Method(), "path", c.Path())
			return s.handleError(c, models.NewValidationError(msgFormExpired))
		},
	}
}

// pageLimiterConfig caps each client IP at 100 requests a minute, not
// counting static assets. It is in-process and complements the Redis
// limits on the signup, login and posting routes.
func pageLimiterConfig() limiter.Config {
	return limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/static/")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}
}

// SetupRoutes mounts static assets, operational endpoints and the pages.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Use("/static", staticHandler())

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Warbler Metrics Dashboard",
	}))

	app.Get("/", s.Homepage)

	// Auth routes
	app.Get("/signup", s.SignupForm)
	app.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	app.Get("/login", s.LoginForm)
	app.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", s.Logout)

	loginRequired := s.LoginRequired()

	// User routes. Fixed paths before /:id.
	users := app.Group("/users")
	users.Get("/", s.ListUsers)
	users.Get("/profile", loginRequired, s.EditProfileForm)
	users.Post("/profile", loginRequired, s.UpdateProfile)
	users.Get("/password", loginRequired, s.EditPasswordForm)
	users.Post("/password", loginRequired, s.ChangePassword)
	users.Get("/:id/following", loginRequired, s.ShowFollowing)
	users.Get("/:id/followers", loginRequired, s.ShowFollowers)
	users.Get("/:id/likes", loginRequired, s.ShowLikes)
	users.Post("/:id/follow", loginRequired, s.FollowUser)
	users.Post("/:id/unfollow", loginRequired, s.UnfollowUser)
	users.Get("/:id", loginRequired, s.ShowUser)

	// Message routes
	messages := app.Group("/messages")
	messages.Get("/new", loginRequired, s.NewMessageForm)
	messages.Post("/new", loginRequired, middleware.RateLimit(
		s.redis, 30, time.Minute, "create_message"), s.CreateMessage)
	messages.Post("/:id/delete", loginRequired, s.DeleteMessage)
	messages.Post("/:id/like", loginRequired, s.LikeMessage)
	messages.Post("/:id/unlike", loginRequired, s.UnlikeMessage)
	messages.Get("/:id", s.ShowMessage)

	// Anything left renders the 404 page
	app.Use(s.notFound)
}

// LivenessCheck reports that the process is serving requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

// ReadinessCheck pings the database and, when configured, Redis. Redis is
// optional, so a server running without it reports "disabled" and stays ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	checks := fiber.Map{"database": "healthy", "redis": "disabled"}
	ready := true

	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "unhealthy"
		ready = false
	}
	if s.redis != nil {
		checks["redis"] = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy"
			ready = false
		}
	}

	status, overall := fiber.StatusOK, "healthy"
	if !ready {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
		"time":   time.Now(),
	})
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	middleware.Logger.Info("warbler listening", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, then closes the database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http: %w", err))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	middleware.Logger.Info("warbler stopped")
	return nil
}
