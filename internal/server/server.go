// Package server exposes the BITS Connect session over an HTTP JSON API.
package server

import (
	"context"
	"log/slog"
	"time"

	"bitsconnect/internal/app"
	"bitsconnect/internal/config"
	"bitsconnect/internal/identity"
	"bitsconnect/internal/models"
	"bitsconnect/internal/observability"
	"bitsconnect/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Deps are the already-initialized collaborators of a Server.
type Deps struct {
	Config   *config.Config
	Store    *store.Store
	Services app.Services
	Tokens   *identity.Tokens
	// Redis backs the auth rate limits. Nil fails open.
	Redis *redis.Client
	// Registerer receives the HTTP metrics. Nil uses the default registry.
	Registerer prometheus.Registerer
	// Ready reports whether the persistence backend is reachable.
	Ready func(ctx context.Context) error
	// Revocations records signed-out tokens. Nil uses Redis when present,
	// process memory otherwise.
	Revocations identity.Revocations
}

// Server holds all dependencies and provides handlers
type Server struct {
	config   *config.Config
	store    *store.Store
	services app.Services
	sessions *app.Registry
	tokens      *identity.Tokens
	revocations identity.Revocations
	redis       *redis.Client
	ready       func(ctx context.Context) error
	prom        *fiberprometheus.FiberPrometheus
	app         *fiber.App
	sweepCtx    context.Context
	stopSweep   context.CancelFunc
}

// New builds the Fiber app with middleware and routes installed.
func New(d Deps) *Server {
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	reg := d.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	revocations := d.Revocations
	switch {
	case revocations != nil:
	case d.Redis != nil:
		revocations = identity.NewRedisRevocations(d.Redis, "")
	default:
		revocations = identity.NewMemoryRevocations()
	}
	s := &Server{
		config:      cfg,
		store:       d.Store,
		services:    d.Services,
		sessions:    app.NewRegistry(d.Store, d.Services),
		tokens:      d.Tokens,
		revocations: revocations,
		redis:       d.Redis,
		ready:       d.Ready,
		prom:        fiberprometheus.NewWithRegistry(reg, "bitsconnect-api", "http", "", nil),
	}
	s.sweepCtx, s.stopSweep = context.WithCancel(context.Background())

	maxUpload := cfg.MediaMaxUploadBytes()
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	s.app = fiber.New(fiber.Config{
		AppName:      "BITS Connect API",
		BodyLimit:    int(maxUpload)*maxPostUploads + 1024*1024,
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)
	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Sessions returns the per-user session registry.
func (s *Server) Sessions() *app.Registry { return s.sessions }

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(a *fiber.App) {
	a.Use(recover.New())
	a.Use(requestid.New())
	a.Use(ContextMiddleware())
	a.Use(s.prom.Middleware)
	a.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	a.Use(StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	a.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	a.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
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
func (s *Server) SetupRoutes(a *fiber.App) {
	a.Get("/health/live", s.LivenessCheck)
	a.Get("/health/ready", s.ReadinessCheck)
	a.Get("/health", s.ReadinessCheck)
	s.prom.RegisterAt(a, "/metrics")

	mediaDir := s.config.MediaDir
	if mediaDir != "" {
		base := s.config.MediaBaseURL
		if base == "" {
			base = "/media"
		}
		a.Static(base, mediaDir, fiber.Static{MaxAge: 86400})
	}

	api := a.Group("/api")
	api.Get("/catalog", s.GetCatalog)

	auth := api.Group("/auth")
	auth.Post("/signup", RateLimit(s.redis, s.config.Env, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", RateLimit(s.redis, s.config.Env, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	protected := api.Group("", s.AuthRequired())

	me := protected.Group("/me")
	me.Get("/", s.GetMe)
	me.Put("/profile", s.UpdateMyProfile)
	me.Post("/avatar", s.UploadAvatar)
	me.Post("/banner", s.UploadBanner)

	// Everything below needs a completed profile.
	gated := protected.Group("", s.ProfileRequired())

	gated.Get("/feed", s.GetFeed)
	gated.Get("/search", s.Search)

	posts := gated.Group("/posts")
	posts.Post("/", s.CreatePost)
	posts.Post("/:id/like", s.LikePost)
	posts.Post("/:id/dislike", s.DislikePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.CreateComment)
	posts.Get("/:id", s.GetPost)

	users := gated.Group("/users")
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id", s.GetUser)

	conversations := gated.Group("/conversations")
	conversations.Get("/", s.GetConversations)
	conversations.Get("/active", s.GetActiveConversation)
	conversations.Get("/:userId/messages", s.GetMessages)
	conversations.Post("/:userId/messages", RateLimit(s.redis, s.config.Env, 30, time.Minute, "send_chat"), s.SendMessage)

	nav := gated.Group("/navigation")
	nav.Get("/", s.GetNavigation)
	nav.Post("/", s.Navigate)
}

// sessionSweepInterval is how often idle navigation sessions are pruned.
const sessionSweepInterval = 10 * time.Minute

// Listen serves on the configured port until Shutdown. Navigation sessions
// idle for longer than a token lifetime are dropped in the background.
func (s *Server) Listen() error {
	port := s.config.Port
	if port == "" {
		port = "8375"
	}
	go s.sessions.Sweep(s.sweepCtx, sessionSweepInterval, s.tokens.TTL())

	observability.Logger.Info("Server starting", slog.String("port", port))
	return s.app.Listen(":" + port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopSweep()
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		return err
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			observability.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// LivenessCheck reports that the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the persistence backend is reachable
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":      "degraded",
				"persistence": "unhealthy",
			})
		}
	}
	return c.JSON(fiber.Map{
		"status":      "ok",
		"persistence": "healthy",
		"version":     s.store.Version(),
	})
}

// GetCatalog handles GET /api/catalog
func (s *Server) GetCatalog(c *fiber.Ctx) error {
	cat := models.DefaultCatalog
	return c.JSON(fiber.Map{
		"campuses":             models.Campuses,
		"branches":             cat.Branches,
		"clubs":                cat.Clubs,
		"admissionYears":       cat.AdmissionYears(time.Now()),
		"relationshipStatuses": models.RelationshipStatuses,
	})
}
