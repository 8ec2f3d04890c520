// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "unajuda/docs" // swagger docs
	"unajuda/internal/config"
	"unajuda/internal/featureflags"
	"unajuda/internal/middleware"
	"unajuda/internal/models"
	"unajuda/internal/notifications"
	"unajuda/internal/reputation"
	"unajuda/internal/repository"
	"unajuda/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
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
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	policy         reputation.Policy

	userService       *service.UserService
	questionService   *service.QuestionService
	answerService     *service.AnswerService
	replyService      *service.ReplyService
	voteService       *service.VoteService
	statsService      *service.StatsService
	badgeService      *service.BadgeService
	reputationService *service.ReputationService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; the change feed then stays inside this process.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	policy, err := reputation.PolicyFor(cfg.ReputationPolicy)
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("reputation policy %s: %w", policy.Version, err)
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	notifier := notifications.NewNotifier(redisClient)
	hub := notifications.NewHub()
	if redisClient == nil {
		notifier.SetLocalDispatcher(hub.Dispatch)
	}
	publisher := service.GatePublisher(notifier, flags)

	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	stats := service.NewStatsService(repository.NewStatsRepository(db), policy, flags,
		time.Duration(cfg.StatsCacheTTLSeconds)*time.Second)
	badges := service.NewBadgeService(badgeRepo, publisher, flags)
	rep := service.NewReputationService(stats, badges)

	return &Server{
		config:            cfg,
		db:                db,
		redis:             redisClient,
		promMiddleware:    middleware.InitMetrics("unajuda-api"),
		notifier:          notifier,
		hub:               hub,
		featureFlags:      flags,
		policy:            policy,
		userService:       service.NewUserService(userRepo),
		questionService:   service.NewQuestionService(questionRepo, categoryRepo, publisher, rep),
		answerService:     service.NewAnswerService(answerRepo, questionRepo, publisher, rep),
		replyService:      service.NewReplyService(replyRepo, answerRepo, questionRepo, publisher),
		voteService:       service.NewVoteService(voteRepo, publisher, rep),
		statsService:      stats,
		badgeService:      badges,
		reputationService: rep,
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS before the limiter so 429 responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Muitas requisições. Tente novamente em instantes.",
			})
		},
	}))
}

func (s *Server) failPolicy() middleware.FailPolicy {
	if s.config.RateLimitFailOpen {
		return middleware.FailOpen
	}
	return middleware.FailClosed
}

func (s *Server) rateLimit(limit int, window time.Duration, name string) fiber.Handler {
	return middleware.RateLimitWithPolicy(s.redis, limit, window, s.failPolicy(), name)
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/ws", middleware.WebSocketAuth, s.WebSocketUpgrade, s.WebSocketHandler())

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/feature-flags", middleware.OptionalAuth, s.GetFeatureFlags)

	auth := api.Group("/auth")
	auth.Post("/signup", s.rateLimit(3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", s.rateLimit(10, 5*time.Minute, "login"), s.Login)

	api.Get("/categories", s.GetCategories)
	api.Get("/badges", s.GetBadges)

	// /me routes before /:id
	users := api.Group("/users")
	users.Get("/me", middleware.AuthRequired, s.GetMyProfile)
	users.Put("/me", middleware.AuthRequired, s.UpdateMyProfile)
	users.Get("/:id/questions", s.GetUserQuestions)
	users.Get("/:id/answers", s.GetUserAnswers)
	users.Get("/:id/stats", middleware.OptionalAuth, s.GetUserStats)
	users.Get("/:id/reputation", s.GetUserReputation)
	users.Get("/:id/badges", s.GetUserBadges)
	users.Get("/:id", s.GetUserProfile)

	questions := api.Group("/questions")
	questions.Get("/", s.GetQuestions)
	questions.Post("/", middleware.AuthRequired, s.rateLimit(5, 5*time.Minute, "create_question"), s.CreateQuestion)
	questions.Get("/:id/answers", s.GetAnswers)
	questions.Post("/:id/answers", middleware.AuthRequired, s.rateLimit(10, 5*time.Minute, "create_answer"), s.CreateAnswer)
	questions.Get("/:id/votes", middleware.OptionalAuth, s.GetQuestionVotes)
	questions.Post("/:id/vote", middleware.AuthRequired, s.rateLimit(60, time.Minute, "vote"), s.VoteQuestion)
	questions.Get("/:id", s.GetQuestion)

	answers := api.Group("/answers")
	answers.Post("/:id/accept", middleware.AuthRequired, s.AcceptAnswer)
	answers.Get("/:id/replies", s.GetReplies)
	answers.Post("/:id/replies", middleware.AuthRequired, s.rateLimit(15, time.Minute, "create_reply"), s.CreateReply)
	answers.Get("/:id/votes", middleware.OptionalAuth, s.GetAnswerVotes)
	answers.Post("/:id/vote", middleware.AuthRequired, s.rateLimit(60, time.Minute, "vote"), s.VoteAnswer)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without it
// the service runs with a process-local change feed and no stats cache.
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

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus == "unhealthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":         overallStatus,
		"policy_version": s.policy.Version,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "UnAjuda API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			slog.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, models.StatusFor(err), err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		slog.Error("change feed subscriber failed to start", slog.String("error", err.Error()))
	}

	slog.Info("server starting", slog.String("port", s.config.Port), slog.String("policy", s.policy.Version))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		slog.Error("error shutting down change feed", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	slog.Info("server shutdown complete")
	return nil
}
