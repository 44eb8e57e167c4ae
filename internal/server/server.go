package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"aimarket/internal/cache"
	"aimarket/internal/config"
	"aimarket/internal/database"
	"aimarket/internal/middleware"
	"aimarket/internal/models"
	"aimarket/internal/repository"
	"aimarket/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Token issuer/audience pair checked on every authenticated request.
const (
	tokenIssuer   = "aimarket-api"
	tokenAudience = "aimarket-client"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo         repository.UserRepository
	projectRepo      repository.ProjectRepository
	replicationRepo  repository.ReplicationRepository
	demandRepo       repository.DemandRepository
	toolRepo         repository.ToolRepository
	notificationRepo repository.NotificationRepository

	authService         *service.AuthService
	userService         *service.UserService
	projectService      *service.ProjectService
	replicationService  *service.ReplicationService
	demandService       *service.DemandService
	toolService         *service.ToolService
	notificationService *service.NotificationService
}

// NewServer creates a server instance, establishing the database and Redis
// connections from config.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("aimarket-api"),

		userRepo:         repository.NewUserRepository(db),
		projectRepo:      repository.NewProjectRepository(db),
		replicationRepo:  repository.NewReplicationRepository(db),
		demandRepo:       repository.NewDemandRepository(db),
		toolRepo:         repository.NewToolRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
	}

	s.notificationService = service.NewNotificationService(s.notificationRepo)
	s.authService = service.NewAuthService(s.userRepo)
	s.userService = service.NewUserService(s.userRepo)
	s.projectService = service.NewProjectService(s.projectRepo, s.userRepo, s.notificationService)
	s.replicationService = service.NewReplicationService(s.replicationRepo, s.projectRepo, s.userRepo, s.notificationService)
	s.demandService = service.NewDemandService(s.demandRepo, s.userRepo, s.notificationService)
	s.toolService = service.NewToolService(s.toolRepo, s.userRepo, s.notificationService)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID and user ID into the request context
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

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
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/profile", s.AuthRequired(), s.GetProfile)
	auth.Patch("/profile", s.AuthRequired(), s.UpdateProfile)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// User management (admin only), plus the public department list
	api.Get("/departments", s.GetDepartments)
	users := api.Group("/users", s.AuthRequired(), s.AdminRequired())
	users.Post("/", s.CreateUser)
	users.Get("/", s.GetUsers)
	users.Get("/:id", s.GetUser)
	users.Patch("/:id", s.UpdateUser)
	users.Patch("/:id/points", s.UpdateUserPoints)
	users.Delete("/:id", s.DeleteUser)

	// Project routes - public browse
	publicProjects := api.Group("/projects")
	publicProjects.Get("/", s.GetProjects)
	// Specific /replications routes must precede the generic /:id routes.
	replications := api.Group("/projects/replications", s.AuthRequired())
	replications.Get("/all", s.AdminRequired(), s.GetReplications)
	replications.Get("/:id", s.GetReplication)
	replications.Patch("/:id/status", s.AdminRequired(), s.UpdateReplicationStatus)
	replications.Post("/:id/analyze", s.AdminRequired(), s.AnalyzeReplication)
	publicProjects.Get("/:id", s.GetProject)

	// Project routes - protected
	projects := api.Group("/projects", s.AuthRequired())
	projects.Post("/", s.CreateProject)
	projects.Post("/:id/like", s.LikeProject)
	projects.Delete("/:id/like", s.UnlikeProject)
	projects.Post("/:id/replicate", s.ApplyReplication)
	projects.Patch("/:id", s.UpdateProject)
	projects.Delete("/:id", s.DeleteProject)

	// Demand routes
	publicDemands := api.Group("/demands")
	publicDemands.Get("/", s.GetDemands)
	publicDemands.Get("/:id", s.GetDemand)
	demands := api.Group("/demands", s.AuthRequired())
	demands.Post("/", s.CreateDemand)
	demands.Post("/:id/follow", s.FollowDemand)
	demands.Delete("/:id/follow", s.UnfollowDemand)
	demands.Post("/:id/proposals", s.ProposeDemand)
	demands.Patch("/:id", s.UpdateDemand)
	demands.Delete("/:id", s.DeleteDemand)

	// Tool routes
	publicTools := api.Group("/tools")
	publicTools.Get("/", s.GetTools)
	publicTools.Get("/:id", s.GetTool)
	tools := api.Group("/tools", s.AuthRequired())
	tools.Post("/", s.CreateTool)
	tools.Post("/:id/reviews", s.ReviewTool)
	tools.Patch("/:id", s.UpdateTool)
	tools.Delete("/:id", s.DeleteTool)

	// Notification routes (always owner-scoped)
	notifications := api.Group("/notifications", s.AuthRequired())
	notifications.Post("/", s.CreateNotification)
	notifications.Get("/", s.GetNotifications)
	notifications.Get("/unread-count", s.GetUnreadCount)
	notifications.Patch("/read-all", s.MarkAllNotificationsRead)
	notifications.Get("/:id", s.GetNotification)
	notifications.Patch("/:id/read", s.MarkNotificationRead)
	notifications.Delete("/:id", s.DeleteNotification)
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

// AuthRequired returns the authentication middleware.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, role, err := s.validateToken(c, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(err.Error()))
		}

		c.Locals("userID", userID)
		c.Locals("userRole", role)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// validateToken parses the JWT and enforces issuer, audience and revocation.
func (s *Server) validateToken(c *fiber.Ctx, tokenString string) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", fmt.Errorf("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("Invalid token claims")
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
		return 0, "", fmt.Errorf("Invalid token issuer")
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
		return 0, "", fmt.Errorf("Invalid token audience")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, "", fmt.Errorf("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("Invalid user ID in token")
	}

	// Check JTI for revocation
	if jti, exists := claims["jti"].(string); exists && jti != "" && s.redis != nil {
		isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
		if err == nil && isBlacklisted > 0 {
			return 0, "", fmt.Errorf("Token has been revoked")
		}
	}

	role, _ := claims["role"].(string)
	return uint(userID), role, nil
}

// AdminRequired rejects non-admin users with 403. Must be placed after
// AuthRequired so the role claim is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentRole(c) != models.RoleAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("需要管理员权限"))
		}
		return c.Next()
	}
}

// optionalUser extracts the caller's identity from the Authorization header
// without enforcing it, for public reads that personalize (e.g. liked flags).
func (s *Server) optionalUser(c *fiber.Ctx) (uint, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, ""
	}
	userID, role, err := s.validateToken(c, parts[1])
	if err != nil {
		return 0, ""
	}
	return userID, role
}

// Start starts the server.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "AI Marketplace API",
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
