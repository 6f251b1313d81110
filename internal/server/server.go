package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/shopworks/storefront/internal/config"
	"github.com/shopworks/storefront/internal/domain"
	"github.com/shopworks/storefront/internal/handler"
	"github.com/shopworks/storefront/internal/middleware"
	"github.com/shopworks/storefront/internal/repository"
	"github.com/shopworks/storefront/internal/service"
	"github.com/shopworks/storefront/internal/telemetry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	Logger      *zap.Logger
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	Verifier    service.TokenVerifier
	Avatars     domain.AvatarRepository // optional; avatar upload disabled when nil
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Initialize repositories
	userRepo := repository.NewMongoUserRepository(deps.MongoDB)
	sessionStore := repository.NewRedisSessionStore(deps.RedisClient, deps.Config.Session.TTL)

	// Initialize services
	authService := service.NewAuthService(deps.Verifier, userRepo, sessionStore)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, deps.Config.Session)
	profileHandler := handler.NewProfileHandler(deps.Avatars, deps.Config.Server.MaxUploadSizeMB)
	adminHandler := handler.NewAdminHandler(userRepo)
	branchHandler := handler.NewBranchHandler(userRepo)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Storefront API",
		BodyLimit: int(deps.Config.Server.MaxUploadSizeMB * 1024 * 1024),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(telemetry.FiberMiddleware())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "storefront-api",
		})
	})

	// API v1 routes. Identity resolution runs on every request: session first,
	// then the token cookie. Neither blocks; downstream policies decide.
	v1 := app.Group("/v1")
	v1.Use(middleware.SessionAuth(sessionStore, deps.Config.Session.CookieName, log))
	v1.Use(middleware.FirebaseCookieAuth(authService, log))

	// Auth endpoints (public)
	auth := v1.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)

	// Authenticated profile endpoints
	me := v1.Group("/me")
	me.Get("/", profileHandler.Me)
	me.Post("/avatar", profileHandler.UploadAvatar)

	// Admin panel endpoints (privileged roles only)
	admin := v1.Group("/admin")
	admin.Use(middleware.RequireClaim(domain.ClaimCanAccessAdminPanel))

	adminUsers := admin.Group("/users")
	adminUsers.Get("/", adminHandler.ListUsers)
	adminUsers.Get("/:id", adminHandler.GetUser)
	adminUsers.Put("/:id/role", middleware.RequireClaim(domain.ClaimCanManageUsers), adminHandler.UpdateUserRole)

	// ERP branch endpoints (BranchAccess claims)
	erp := v1.Group("/erp")
	erp.Get("/branches/:id/summary", middleware.RequireBranchAccess("id"), branchHandler.Summary)

	return app
}
