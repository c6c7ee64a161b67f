package routes

import (
	"meterhub/internal/adapters/http/handlers"
	"meterhub/internal/adapters/http/middleware"
	"meterhub/internal/adapters/persistence/repositories"
	"meterhub/internal/adapters/storage"
	"meterhub/internal/config"
	"meterhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Store   *repositories.Store
	Auth    *services.AuthService
	Users   *services.UserService
	Catalog *services.CatalogService
	Ledger  *services.LedgerService

	// UploadDir is served under /uploads when photos are kept on local disk
	UploadDir string
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps *Dependencies, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Store, cfg.AppMode)
	authHandler := handlers.NewAuthHandler(deps.Auth, cfg)
	userHandler := handlers.NewUserHandler(deps.Users)
	campusHandler := handlers.NewCampusHandler(deps.Catalog)
	meterHandler := handlers.NewMeterHandler(deps.Catalog)
	readingHandler := handlers.NewReadingHandler(deps.Ledger, cfg.Photos.MaxDimension)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Photo files
	if deps.UploadDir != "" {
		app.Static(storage.UploadsRoute, deps.UploadDir, fiber.Static{
			MaxAge: 86400,
		})
	}

	auth := middleware.AuthMiddleware(cfg.JWT.Secret)
	setupAuthRoutes(app, auth, authHandler)
	setupCatalogRoutes(app, auth, campusHandler, meterHandler, cfg)
	setupReadingRoutes(app, auth, readingHandler)

	// User management routes (Admin only)
	userRoutes := app.Group("/users")
	userRoutes.Use(auth)
	setupUserRoutes(userRoutes, userHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, auth fiber.Handler, handler *handlers.AuthHandler) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", auth, middleware.Require(middleware.OpAuthMe), handler.Me)
	router.Post("/logout-all", auth, middleware.Require(middleware.OpAuthMe), handler.LogoutAll)
}

// setupCatalogRoutes configures campus, location type and meter registry routes
func setupCatalogRoutes(router fiber.Router, auth fiber.Handler, campuses *handlers.CampusHandler, meters *handlers.MeterHandler, cfg *config.Config) {
	masterData := middleware.MasterDataCache(cfg.CacheTTL)

	router.Get("/campuses", auth, masterData, middleware.Require(middleware.OpCampusList), campuses.ListCampuses)
	router.Post("/campuses", auth, middleware.Require(middleware.OpCampusCreate), campuses.CreateCampus)
	router.Delete("/campuses/:id", auth, middleware.Require(middleware.OpCampusDelete), campuses.DeleteCampus)

	router.Get("/location-types/:campusId", auth, masterData, middleware.Require(middleware.OpLocationList), campuses.ListLocationTypes)

	router.Get("/meters", auth, middleware.NoCacheHeaders(), middleware.Require(middleware.OpMeterList), meters.ListMeters)
	router.Get("/meters/:type/:id", auth, middleware.NoCacheHeaders(), middleware.Require(middleware.OpMeterList), meters.ListMetersForScope)
	router.Post("/meters", auth, middleware.Require(middleware.OpMeterCreate), meters.CreateMeter)
	router.Delete("/meters/:id", auth, middleware.Require(middleware.OpMeterDelete), meters.DeleteMeter)
	router.Put("/meters/:meter_number", auth, middleware.Require(middleware.OpMeterUpdate), meters.UpdateMeter)
}

// setupReadingRoutes configures reading ledger routes
func setupReadingRoutes(router fiber.Router, auth fiber.Handler, handler *handlers.ReadingHandler) {
	router.Post("/update-meter-reading", auth, middleware.Require(middleware.OpReadingAppend), handler.AppendReading)
	router.Put("/update-meter-reading/:meterId/:readingId", auth, middleware.Require(middleware.OpReadingCorrect), handler.CorrectReading)

	history := middleware.Require(middleware.OpReadingHistory)
	router.Get("/meter-history/:meterId", auth, middleware.NoCacheHeaders(), history, handler.History)
	// older clients send the meter type ahead of the meter number
	router.Get("/meter-history/:meterType/:meterId", auth, middleware.NoCacheHeaders(), history, handler.History)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", middleware.Require(middleware.OpUserList), handler.ListUsers)
	router.Post("/", middleware.Require(middleware.OpUserCreate), handler.CreateUser)
	router.Get("/:id", middleware.Require(middleware.OpUserGet), handler.GetUser)
	router.Put("/:id", middleware.Require(middleware.OpUserUpdate), handler.UpdateUser)
	router.Delete("/:id", middleware.Require(middleware.OpUserDelete), handler.DeleteUser)
}
