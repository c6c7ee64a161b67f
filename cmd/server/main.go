package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meterhub/internal/adapters/http/middleware"
	"meterhub/internal/adapters/http/routes"
	"meterhub/internal/adapters/persistence/models"
	"meterhub/internal/adapters/persistence/repositories"
	"meterhub/internal/adapters/storage"
	"meterhub/internal/config"
	"meterhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "meterhub/docs" // Swagger docs
)

// @title Meter Reading API
// @version 1.0
// @description Campus electric meter registry and reading ledger API

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// maxUploadSize bounds request bodies, photos included
const maxUploadSize = 10 * 1024 * 1024

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogger(cfg)

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer config.CloseDatabase(db)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate")
	}
	log.Info().Msg("database migration completed")

	if err := config.NewSeeder(db, cfg.Admin).Run(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to seed initial data")
	}

	photos, uploadDir, err := newPhotoStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up photo store")
	}

	// Initialize services
	store := repositories.NewStore(db)
	authService := services.NewAuthService(store.Users, store.RefreshTokens, cfg.JWT)

	maintenance := services.NewMaintenanceService(authService, cfg.Jobs.TokenPurgeCron)
	if err := maintenance.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start maintenance jobs")
	}
	defer maintenance.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Meter Reading API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    maxUploadSize,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	routes.Setup(app, &routes.Dependencies{
		Store:     store,
		Auth:      authService,
		Users:     services.NewUserService(store.Users),
		Catalog:   services.NewCatalogService(store, cfg.CacheTTL),
		Ledger:    services.NewLedgerService(store, photos, cfg.Ledger.ReaderEditWindow),
		UploadDir: uploadDir,
	}, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	log.Info().Str("port", cfg.Port).Str("mode", cfg.AppMode).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// setupLogger configures the global logger: readable console output in dev,
// JSON in prod
func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newPhotoStore selects the photo backend. The returned directory is set
// only for the local store and is served as static files.
func newPhotoStore(cfg *config.Config) (storage.PhotoStore, string, error) {
	if cfg.Photos.Store == "s3" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.Photos.S3Region, cfg.Photos.S3Bucket, cfg.Photos.S3PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		log.Info().Str("bucket", cfg.Photos.S3Bucket).Msg("photos stored in S3")
		return s3Store, "", nil
	}

	local, err := storage.NewLocalStore(cfg.Photos.UploadDir, cfg.Photos.PublicBaseURL)
	if err != nil {
		return nil, "", err
	}
	log.Info().Str("dir", local.Dir()).Msg("photos stored on local disk")
	return local, local.Dir(), nil
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
}
