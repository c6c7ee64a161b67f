package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	LogLevel string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Photos   PhotoConfig
	Ledger   LedgerConfig
	Admin    AdminConfig
	Jobs     JobsConfig
	CacheTTL time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds auth cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// PhotoConfig selects and configures the photo store
type PhotoConfig struct {
	Store           string
	UploadDir       string
	PublicBaseURL   string
	MaxDimension    int
	S3Region        string
	S3Bucket        string
	S3PublicBaseURL string
}

// LedgerConfig holds reading ledger rules
type LedgerConfig struct {
	ReaderEditWindow time.Duration
}

// AdminConfig holds the bootstrap admin account
type AdminConfig struct {
	Username string
	Password string
}

// JobsConfig holds background job schedules
type JobsConfig struct {
	TokenPurgeCron string
}

// Development-only signing secrets. Load refuses them in prod.
const (
	defaultJWTSecret        = "default_secret"
	defaultJWTRefreshSecret = "default_refresh_secret"
)

func setDefaults() {
	viper.SetDefault("APP_MODE", "dev")
	viper.SetDefault("PORT", "3000")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_DRIVER", "mysql")

	for _, prefix := range []string{"DEV_", "PROD_"} {
		viper.SetDefault(prefix+"DB_HOST", "localhost")
		viper.SetDefault(prefix+"DB_PORT", "3306")
		viper.SetDefault(prefix+"DB_USER", "root")
		viper.SetDefault(prefix+"DB_PASS", "")
		viper.SetDefault(prefix+"DB_NAME", "meter_readings")
		viper.SetDefault(prefix+"JWT_SECRET", defaultJWTSecret)
		viper.SetDefault(prefix+"JWT_REFRESH_SECRET", defaultJWTRefreshSecret)
		viper.SetDefault(prefix+"COOKIE_SECURE", prefix == "PROD_")
	}

	viper.SetDefault("ACCESS_TOKEN_MINUTES", 60)
	viper.SetDefault("REFRESH_TOKEN_DAYS", 7)
	viper.SetDefault("ALLOWED_ORIGINS", "")
	viper.SetDefault("COOKIE_SAMESITE", "lax")
	viper.SetDefault("COOKIE_DOMAIN", "")

	viper.SetDefault("PHOTO_STORE", "local")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	viper.SetDefault("PHOTO_MAX_DIMENSION", 1600)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_PUBLIC_BASE_URL", "")

	viper.SetDefault("READER_EDIT_WINDOW_HOURS", 24)
	viper.SetDefault("TOKEN_PURGE_CRON", "0 3 * * *")
	viper.SetDefault("ADMIN_USERNAME", "admin")
	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Missing .env is fine in containers
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables")
	}

	setDefaults()
	viper.AutomaticEnv()

	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(viper.GetString("APP_MODE"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	driver := strings.ToLower(strings.TrimSpace(viper.GetString("DB_DRIVER")))
	switch driver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be mysql, postgres or sqlite)", driver)
	}

	photoStore := strings.ToLower(strings.TrimSpace(viper.GetString("PHOTO_STORE")))
	if photoStore != "local" && photoStore != "s3" {
		return nil, fmt.Errorf("invalid PHOTO_STORE: '%s' (must be 'local' or 's3')", photoStore)
	}

	cfg := &Config{
		AppMode:  appMode,
		Port:     viper.GetString("PORT"),
		LogLevel: viper.GetString("LOG_LEVEL"),
		Database: loadDatabaseConfig(appMode, driver),
		JWT:      loadJWTConfig(appMode),
		Cookie: CookieConfig{
			Secure:   viper.GetBool(modePrefix(appMode) + "COOKIE_SECURE"),
			SameSite: viper.GetString("COOKIE_SAMESITE"),
			Domain:   viper.GetString("COOKIE_DOMAIN"),
		},
		Photos: PhotoConfig{
			Store:           photoStore,
			UploadDir:       viper.GetString("UPLOAD_DIR"),
			PublicBaseURL:   strings.TrimRight(viper.GetString("PUBLIC_BASE_URL"), "/"),
			MaxDimension:    viper.GetInt("PHOTO_MAX_DIMENSION"),
			S3Region:        viper.GetString("S3_REGION"),
			S3Bucket:        viper.GetString("S3_BUCKET"),
			S3PublicBaseURL: strings.TrimRight(viper.GetString("S3_PUBLIC_BASE_URL"), "/"),
		},
		Ledger: LedgerConfig{
			ReaderEditWindow: time.Duration(viper.GetInt("READER_EDIT_WINDOW_HOURS")) * time.Hour,
		},
		Admin: AdminConfig{
			Username: viper.GetString("ADMIN_USERNAME"),
			Password: viper.GetString("ADMIN_PASSWORD"),
		},
		Jobs: JobsConfig{
			TokenPurgeCron: viper.GetString("TOKEN_PURGE_CRON"),
		},
		CacheTTL: time.Duration(viper.GetInt("CACHE_TTL_SECONDS")) * time.Second,
	}

	if cfg.IsProd() {
		if cfg.JWT.Secret == "" || cfg.JWT.Secret == defaultJWTSecret {
			return nil, fmt.Errorf("PROD_JWT_SECRET must be set to a non-default value in prod")
		}
		if cfg.JWT.RefreshSecret == "" || cfg.JWT.RefreshSecret == defaultJWTRefreshSecret {
			return nil, fmt.Errorf("PROD_JWT_REFRESH_SECRET must be set to a non-default value in prod")
		}
	}

	if photoStore == "s3" && cfg.Photos.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when PHOTO_STORE=s3")
	}

	log.Info().Str("mode", appMode).Str("driver", driver).Msg("configuration loaded")
	return cfg, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode, driver string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Driver:   driver,
		Host:     viper.GetString(prefix + "DB_HOST"),
		Port:     viper.GetString(prefix + "DB_PORT"),
		User:     viper.GetString(prefix + "DB_USER"),
		Password: viper.GetString(prefix + "DB_PASS"),
		DBName:   viper.GetString(prefix + "DB_NAME"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           viper.GetString(prefix + "JWT_SECRET"),
		RefreshSecret:    viper.GetString(prefix + "JWT_REFRESH_SECRET"),
		AccessTokenMins:  viper.GetInt("ACCESS_TOKEN_MINUTES"),
		RefreshTokenDays: viper.GetInt("REFRESH_TOKEN_DAYS"),
	}
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := viper.GetString("ALLOWED_ORIGINS")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return c.Photos.PublicBaseURL
	}
	return origins
}
