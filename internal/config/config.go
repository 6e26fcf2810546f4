package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Page source configuration
	Source SourceConfig

	// Page cache configuration
	Cache CacheConfig

	// Deletion journal database configuration
	Database DatabaseConfig

	// Deletion intent configuration
	Deletion DeletionConfig

	// Derived view configuration
	View ViewConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// SourceConfig holds the randomuser.me client configuration
type SourceConfig struct {
	BaseURL  string
	PageSize int
	Seed     string
	MaxPage  int
	Timeout  time.Duration
	RPS      float64
	Burst    int
}

// CacheConfig holds page cache configuration. An empty RedisURL selects the
// in-process cache.
type CacheConfig struct {
	TTL      time.Duration
	RedisURL string
	Prefix   string
}

// DatabaseConfig holds database configuration. An empty URL disables the
// deletion journal.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
	MigrationsPath  string
}

// DeletionConfig holds deletion intent configuration
type DeletionConfig struct {
	FailureRate float64
	Latency     time.Duration
	Timeout     time.Duration
}

// ViewConfig holds derived view configuration
type ViewConfig struct {
	Locale string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return FromEnv()
}

// FromEnv reads and validates the configuration from the process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", ":8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("ALLOWED_ORIGINS", []string{}),
		},
		Source: SourceConfig{
			BaseURL:  getEnvOrDefault("RANDOMUSER_BASE_URL", "https://randomuser.me/api/"),
			PageSize: getIntOrDefault("RANDOMUSER_PAGE_SIZE", 5),
			Seed:     getEnvOrDefault("RANDOMUSER_SEED", "torodev"),
			MaxPage:  getIntOrDefault("RANDOMUSER_MAX_PAGE", 2),
			Timeout:  getDurationOrDefault("RANDOMUSER_TIMEOUT", 10*time.Second),
			RPS:      getFloatOrDefault("RANDOMUSER_RPS", 2),
			Burst:    getIntOrDefault("RANDOMUSER_BURST", 2),
		},
		Cache: CacheConfig{
			TTL:      getDurationOrDefault("PAGE_CACHE_TTL", 10*time.Second),
			RedisURL: os.Getenv("REDIS_URL"),
			Prefix:   getEnvOrDefault("PAGE_CACHE_PREFIX", "userdir:page:"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getIntOrDefault("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntOrDefault("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getDurationOrDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			AutoMigrate:     getBoolOrDefault("DB_AUTO_MIGRATE", true),
			MigrationsPath:  getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		},
		Deletion: DeletionConfig{
			FailureRate: getFloatOrDefault("DELETION_FAILURE_RATE", 0),
			Latency:     getDurationOrDefault("DELETION_LATENCY", 0),
			Timeout:     getDurationOrDefault("DELETION_TIMEOUT", 10*time.Second),
		},
		View: ViewConfig{
			Locale: getEnvOrDefault("VIEW_LOCALE", "en"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
			PingInterval:    getDurationOrDefault("WS_PING_INTERVAL", 54*time.Second),
			PongWait:        getDurationOrDefault("WS_PONG_WAIT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "user-directory"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "RANDOMUSER_BASE_URL must be an absolute URL")
	}
	if c.Source.PageSize < 1 || c.Source.PageSize > 5000 {
		errs = append(errs, "RANDOMUSER_PAGE_SIZE must be between 1 and 5000")
	}
	if c.Source.MaxPage < 1 {
		errs = append(errs, "RANDOMUSER_MAX_PAGE must be at least 1")
	}
	if c.Source.RPS > 0 && c.Source.Burst < 1 {
		errs = append(errs, "RANDOMUSER_BURST must be at least 1 when RANDOMUSER_RPS is set")
	}

	if c.Deletion.FailureRate < 0 || c.Deletion.FailureRate > 1 {
		errs = append(errs, "DELETION_FAILURE_RATE must be between 0 and 1")
	}
	if c.Deletion.Timeout <= 0 {
		errs = append(errs, "DELETION_TIMEOUT must be positive")
	}

	if _, err := language.Parse(c.View.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("VIEW_LOCALE %q is not a valid language tag", c.View.Locale))
	}

	if c.Cache.Prefix == "" {
		errs = append(errs, "PAGE_CACHE_PREFIX cannot be empty")
	}

	// Security validations
	if c.App.Environment == "production" && len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, "ALLOWED_ORIGINS must be set in production")
	}

	// Logical validations
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// LocaleTag returns the collation locale. Validate guarantees it parses.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.View.Locale)
	if err != nil {
		return language.Und
	}
	return tag
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Source: %s, DB: %s, Redis: %s, RateLimit: %v, Environment: %s}",
		c.Server.Port,
		c.Source.BaseURL,
		redactURL(c.Database.URL),
		redactURL(c.Cache.RedisURL),
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}

// redactURL redacts sensitive parts of a database URL
func redactURL(url string) string {
	if url == "" {
		return ""
	}
	// Very basic redaction - in production you'd want something more robust
	if idx := strings.Index(url, "@"); idx > 0 {
		return "[REDACTED]" + url[idx:]
	}
	return "[REDACTED]"
}
