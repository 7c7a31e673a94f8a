// Package config provides configuration management and environment variable handling for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/airwave/utils"
	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Station    StationConfig    `json:"station"`
	Continuity ContinuityConfig `json:"continuity"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

// DSN returns the postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type ServerConfig struct {
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	ReadTimeout        time.Duration `json:"read_timeout"`
	WriteTimeout       time.Duration `json:"write_timeout"`
	IdleTimeout        time.Duration `json:"idle_timeout"`
	ShutdownTimeout    time.Duration `json:"shutdown_timeout"`
	BodyLimit          int           `json:"body_limit"`
	AllowedOrigins     []string      `json:"allowed_origins"`
	RateLimitPerMinute int           `json:"rate_limit_per_minute"`
}

type LoggingConfig struct {
	Level      string `json:"level"` // debug, info, warn, error
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	Provider        string        `json:"provider"` // redis, memory
	RedisURL        string        `json:"redis_url"`
	RedisDB         int           `json:"redis_db"`
	RedisPrefix     string        `json:"redis_prefix"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// UsesRedis reports whether pub/sub, the device channel and the tick lock go through redis
func (c CacheConfig) UsesRedis() bool {
	return c.Enabled && c.Provider == "redis"
}

type StationConfig struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// Location resolves the station timezone
func (s StationConfig) Location() (*time.Location, error) {
	return utils.LoadStationLocation(s.Timezone)
}

type ContinuityConfig struct {
	Enabled           bool          `json:"enabled"`
	TickInterval      time.Duration `json:"tick_interval"`
	MinQueue          int           `json:"min_queue"`
	GracePeriod       time.Duration `json:"grace_period"`
	ExclusionLookback time.Duration `json:"exclusion_lookback"`
	AutoPlayWhenIdle  bool          `json:"auto_play_when_idle"`

	SlotMaxCount           int   `json:"slot_max_count"`
	SlotMaxDurationSeconds int   `json:"slot_max_duration_seconds"`
	OpeningJingleID        *uint `json:"opening_jingle_id,omitempty"`
	ClosingJingleID        *uint `json:"closing_jingle_id,omitempty"`
	OpeningJingleEnabled   bool  `json:"opening_jingle_enabled"`
	ClosingJingleEnabled   bool  `json:"closing_jingle_enabled"`
}

// OpeningJingle returns the jingle to air before a commercial break, if any
func (c ContinuityConfig) OpeningJingle() *uint {
	if !c.OpeningJingleEnabled {
		return nil
	}
	return c.OpeningJingleID
}

// ClosingJingle returns the jingle to air after a commercial break, if any
func (c ContinuityConfig) ClosingJingle() *uint {
	if !c.ClosingJingleEnabled {
		return nil
	}
	return c.ClosingJingleID
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file
	if err := loadEnvFile(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "airwave"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
		},
		Server: ServerConfig{
			Host:               getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:               getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:        getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:       getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:        getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:    getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:          getEnvInt("SERVER_BODY_LIMIT", 4*1024*1024),
			AllowedOrigins:     getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 600),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			FilePath:   getEnvString("LOG_FILE_PATH", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:         getEnvBool("CACHE_ENABLED", false),
			Provider:        getEnvString("CACHE_PROVIDER", "redis"),
			RedisURL:        getEnvString("CACHE_REDIS_URL", ""),
			RedisDB:         getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix:     getEnvString("CACHE_REDIS_PREFIX", "airwave:"),
			CleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Station: StationConfig{
			Name:     getEnvString("STATION_NAME", "Airwave"),
			Timezone: getEnvString("STATION_TIMEZONE", "UTC"),
		},
		Continuity: ContinuityConfig{
			Enabled:                getEnvBool("CONTINUITY_ENABLED", true),
			TickInterval:           time.Duration(getEnvInt("CONTINUITY_TICK_INTERVAL_SECONDS", int(utils.DefaultTickInterval/time.Second))) * time.Second,
			MinQueue:               getEnvInt("CONTINUITY_MIN_QUEUE", utils.DefaultMinQueueWatermark),
			GracePeriod:            time.Duration(getEnvInt("CONTINUITY_GRACE_PERIOD_SECONDS", int(utils.DefaultGracePeriod/time.Second))) * time.Second,
			ExclusionLookback:      time.Duration(getEnvInt("CONTINUITY_EXCLUSION_LOOKBACK_HOURS", int(utils.DefaultExclusionLookback/time.Hour))) * time.Hour,
			AutoPlayWhenIdle:       getEnvBool("CONTINUITY_AUTO_PLAY_IDLE", true),
			SlotMaxCount:           getEnvInt("COMMERCIAL_SLOT_MAX_COUNT", utils.DefaultSlotMaxCommercials),
			SlotMaxDurationSeconds: getEnvInt("COMMERCIAL_SLOT_MAX_DURATION_SECONDS", utils.DefaultSlotMaxDurationSecs),
			OpeningJingleID:        getEnvUintPtr("COMMERCIAL_OPENING_JINGLE_ID"),
			ClosingJingleID:        getEnvUintPtr("COMMERCIAL_CLOSING_JINGLE_ID"),
			OpeningJingleEnabled:   getEnvBool("COMMERCIAL_OPENING_JINGLE_ENABLED", false),
			ClosingJingleEnabled:   getEnvBool("COMMERCIAL_CLOSING_JINGLE_ENABLED", false),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads environment variables from path if it exists.
// Variables already set in the environment win.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvUintPtr(key string) *uint {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil && parsed > 0 {
			return utils.ToPtr(uint(parsed))
		}
	}
	return nil
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.Server.IdleTimeout <= 0 {
		errors = append(errors, "SERVER_IDLE_TIMEOUT must be positive")
	}
	if cfg.Server.RateLimitPerMinute <= 0 {
		errors = append(errors, "RATE_LIMIT_PER_MINUTE must be positive")
	}

	// Validate logging configuration
	if cfg.Logging.Level != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		valid := false
		for _, level := range validLevels {
			if cfg.Logging.Level == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errors = append(errors, "METRICS_PATH must start with /")
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled {
		if cfg.Cache.Provider != "redis" && cfg.Cache.Provider != "memory" {
			errors = append(errors, "CACHE_PROVIDER must be redis or memory")
		}
		if cfg.Cache.Provider == "redis" && cfg.Cache.RedisURL == "" {
			errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled with redis provider")
		}
	}

	if _, err := cfg.Station.Location(); err != nil {
		errors = append(errors, "STATION_TIMEZONE: "+err.Error())
	}

	// Validate continuity configuration
	if cfg.Continuity.TickInterval <= 0 {
		errors = append(errors, "CONTINUITY_TICK_INTERVAL_SECONDS must be positive")
	}
	if cfg.Continuity.MinQueue < 0 {
		errors = append(errors, "CONTINUITY_MIN_QUEUE must not be negative")
	}
	if cfg.Continuity.GracePeriod < 0 {
		errors = append(errors, "CONTINUITY_GRACE_PERIOD_SECONDS must not be negative")
	}
	if cfg.Continuity.SlotMaxCount <= 0 {
		errors = append(errors, "COMMERCIAL_SLOT_MAX_COUNT must be positive")
	}
	if cfg.Continuity.SlotMaxDurationSeconds <= 0 {
		errors = append(errors, "COMMERCIAL_SLOT_MAX_DURATION_SECONDS must be positive")
	}
	if cfg.Continuity.OpeningJingleEnabled && cfg.Continuity.OpeningJingleID == nil {
		errors = append(errors, "COMMERCIAL_OPENING_JINGLE_ID is required when the opening jingle is enabled")
	}
	if cfg.Continuity.ClosingJingleEnabled && cfg.Continuity.ClosingJingleID == nil {
		errors = append(errors, "COMMERCIAL_CLOSING_JINGLE_ID is required when the closing jingle is enabled")
	}

	// Return validation errors if any
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
