// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	defaultServerPort           = 8080
	defaultServerHost           = "0.0.0.0"
	defaultReadTimeout          = 30 * time.Second
	defaultWriteTimeout         = 30 * time.Second
	defaultDatabasePath         = "./data/cablecast.db"
	defaultLogLevel             = "info"
	defaultMaintenanceSchedule  = "*/30 * * * *"
	defaultLookaheadHours       = 24
	defaultBufferMinutes        = 60
	defaultRetention            = time.Hour
	defaultCommercialChance     = 0.3
	defaultMinContentMinutes    = 5
	defaultMaxContentMinutes    = 180
	defaultScheduleQueryTimeout = 5 * time.Second
	envPrefix                   = "CABLECAST"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logging    LoggingConfig
	Scheduling SchedulingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// SchedulingConfig holds the scheduling engine configuration. The
// defaults mirror classic broadcast behavior: commercials roughly every
// third content block, a 24 hour look-ahead topped up whenever less
// than an hour of programming remains buffered.
type SchedulingConfig struct {
	// MaintenanceSchedule is a standard 5-field cron spec controlling
	// how often the rolling maintenance loop runs.
	MaintenanceSchedule string

	// LookaheadHours is how far ahead each extension builds.
	LookaheadHours int

	// BufferMinutes is the minimum amount of already-scheduled future
	// time a channel must hold before maintenance extends it.
	BufferMinutes int

	// Retention is how long fully elapsed blocks are kept before pruning.
	Retention time.Duration

	EnableCommercials     bool
	CommercialProbability float64
	EnablePreRoll         bool

	// MinContentMinutes and MaxContentMinutes bound the preferred
	// duration window when picking main content.
	MinContentMinutes int
	MaxContentMinutes int

	// CommercialLibraryID and PreRollLibraryID name the libraries that
	// source interstitial content. Empty means the feature degrades
	// gracefully to no insertion.
	CommercialLibraryID string
	PreRollLibraryID    string
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cablecast")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	// Database defaults
	v.SetDefault("database.path", defaultDatabasePath)

	// Logging defaults
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", false)

	// Scheduling defaults
	v.SetDefault("scheduling.maintenanceschedule", defaultMaintenanceSchedule)
	v.SetDefault("scheduling.lookaheadhours", defaultLookaheadHours)
	v.SetDefault("scheduling.bufferminutes", defaultBufferMinutes)
	v.SetDefault("scheduling.retention", defaultRetention)
	v.SetDefault("scheduling.enablecommercials", true)
	v.SetDefault("scheduling.commercialprobability", defaultCommercialChance)
	v.SetDefault("scheduling.enablepreroll", true)
	v.SetDefault("scheduling.mincontentminutes", defaultMinContentMinutes)
	v.SetDefault("scheduling.maxcontentminutes", defaultMaxContentMinutes)
	v.SetDefault("scheduling.commerciallibraryid", "")
	v.SetDefault("scheduling.prerolllibraryid", "")
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	return c.Scheduling.Validate()
}

// Validate checks the scheduling engine configuration.
func (c *SchedulingConfig) Validate() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.MaintenanceSchedule); err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", c.MaintenanceSchedule, err)
	}
	if c.LookaheadHours < 1 {
		return fmt.Errorf("invalid lookahead hours: %d (must be >= 1)", c.LookaheadHours)
	}
	if c.BufferMinutes < 1 {
		return fmt.Errorf("invalid buffer minutes: %d (must be >= 1)", c.BufferMinutes)
	}
	if c.Retention < 0 {
		return fmt.Errorf("invalid retention: %v (must be >= 0)", c.Retention)
	}
	if c.CommercialProbability < 0 || c.CommercialProbability > 1 {
		return fmt.Errorf("invalid commercial probability: %v (must be between 0 and 1)", c.CommercialProbability)
	}
	if c.MinContentMinutes < 0 {
		return fmt.Errorf("invalid min content minutes: %d (must be >= 0)", c.MinContentMinutes)
	}
	if c.MaxContentMinutes < c.MinContentMinutes {
		return fmt.Errorf("invalid max content minutes: %d (must be >= min %d)", c.MaxContentMinutes, c.MinContentMinutes)
	}
	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
