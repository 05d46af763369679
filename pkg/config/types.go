// Package config provides configuration management for hydrotrack.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables, including a .env file in the working directory
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Listening on %s\n", cfg.Server.Addr)
package config

import (
	"time"

	"github.com/0xmhha/hydrotrack/pkg/insight"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Server timeouts must be > 0
// - Aggregation.DefaultTimeZone must load with time.LoadLocation
// - Aggregation.DefaultGoalML must be > 0
// - Aggregation.InsightDays must be within 1..365
// - Cache.TTL and Cache.MaxEntries must be > 0
// - Ingest intervals must be > 0.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Cache       CacheConfig       `yaml:"cache"`
	Storage     StorageConfig     `yaml:"storage"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Display     DisplayConfig     `yaml:"display"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AggregationConfig contains the engine defaults.
type AggregationConfig struct {
	// IANA zone used when a request names none or an unknown one
	DefaultTimeZone string `yaml:"default_timezone"`

	// Daily goal for users without a personalized one
	DefaultGoalML int `yaml:"default_goal_ml"`

	// Length of the insight analysis when a request names none
	InsightDays int `yaml:"insight_days"`
}

// CacheConfig contains result cache settings.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to BoltDB database file
	DBPath string `yaml:"db_path"`

	// How long to wait for the database file lock
	Timeout time.Duration `yaml:"timeout"`
}

// IngestConfig contains inbox import settings.
type IngestConfig struct {
	// Directories watched for *.jsonl drops
	InboxDirs []string `yaml:"inbox_dirs"`

	// Quiet time before a changed file is read
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// How often inboxes are rescanned for files the watcher missed
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// DisplayConfig contains command line output settings.
type DisplayConfig struct {
	// Default output format (table, json, simple)
	Format string `yaml:"format"`

	ShowPercentiles bool `yaml:"show_percentiles"`
	ShowTimestamps  bool `yaml:"show_timestamps"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return ErrInvalidAddr
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 ||
		c.Server.IdleTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if _, err := time.LoadLocation(c.Aggregation.DefaultTimeZone); err != nil || c.Aggregation.DefaultTimeZone == "" {
		return ErrInvalidTimeZone
	}
	if c.Aggregation.DefaultGoalML <= 0 {
		return ErrInvalidGoal
	}
	if c.Aggregation.InsightDays < 1 || c.Aggregation.InsightDays > insight.MaxDays {
		return ErrInvalidInsightDays
	}

	if c.Cache.TTL <= 0 {
		return ErrInvalidCacheTTL
	}
	if c.Cache.MaxEntries <= 0 {
		return ErrInvalidCacheSize
	}

	if c.Storage.DBPath == "" {
		return ErrNoDBPath
	}
	if c.Storage.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Ingest.DebounceInterval <= 0 || c.Ingest.RefreshInterval <= 0 {
		return ErrInvalidInterval
	}

	validFormats := map[string]bool{
		"table":  true,
		"json":   true,
		"simple": true,
	}
	if !validFormats[c.Display.Format] {
		return ErrInvalidDisplayFormat
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with the stock defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Aggregation: AggregationConfig{
			DefaultTimeZone: "UTC",
			DefaultGoalML:   2000,
			InsightDays:     insight.DefaultDays,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 1000,
		},
		Storage: StorageConfig{
			DBPath:  defaultDBPath(),
			Timeout: time.Second,
		},
		Ingest: IngestConfig{
			InboxDirs:        defaultInboxDirs(),
			DebounceInterval: 100 * time.Millisecond,
			RefreshInterval:  time.Second,
		},
		Display: DisplayConfig{
			Format:          "table",
			ShowPercentiles: true,
			ShowTimestamps:  true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
