package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAddr      = "HYDROTRACK_ADDR"
	EnvDB        = "HYDROTRACK_DB"
	EnvLogLevel  = "HYDROTRACK_LOG_LEVEL"
	EnvDefaultTZ = "HYDROTRACK_DEFAULT_TZ"
	EnvInbox     = "HYDROTRACK_INBOX"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables (after loading the .env file)
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile reads a configuration file on top of the defaults.
	// It applies neither environment overrides nor validation.
	LoadFromFile(path string) (*Config, error)

	// Path returns the file Load reads, or DefaultPath when none exists.
	Path() string
}

// loader implements the Loader interface.
type loader struct {
	configPath string
	envFile    string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for config file in:
// 1. ./hydrotrack.yaml (current directory)
// 2. ~/.config/hydrotrack/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
		envFile:    EnvFile,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicit path must load; a discovered one may vanish in between.
			if l.configPath != "" || !errors.Is(err, ErrConfigNotFound) {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = fileCfg
		}
	}

	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}
	cfg = applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Decoding over the defaults keeps every key the file leaves out,
	// including false booleans the file never mentions.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return cfg, nil
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	if l.configPath != "" {
		return l.configPath
	}
	if found := l.findConfigFile(); found != "" {
		return found
	}
	return DefaultPath()
}

// findConfigFile searches for a config file in standard locations.
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	candidates := []string{
		LocalPath,
		DefaultPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadEnvFile exports the .env file into the process environment.
// Variables that are already set win over the file. A missing file is fine.
func (l *loader) loadEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if err := godotenv.Load(l.envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", l.envFile, err)
	}
	return nil
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - HYDROTRACK_ADDR: HTTP listen address
//   - HYDROTRACK_DB: Path to database file
//   - HYDROTRACK_LOG_LEVEL: Log level
//   - HYDROTRACK_DEFAULT_TZ: Default IANA time zone
//   - HYDROTRACK_INBOX: Comma-separated list of inbox directories
func applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if addr := os.Getenv(EnvAddr); addr != "" {
		result.Server.Addr = addr
	}

	if dbPath := os.Getenv(EnvDB); dbPath != "" {
		result.Storage.DBPath = dbPath
	}

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	if tz := os.Getenv(EnvDefaultTZ); tz != "" {
		result.Aggregation.DefaultTimeZone = tz
	}

	if envDirs := os.Getenv(EnvInbox); envDirs != "" {
		var dirs []string
		for _, dir := range strings.Split(envDirs, ",") {
			if dir = strings.TrimSpace(dir); dir != "" {
				dirs = append(dirs, dir)
			}
		}
		result.Ingest.InboxDirs = dirs
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads and validates
// configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
