package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidAddr is returned when the server address is empty.
	ErrInvalidAddr = errors.New("invalid server address: must not be empty")

	// ErrInvalidTimeout is returned when a server or storage timeout is <= 0.
	ErrInvalidTimeout = errors.New("invalid timeout: must be > 0")

	// ErrInvalidTimeZone is returned when the default time zone cannot be loaded.
	ErrInvalidTimeZone = errors.New("invalid default time zone: must be an IANA zone name")

	// ErrInvalidGoal is returned when the default goal is <= 0.
	ErrInvalidGoal = errors.New("invalid default goal: must be > 0")

	// ErrInvalidInsightDays is returned when insight days is outside 1..365.
	ErrInvalidInsightDays = errors.New("invalid insight days: must be between 1 and 365")

	// ErrInvalidCacheTTL is returned when the cache TTL is <= 0.
	ErrInvalidCacheTTL = errors.New("invalid cache ttl: must be > 0")

	// ErrInvalidCacheSize is returned when cache size is <= 0.
	ErrInvalidCacheSize = errors.New("invalid cache size: must be > 0")

	// ErrNoDBPath is returned when no database path is configured.
	ErrNoDBPath = errors.New("no database path specified")

	// ErrInvalidInterval is returned when an ingest interval is <= 0.
	ErrInvalidInterval = errors.New("invalid ingest interval: must be > 0")

	// ErrInvalidDisplayFormat is returned when the display format is not recognized.
	ErrInvalidDisplayFormat = errors.New("invalid display format: must be table, json, or simple")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
