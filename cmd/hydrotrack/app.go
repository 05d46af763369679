package main

import (
	"fmt"
	"io"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/analytics"
	"github.com/0xmhha/hydrotrack/pkg/cache"
	"github.com/0xmhha/hydrotrack/pkg/config"
	"github.com/0xmhha/hydrotrack/pkg/display"
	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/metrics"
	"github.com/0xmhha/hydrotrack/pkg/profile"
	"github.com/0xmhha/hydrotrack/pkg/store"
	"github.com/0xmhha/hydrotrack/pkg/timewindow"
)

// app holds the components shared by every command that touches the
// database.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	out      io.Writer
	store    *store.Bolt
	profiles profile.Store
	resolver *timewindow.Resolver
	metrics  *metrics.Metrics
	service  *analytics.Service
}

// appOptions tweaks newApp for long-running commands.
type appOptions struct {
	// withCache enables the result cache configured in cfg.Cache.
	withCache bool

	// withMetrics registers prometheus collectors.
	withMetrics bool

	// logLevel overrides the configured level when set.
	logLevel string
}

// loadConfig loads configuration from configPath, or from the standard
// search locations when it is empty.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, level string) logger.Logger {
	if level == "" {
		level = cfg.Logging.Level
	}
	return logger.New(logger.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// newApp loads configuration and opens the database.
// The caller must call close.
func newApp(configPath string, out io.Writer, opts appOptions) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg, opts.logLevel)

	resolver, err := timewindow.NewResolver(cfg.Aggregation.DefaultTimeZone, time.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize time zones: %w", err)
	}

	st, err := store.Open(store.Config{
		DBPath:  cfg.Storage.DBPath,
		Timeout: cfg.Storage.Timeout,
	}, log, time.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	profiles, err := profile.New(st.DB(), log, time.Now)
	if err != nil {
		_ = st.Close() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("failed to initialize profile store: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		out:      out,
		store:    st,
		profiles: profiles,
		resolver: resolver,
	}

	if opts.withMetrics {
		a.metrics = metrics.New()
	}

	var facade *cache.Facade
	if opts.withCache && cfg.Cache.Enabled {
		var obs cache.Observer
		if a.metrics != nil {
			obs = a.metrics
		}
		facade = cache.NewFacade(cache.NewMemory(cfg.Cache.MaxEntries, time.Now), cfg.Cache.TTL, obs, log)
	}

	a.service = analytics.New(analytics.Config{
		DefaultGoalML: cfg.Aggregation.DefaultGoalML,
		InsightDays:   cfg.Aggregation.InsightDays,
	}, st, profiles, resolver, facade, log)

	return a, nil
}

// close releases the database.
func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("failed to close database", "error", err)
	}
}

// formatter returns a formatter for the flag value, or the configured
// default when format is empty.
func (a *app) formatter(format string, compact bool) (display.Formatter, error) {
	f, err := display.ParseFormat(a.outputFormat(format))
	if err != nil {
		return nil, err
	}
	return display.New(display.Config{
		Format:          f,
		ShowPercentiles: a.cfg.Display.ShowPercentiles,
		ShowTimestamps:  a.cfg.Display.ShowTimestamps,
		Compact:         compact,
	}), nil
}

func (a *app) outputFormat(format string) string {
	if format == "" {
		return a.cfg.Display.Format
	}
	return format
}
