package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/aggregator"
	"github.com/0xmhha/hydrotrack/pkg/cache"
	"github.com/0xmhha/hydrotrack/pkg/insight"
	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/profile"
	"github.com/0xmhha/hydrotrack/pkg/store"
	"github.com/0xmhha/hydrotrack/pkg/timewindow"
	"github.com/0xmhha/hydrotrack/pkg/trend"
)

// Service answers summary, trend and insight queries and owns the
// consumption mutations that keep daily snapshots current.
type Service struct {
	cfg      Config
	store    store.Store
	profiles profile.Store
	resolver *timewindow.Resolver
	cache    *cache.Facade
	logger   logger.Logger

	summaries *aggregator.Engine
	trends    *trend.Analyzer
	insights  *insight.Engine
}

// New creates the service. facade may be nil to disable caching.
func New(cfg Config, st store.Store, profiles profile.Store, resolver *timewindow.Resolver, facade *cache.Facade, log logger.Logger) *Service {
	if cfg.DefaultGoalML <= 0 {
		cfg.DefaultGoalML = DefaultConfig().DefaultGoalML
	}
	if cfg.InsightDays <= 0 {
		cfg.InsightDays = insight.DefaultDays
	}

	summaries := aggregator.New(st, log)
	return &Service{
		cfg:       cfg,
		store:     st,
		profiles:  profiles,
		resolver:  resolver,
		cache:     facade,
		logger:    log,
		summaries: summaries,
		trends:    trend.New(resolver, summaries, log),
		insights:  insight.New(st, resolver, log),
	}
}

// Summary returns the aggregation of the requested calendar period.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (*aggregator.Summary, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	period, err := timewindow.ParsePeriodKeyword(req.Period)
	if err != nil {
		return nil, err
	}
	var ref *timewindow.Date
	if strings.TrimSpace(req.Date) != "" {
		d, parseErr := timewindow.ParseDate(req.Date)
		if parseErr != nil {
			return nil, parseErr
		}
		ref = &d
	}

	loc := s.location(req.UserID, req.TimeZone)
	w, err := s.resolver.ResolveIn(period, ref, loc)
	if err != nil {
		return nil, err
	}

	goal, err := s.goal(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	key := cache.NewKey(cache.OpSummary, req.UserID,
		period.String(), w.First.String(), w.TimeZone(), strconv.Itoa(goal))

	return cache.GetOrCompute(ctx, s.cache, key, func(ctx context.Context) (*aggregator.Summary, error) {
		return s.summaries.Summarize(ctx, req.UserID, w, goal)
	})
}

// Trend compares the current period with the one before it.
func (s *Service) Trend(ctx context.Context, req TrendRequest) (*trend.Result, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	if _, err := timewindow.ParseTrendKeyword(req.Period); err != nil {
		return nil, err
	}
	period := strings.ToLower(strings.TrimSpace(req.Period))

	loc := s.location(req.UserID, req.TimeZone)
	today := s.resolver.Today(loc)

	key := cache.NewKey(cache.OpTrend, req.UserID, period, loc.String(), today.String())

	return cache.GetOrCompute(ctx, s.cache, key, func(ctx context.Context) (*trend.Result, error) {
		return s.trends.Analyze(ctx, req.UserID, period, loc.String())
	})
}

// Insights returns the insight report of the last req.Days days.
func (s *Service) Insights(ctx context.Context, req InsightRequest) (*insight.Report, error) {
	if err := requireUser(req.UserID); err != nil {
		return nil, err
	}
	days := req.Days
	if days == 0 {
		days = s.cfg.InsightDays
	}
	if err := insight.CheckDays(days); err != nil {
		return nil, err
	}

	loc := s.location(req.UserID, req.TimeZone)
	today := s.resolver.Today(loc)

	key := cache.NewKey(cache.OpInsights, req.UserID, strconv.Itoa(days), loc.String(), today.String())

	return cache.GetOrCompute(ctx, s.cache, key, func(ctx context.Context) (*insight.Report, error) {
		return s.insights.Analyze(ctx, req.UserID, days, loc.String())
	})
}

// RecordConsumption validates and stores c, rebuilds the snapshot of the
// local day it falls on and drops the user's cached results.
//
// When only the snapshot step fails the stored record is returned together
// with an error wrapping ErrSnapshotRecompute.
func (s *Service) RecordConsumption(ctx context.Context, c model.Consumption) (model.Consumption, error) {
	c.Recompute()
	if err := c.Validate(s.resolver.Now()); err != nil {
		return model.Consumption{}, err
	}

	if err := s.store.Add(ctx, &c); err != nil {
		return model.Consumption{}, fmt.Errorf("failed to store consumption: %w", err)
	}
	s.cache.InvalidateUser(ctx, c.UserID)

	s.logger.Info("consumption recorded",
		"user_id", c.UserID,
		"id", c.ID,
		"amount_ml", c.AmountML,
		"effective_ml", c.EffectiveHydrationML)

	if err := s.recomputeAt(ctx, c.UserID, c.OccurredAt); err != nil {
		return c, err
	}
	return c, nil
}

// UpdateConsumption replaces a stored record and rebuilds the snapshots of
// both the old and the new local day.
func (s *Service) UpdateConsumption(ctx context.Context, c model.Consumption) (model.Consumption, error) {
	c.Recompute()
	if err := c.Validate(s.resolver.Now()); err != nil {
		return model.Consumption{}, err
	}

	old, err := s.store.Update(ctx, &c)
	if err != nil {
		return model.Consumption{}, fmt.Errorf("failed to update consumption: %w", err)
	}
	s.cache.InvalidateUser(ctx, c.UserID)

	if err := s.recomputeAt(ctx, c.UserID, old.OccurredAt); err != nil {
		return c, err
	}
	if err := s.recomputeAt(ctx, c.UserID, c.OccurredAt); err != nil {
		return c, err
	}
	return c, nil
}

// DeleteConsumption removes a record and rebuilds the snapshot of its day.
func (s *Service) DeleteConsumption(ctx context.Context, userID, id string) (model.Consumption, error) {
	if err := requireUser(userID); err != nil {
		return model.Consumption{}, err
	}

	old, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		return model.Consumption{}, fmt.Errorf("failed to delete consumption: %w", err)
	}
	s.cache.InvalidateUser(ctx, userID)

	if err := s.recomputeAt(ctx, userID, old.OccurredAt); err != nil {
		return old, err
	}
	return old, nil
}

// RecomputeDay rebuilds and stores the snapshot of one local date.
func (s *Service) RecomputeDay(ctx context.Context, userID, date string) (model.DailySnapshot, error) {
	if err := requireUser(userID); err != nil {
		return model.DailySnapshot{}, err
	}
	day, err := timewindow.ParseDate(date)
	if err != nil {
		return model.DailySnapshot{}, err
	}

	p, err := s.profiles.Lookup(ctx, userID)
	if err != nil {
		return model.DailySnapshot{}, fmt.Errorf("failed to load profile: %w", err)
	}
	loc, _ := s.resolver.Location(p.TimeZone)

	return s.summaries.Recompute(ctx, s.store, userID, day, loc, p.GoalFor(s.cfg.DefaultGoalML))
}

// DailySnapshot returns the stored snapshot of one local date.
func (s *Service) DailySnapshot(ctx context.Context, userID, date string) (model.DailySnapshot, error) {
	if err := requireUser(userID); err != nil {
		return model.DailySnapshot{}, err
	}
	if _, err := timewindow.ParseDate(date); err != nil {
		return model.DailySnapshot{}, err
	}
	return s.store.GetDailySnapshot(ctx, userID, date)
}

// Profile returns the effective profile of a user.
func (s *Service) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.profiles.Lookup(ctx, userID)
}

// SaveProfile stores p and drops the user's cached results, which may
// depend on the old goal or zone.
func (s *Service) SaveProfile(ctx context.Context, p *model.Profile) error {
	if err := s.profiles.Save(ctx, p); err != nil {
		return err
	}
	s.cache.InvalidateUser(ctx, p.UserID)
	return nil
}

// DefaultGoal returns the goal used for users without a personalized one.
func (s *Service) DefaultGoal() int {
	return s.cfg.DefaultGoalML
}

func (s *Service) recomputeAt(ctx context.Context, userID string, at time.Time) error {
	p, err := s.profiles.Lookup(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotRecompute, err)
	}
	loc, _ := s.resolver.Location(p.TimeZone)
	day := timewindow.DateOf(at, loc)

	if _, err := s.summaries.Recompute(ctx, s.store, userID, day, loc, p.GoalFor(s.cfg.DefaultGoalML)); err != nil {
		s.logger.Error("snapshot recomputation failed",
			"user_id", userID,
			"date", day.String(),
			"error", err)
		return fmt.Errorf("%w: %w", ErrSnapshotRecompute, err)
	}
	return nil
}

func (s *Service) goal(ctx context.Context, userID string) (int, error) {
	p, err := s.profiles.Lookup(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load profile: %w", err)
	}
	return p.GoalFor(s.cfg.DefaultGoalML), nil
}

// location resolves tz and logs when an unknown zone falls back.
func (s *Service) location(userID, tz string) *time.Location {
	loc, fellBack := s.resolver.Location(tz)
	if fellBack {
		s.logger.Warn("unknown time zone, using default",
			"user_id", userID,
			"time_zone", tz,
			"default", loc.String())
	}
	return loc
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return model.ErrMissingUser
	}
	return nil
}

// IsValidation reports whether err comes from rejected caller input rather
// than from a failing dependency.
func IsValidation(err error) bool {
	for _, target := range []error{
		timewindow.ErrInvalidPeriod,
		timewindow.ErrInvalidDate,
		insight.ErrInvalidDays,
		model.ErrMissingUser,
		model.ErrInvalidAmount,
		model.ErrInvalidHydrationFactor,
		model.ErrMissingTimestamp,
		model.ErrTimestampOutOfRange,
		model.ErrFutureTimestamp,
		model.ErrInvalidGoal,
		model.ErrInvalidTimeZone,
		profile.ErrInvalidProfile,
		store.ErrDuplicateRecord,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
