package aggregator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/store"
	"github.com/0xmhha/hydrotrack/pkg/timewindow"
)

// Engine computes summaries from a consumption store.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	reader store.Reader
	logger logger.Logger
}

// New creates an aggregation engine.
func New(reader store.Reader, log logger.Logger) *Engine {
	return &Engine{reader: reader, logger: log}
}

// Summarize reduces the user's records inside w.
//
// dailyGoalML is multiplied by the number of days covered. Store failures
// are returned as errors; they never turn into empty summaries.
func (e *Engine) Summarize(ctx context.Context, userID string, w timewindow.Window, dailyGoalML int) (*Summary, error) {
	records, err := e.find(ctx, userID, w)
	if err != nil {
		return nil, err
	}

	sum := Reduce(records, w, dailyGoalML*w.Days())
	sum.UserID = userID

	for _, sub := range timewindow.SubWindows(w) {
		sum.Breakdown = append(sum.Breakdown, Reduce(records, sub, dailyGoalML*sub.Days()))
	}

	e.logger.Debug("summary computed",
		"user_id", userID,
		"window", w.String(),
		"records", sum.Count,
		"total_effective_ml", sum.TotalEffectiveML)

	return &sum, nil
}

// Totals returns the raw and effective totals inside w.
func (e *Engine) Totals(ctx context.Context, userID string, w timewindow.Window) (Totals, error) {
	records, err := e.find(ctx, userID, w)
	if err != nil {
		return Totals{}, err
	}
	sum := Reduce(records, w, 0)
	return sum.Totals(), nil
}

// Recompute re-reads every record of the local day and replaces the stored
// snapshot with a freshly built one. It never patches totals in place. The
// read and the write share one store transaction, so concurrent recomputes
// of the same day converge on the last committed state.
func (e *Engine) Recompute(ctx context.Context, writer store.SnapshotWriter, userID string, day timewindow.Date, loc *time.Location, goalML int) (model.DailySnapshot, error) {
	w := timewindow.ForDay(day, loc)

	build := func(records []model.Consumption) model.DailySnapshot {
		inside := records[:0:0]
		for _, rec := range records {
			if w.Contains(rec.OccurredAt) {
				inside = append(inside, rec)
			}
		}
		return model.BuildSnapshot(userID, day.String(), w.Location, goalML, inside)
	}

	snap, err := writer.RecomputeDailySnapshot(ctx, userID, day.String(), store.Range{Start: w.Start, End: w.End}, build)
	if err != nil {
		return model.DailySnapshot{}, fmt.Errorf("failed to store snapshot for %s: %w", day.String(), err)
	}

	e.logger.Debug("daily snapshot recomputed",
		"user_id", userID,
		"date", snap.Date,
		"effective_ml", snap.EffectiveHydrationML,
		"completed", snap.Completed)

	return snap, nil
}

func (e *Engine) find(ctx context.Context, userID string, w timewindow.Window) ([]model.Consumption, error) {
	records, err := e.reader.Find(ctx, userID, store.Range{Start: w.Start, End: w.End})
	if err != nil {
		return nil, fmt.Errorf("failed to load records for %s: %w", w.String(), err)
	}
	return records, nil
}

// Reduce summarizes the records that fall inside w against goalML.
// Records outside w are ignored, whatever their order.
func Reduce(records []model.Consumption, w timewindow.Window, goalML int) Summary {
	sum := Summary{
		Period:   w.Period.String(),
		From:     w.First.String(),
		To:       w.Last.String(),
		TimeZone: w.TimeZone(),
		Start:    w.Start,
		End:      w.End,
		GoalML:   goalML,
	}

	amounts := make([]int, 0, len(records))
	for i := range records {
		rec := &records[i]
		if !w.Contains(rec.OccurredAt) {
			continue
		}
		updateStats(&sum.Statistics, rec)
		amounts = append(amounts, rec.AmountML)
	}

	if sum.Count > 0 {
		sum.AvgML = model.Round2(float64(sum.TotalML) / float64(sum.Count))
		sort.Ints(amounts)
		sum.P50ML = percentile(amounts, 50)
		sum.P95ML = percentile(amounts, 95)
	}

	sum.ProgressPct = Progress(sum.TotalEffectiveML, goalML)
	sum.Completed = goalML > 0 && sum.TotalEffectiveML >= goalML
	return sum
}

// Progress returns min(100, effective/goal*100) rounded to two decimals,
// or 0 when goal is not positive.
func Progress(effectiveML, goalML int) float64 {
	if goalML <= 0 {
		return 0
	}
	if effectiveML >= goalML {
		return 100
	}
	pct := model.Percent(effectiveML, goalML)
	if pct > 100 {
		return 100
	}
	return pct
}

func updateStats(stats *Statistics, rec *model.Consumption) {
	if stats.Count == 0 || rec.AmountML < stats.MinML {
		stats.MinML = rec.AmountML
	}
	if rec.AmountML > stats.MaxML {
		stats.MaxML = rec.AmountML
	}

	stats.Count++
	stats.TotalML += rec.AmountML
	stats.TotalEffectiveML += rec.EffectiveHydrationML

	at := rec.OccurredAt
	if stats.FirstSeen == nil || at.Before(*stats.FirstSeen) {
		stats.FirstSeen = &at
	}
	if stats.LastSeen == nil || at.After(*stats.LastSeen) {
		last := at
		stats.LastSeen = &last
	}
}

// percentile returns the pth percentile of a sorted slice using linear
// interpolation between closest ranks.
func percentile(sorted []int, p int) int {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[lower]
	}

	fraction := rank - float64(lower)
	return int(float64(sorted[lower])*(1-fraction) + float64(sorted[upper])*fraction)
}
