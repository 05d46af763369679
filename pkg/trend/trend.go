// Package trend compares two adjacent, equal-length periods of a user's
// intake and labels the change.
//
// Example usage:
//
//	an := trend.New(resolver, engine, log)
//	res, err := an.Analyze(ctx, "user-1", "weekly", "Europe/Berlin")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Tendency) // "moderate increase"
package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/aggregator"
	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/timewindow"
)

// Tendency labels.
const (
	SignificantIncrease = "significant increase"
	ModerateIncrease    = "moderate increase"
	Stable              = "stable"
	ModerateDecrease    = "moderate decrease"
	SignificantDecrease = "significant decrease"
	NoComparison        = "no comparison (no prior data)"
	NoData              = "no data"
)

// TotalsSource returns the totals of one window. aggregator.Engine implements it.
type TotalsSource interface {
	Totals(ctx context.Context, userID string, w timewindow.Window) (aggregator.Totals, error)
}

// Range describes one of the compared windows.
type Range struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Result is the outcome of a trend comparison.
type Result struct {
	Period   string `json:"period"`
	Tendency string `json:"tendency"`

	// ChangePct is nil when there is no previous intake to compare against.
	ChangePct *float64 `json:"change_pct"`

	ChangeML      int    `json:"change_ml"`
	PreviousTotal int    `json:"previous_total"`
	CurrentTotal  int    `json:"current_total"`
	TimeZone      string `json:"time_zone"`
	Current       Range  `json:"current"`
	Previous      Range  `json:"previous"`
}

// Analyzer resolves trend windows and compares their totals.
type Analyzer struct {
	resolver *timewindow.Resolver
	source   TotalsSource
	logger   logger.Logger
}

// New creates a trend analyzer.
func New(resolver *timewindow.Resolver, source TotalsSource, log logger.Logger) *Analyzer {
	return &Analyzer{resolver: resolver, source: source, logger: log}
}

// Analyze compares the current period ending today in tz with the period
// immediately before it. period is one of daily, weekly, monthly or annual;
// anything else fails with a *timewindow.PeriodError before any query runs.
func (a *Analyzer) Analyze(ctx context.Context, userID, period, tz string) (*Result, error) {
	p, err := timewindow.ParseTrendKeyword(period)
	if err != nil {
		return nil, err
	}

	loc, _ := a.resolver.Location(tz)
	current, err := a.resolver.ResolveIn(p, nil, loc)
	if err != nil {
		return nil, err
	}
	previous := timewindow.Previous(current)

	cur, err := a.source.Totals(ctx, userID, current)
	if err != nil {
		return nil, fmt.Errorf("failed to total current period: %w", err)
	}
	prev, err := a.source.Totals(ctx, userID, previous)
	if err != nil {
		return nil, fmt.Errorf("failed to total previous period: %w", err)
	}

	res := Compare(prev.TotalML, cur.TotalML)
	res.Period = period
	res.TimeZone = current.TimeZone()
	res.Current = rangeOf(current)
	res.Previous = rangeOf(previous)

	a.logger.Debug("trend computed",
		"user_id", userID,
		"period", period,
		"previous_total", res.PreviousTotal,
		"current_total", res.CurrentTotal,
		"tendency", res.Tendency)

	return res, nil
}

// Compare builds the change figures and label for two totals.
func Compare(previousTotal, currentTotal int) *Result {
	res := &Result{
		ChangeML:      currentTotal - previousTotal,
		PreviousTotal: previousTotal,
		CurrentTotal:  currentTotal,
	}

	if previousTotal == 0 {
		if currentTotal > 0 {
			res.Tendency = NoComparison
		} else {
			res.Tendency = NoData
		}
		return res
	}

	pct := model.Percent(res.ChangeML, previousTotal)
	res.ChangePct = &pct
	res.Tendency = Classify(pct)
	return res
}

// Classify maps a percentage change, already rounded to two decimals, to a
// tendency label. Bounds are exclusive: exactly 10 is a moderate increase.
func Classify(changePct float64) string {
	switch {
	case changePct > 10:
		return SignificantIncrease
	case changePct > 5:
		return ModerateIncrease
	case changePct > -5:
		return Stable
	case changePct > -10:
		return ModerateDecrease
	default:
		return SignificantDecrease
	}
}

func rangeOf(w timewindow.Window) Range {
	return Range{From: w.First.String(), To: w.Last.String(), Start: w.Start, End: w.End}
}
