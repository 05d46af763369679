// Package aggregator reduces consumption records into period summaries.
//
// A summary covers one resolved time window: totals, record statistics,
// the goal for the window and progress toward it. Week and month windows
// also carry a per-day or per-week breakdown computed with the same
// reduction over the same fetched records.
//
// Example usage:
//
//	eng := aggregator.New(st, log)
//	w, _ := resolver.Resolve(timewindow.Week(), nil, "Europe/Berlin")
//	sum, err := eng.Summarize(ctx, "user-1", w, 2000)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d ml of %d ml (%.2f%%)\n", sum.TotalEffectiveML, sum.GoalML, sum.ProgressPct)
package aggregator

import "time"

// Statistics describes the records inside one window.
//
// All totals are zero, never absent, when the window holds no records.
type Statistics struct {
	// Count is the number of records.
	Count int `json:"count"`

	// TotalML is the sum of raw amounts.
	TotalML int `json:"total_ml"`

	// TotalEffectiveML is the sum of effective hydration.
	TotalEffectiveML int `json:"total_effective_ml"`

	// AvgML is the average raw amount per record, rounded to two decimals.
	AvgML float64 `json:"avg_ml"`

	// MinML and MaxML are the smallest and largest single records.
	MinML int `json:"min_ml"`
	MaxML int `json:"max_ml"`

	// P50ML and P95ML are record-size percentiles.
	P50ML int `json:"p50_ml"`
	P95ML int `json:"p95_ml"`

	// FirstSeen and LastSeen bound the records in time.
	FirstSeen *time.Time `json:"first_seen,omitempty"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
}

// Totals is the reduced form used for trend comparison.
type Totals struct {
	TotalML          int `json:"total_ml"`
	TotalEffectiveML int `json:"total_effective_ml"`
	Count            int `json:"count"`
}

// Summary is the aggregation result for one window.
type Summary struct {
	UserID   string    `json:"user_id,omitempty"`
	Period   string    `json:"period"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	TimeZone string    `json:"time_zone"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`

	Statistics

	// GoalML is the daily goal times the number of days covered.
	GoalML int `json:"goal_ml"`

	// ProgressPct is min(100, effective/goal*100), two decimals.
	ProgressPct float64 `json:"progress_pct"`

	// Completed is true once effective hydration reaches the goal.
	Completed bool `json:"completed"`

	// Breakdown holds per-day (week) or per-week (month) summaries.
	Breakdown []Summary `json:"breakdown,omitempty"`
}

// Totals returns the trend-comparison view of the summary.
func (s *Summary) Totals() Totals {
	return Totals{TotalML: s.TotalML, TotalEffectiveML: s.TotalEffectiveML, Count: s.Count}
}
