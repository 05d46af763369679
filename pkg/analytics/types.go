// Package analytics wires the window resolver, the engines, profile lookup
// and the cache into the operations the HTTP API, the CLI and the ingest
// pipeline call.
//
// Example usage:
//
//	svc := analytics.New(analytics.Config{DefaultGoalML: 2000, InsightDays: 30},
//	    st, profiles, resolver, facade, log)
//
//	sum, err := svc.Summary(ctx, analytics.SummaryRequest{
//	    UserID:   "user-1",
//	    Period:   "weekly",
//	    TimeZone: "America/Argentina/Buenos_Aires",
//	})
package analytics

import (
	"github.com/0xmhha/hydrotrack/pkg/insight"
)

// Config holds the service-wide defaults.
type Config struct {
	// DefaultGoalML applies to users without a personalized goal.
	DefaultGoalML int

	// InsightDays is used when an insight request does not name a day count.
	InsightDays int
}

// DefaultConfig returns the stock defaults.
func DefaultConfig() Config {
	return Config{DefaultGoalML: 2000, InsightDays: insight.DefaultDays}
}

// SummaryRequest selects a calendar period of one user.
type SummaryRequest struct {
	UserID string

	// Period is daily, weekly or monthly.
	Period string

	// Date is an optional YYYY-MM-DD reference date; empty means today.
	Date string

	// TimeZone is an optional IANA zone name.
	TimeZone string
}

// TrendRequest selects a trend comparison.
type TrendRequest struct {
	UserID   string
	Period   string // daily, weekly, monthly or annual
	TimeZone string
}

// InsightRequest selects an insight report.
type InsightRequest struct {
	UserID   string
	Days     int // zero means Config.InsightDays
	TimeZone string
}
