package timewindow

import "strings"

// Summary period keywords.
var summaryKeywords = map[string]Period{
	"daily":   Day(),
	"weekly":  Week(),
	"monthly": Month(),
}

// Trend period keywords. Daily compares calendar days; the others compare
// rolling windows of 7, 30 and 365 days.
var trendKeywords = map[string]Period{
	"daily":   Day(),
	"weekly":  Rolling(7),
	"monthly": Rolling(30),
	"annual":  Rolling(365),
}

// SummaryKeywords lists the accepted summary keywords in display order.
var SummaryKeywords = []string{"daily", "weekly", "monthly"}

// TrendKeywords lists the accepted trend keywords in display order.
var TrendKeywords = []string{"daily", "weekly", "monthly", "annual"}

// ParsePeriodKeyword maps daily, weekly or monthly to a calendar period.
func ParsePeriodKeyword(s string) (Period, error) {
	return parseKeyword(s, summaryKeywords, SummaryKeywords)
}

// ParseTrendKeyword maps daily, weekly, monthly or annual to a trend period.
func ParseTrendKeyword(s string) (Period, error) {
	return parseKeyword(s, trendKeywords, TrendKeywords)
}

func parseKeyword(s string, table map[string]Period, accepted []string) (Period, error) {
	p, ok := table[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Period{}, &PeriodError{Value: s, Accepted: accepted}
	}
	return p, nil
}
