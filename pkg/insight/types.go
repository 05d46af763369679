// Package insight scans a rolling window of a user's intake for behavioral
// patterns and scores, and turns them into insights and recommendations.
//
// All list outputs follow rule evaluation order, so the same records always
// produce the same report.
//
// Example usage:
//
//	eng := insight.New(st, resolver, log)
//	rep, err := eng.Analyze(ctx, "user-1", 30, "America/Sao_Paulo")
//	if err != nil {
//	    return err
//	}
//	for _, in := range rep.Insights {
//	    fmt.Println(in.Title)
//	}
package insight

import "errors"

// ErrInvalidDays is returned when the analysis length is outside 1..MaxDays.
var ErrInvalidDays = errors.New("days must be between 1 and 365")

const (
	// DefaultDays is the analysis length used when none is requested.
	DefaultDays = 30

	// MaxDays is the longest accepted analysis window.
	MaxDays = 365
)

// Tone classifies an insight.
type Tone string

// Insight tones.
const (
	Positive Tone = "positive"
	Neutral  Tone = "neutral"
	Negative Tone = "negative"
)

// Insight is one human-readable finding.
type Insight struct {
	Type    string  `json:"type"`
	Tone    Tone    `json:"tone"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Score   float64 `json:"score"`
}

// Pattern is a detected behavioral peak.
type Pattern struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	AmountML    int    `json:"amount_ml"`
	Description string `json:"description"`
}

// Recommendation is an actionable suggestion.
type Recommendation struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnalysisPeriod describes the analysed window.
type AnalysisPeriod struct {
	Days     int    `json:"days"`
	From     string `json:"from"`
	To       string `json:"to"`
	TimeZone string `json:"time_zone"`
}

// Report is the result of an insight analysis.
type Report struct {
	UserID           string         `json:"user_id"`
	TotalRecords     int            `json:"total_consumos"`
	TotalML          int            `json:"total_ml"`
	TotalEffectiveML int            `json:"total_effective_ml"`
	AnalysisPeriod   AnalysisPeriod `json:"analysis_period"`

	ActiveDays       int     `json:"active_days"`
	AverageDailyML   float64 `json:"average_daily_ml"`
	ConsistencyScore float64 `json:"consistency_score"`
	EfficiencyScore  float64 `json:"efficiency_score"`

	Insights        []Insight        `json:"insights"`
	Patterns        []Pattern        `json:"patterns"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Insight, pattern and recommendation types.
const (
	TypeConsistency = "consistency"
	TypeEfficiency  = "efficiency"

	PatternPeakHour         = "peak_hour"
	PatternPeakWeekday      = "peak_weekday"
	PatternFavoriteBeverage = "favorite_beverage"

	RecommendIncreaseIntake      = "increase_intake"
	RecommendConsultProfessional = "consult_professional"
	RecommendImproveEfficiency   = "improve_efficiency"
	RecommendImproveConsistency  = "improve_consistency"
)

// Score thresholds.
const (
	ConsistencyExcellent = 80.0
	ConsistencyGood      = 60.0
	EfficiencyExcellent  = 90.0
	EfficiencyGood       = 70.0

	LowIntakeML  = 1500.0
	HighIntakeML = 4000.0
)
