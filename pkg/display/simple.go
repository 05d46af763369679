package display

import (
	"fmt"
	"io"

	"github.com/0xmhha/hydrotrack/pkg/aggregator"
	"github.com/0xmhha/hydrotrack/pkg/ingest"
	"github.com/0xmhha/hydrotrack/pkg/insight"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/trend"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatSummary implements Formatter.FormatSummary.
func (f *simpleFormatter) FormatSummary(w io.Writer, s *aggregator.Summary) error {
	_, err := fmt.Fprintf(w, "%s %s..%s | Records: %d | Total: %s | Effective: %s | Goal: %s | Progress: %s%%\n",
		s.Period,
		s.From,
		s.To,
		s.Count,
		formatML(s.TotalML),
		formatML(s.TotalEffectiveML),
		formatML(s.GoalML),
		formatFloat(s.ProgressPct, 2))
	return err
}

// FormatTrend implements Formatter.FormatTrend.
func (f *simpleFormatter) FormatTrend(w io.Writer, r *trend.Result) error {
	_, err := fmt.Fprintf(w, "%s: %s (%s -> %s, %s)\n",
		r.Period,
		r.Tendency,
		formatML(r.PreviousTotal),
		formatML(r.CurrentTotal),
		formatPct(r.ChangePct))
	return err
}

// FormatInsights implements Formatter.FormatInsights.
func (f *simpleFormatter) FormatInsights(w io.Writer, r *insight.Report) error {
	if _, err := fmt.Fprintf(w, "%d days | Records: %d | Active days: %d | Consistency: %s | Efficiency: %s\n",
		r.AnalysisPeriod.Days,
		r.TotalRecords,
		r.ActiveDays,
		formatFloat(r.ConsistencyScore, 2),
		formatFloat(r.EfficiencyScore, 2)); err != nil {
		return err
	}

	for _, rec := range r.Recommendations {
		if _, err := fmt.Fprintf(w, "- %s\n", rec.Message); err != nil {
			return err
		}
	}
	return nil
}

// FormatSnapshot implements Formatter.FormatSnapshot.
func (f *simpleFormatter) FormatSnapshot(w io.Writer, s model.DailySnapshot) error {
	_, err := fmt.Fprintf(w, "%s %s: %s of %s (%d records, completed: %s)\n",
		s.UserID,
		s.Date,
		formatML(s.EffectiveHydrationML),
		formatML(s.GoalML),
		s.RecordCount,
		yesNo(s.Completed))
	return err
}

// FormatConsumption implements Formatter.FormatConsumption.
func (f *simpleFormatter) FormatConsumption(w io.Writer, c model.Consumption) error {
	_, err := fmt.Fprintf(w, "%s: %s %s (%s effective) at %s\n",
		c.ID,
		formatML(c.AmountML),
		c.Beverage.Name,
		formatML(c.EffectiveHydrationML),
		c.OccurredAt.Format(timeLayout))
	return err
}

// FormatProfiles implements Formatter.FormatProfiles.
func (f *simpleFormatter) FormatProfiles(w io.Writer, profiles []*model.Profile) error {
	for _, p := range profiles {
		if _, err := fmt.Fprintf(w, "%s: goal %s, premium: %s, zone: %s\n",
			p.UserID,
			formatML(p.DailyGoalML),
			yesNo(p.IsPremium),
			p.TimeZone); err != nil {
			return err
		}
	}
	return nil
}

// FormatUpdate implements Formatter.FormatUpdate.
func (f *simpleFormatter) FormatUpdate(w io.Writer, u ingest.Update) error {
	_, err := fmt.Fprintf(w, "%s: %d stored, %d duplicates, %d rejected, %d skipped\n",
		u.Path,
		u.Stored,
		u.Duplicates,
		u.Rejected,
		u.Skipped)
	return err
}
