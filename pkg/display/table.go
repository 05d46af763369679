package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/hydrotrack/pkg/aggregator"
	"github.com/0xmhha/hydrotrack/pkg/ingest"
	"github.com/0xmhha/hydrotrack/pkg/insight"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/trend"
)

const timeLayout = "2006-01-02 15:04:05"

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatSummary implements Formatter.FormatSummary.
func (f *tableFormatter) FormatSummary(w io.Writer, s *aggregator.Summary) error {
	title := fmt.Sprintf("Hydration Summary (%s)", s.Period)
	if err := writeHeader(w, title, f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Period", s.From + " .. " + s.To},
		{"Time Zone", s.TimeZone},
		{"Records", formatNumber(s.Count)},
		{"Total", formatML(s.TotalML)},
		{"Effective", formatML(s.TotalEffectiveML)},
		{"Goal", formatML(s.GoalML)},
		{"Progress", progressBar(s.ProgressPct, f.config.Width-14)},
		{"Completed", yesNo(s.Completed)},
		{"Average", formatFloat(s.AvgML, 2) + " ml"},
		{"Min/Max", formatML(s.MinML) + " / " + formatML(s.MaxML)},
	}

	if f.config.ShowPercentiles {
		rows = append(rows,
			[]string{"P50", formatML(s.P50ML)},
			[]string{"P95", formatML(s.P95ML)},
		)
	}

	if f.config.ShowTimestamps && s.FirstSeen != nil && s.LastSeen != nil {
		rows = append(rows,
			[]string{"First Seen", s.FirstSeen.In(s.Start.Location()).Format(timeLayout)},
			[]string{"Last Seen", s.LastSeen.In(s.Start.Location()).Format(timeLayout)},
		)
	}

	if err := f.writeTable(w, []string{"Metric", "Value"}, rows); err != nil {
		return err
	}

	if len(s.Breakdown) == 0 {
		return nil
	}

	if err := writeHeader(w, "Breakdown", f.config.Compact); err != nil {
		return err
	}

	header := []string{"From", "To", "Records", "Total", "Effective", "Goal", "Progress", "Done"}
	breakdown := make([][]string, len(s.Breakdown))
	for i, b := range s.Breakdown {
		breakdown[i] = []string{
			b.From,
			b.To,
			formatNumber(b.Count),
			formatNumber(b.TotalML),
			formatNumber(b.TotalEffectiveML),
			formatNumber(b.GoalML),
			formatFloat(b.ProgressPct, 2) + "%",
			yesNo(b.Completed),
		}
	}
	return f.writeTable(w, header, breakdown)
}

// FormatTrend implements Formatter.FormatTrend.
func (f *tableFormatter) FormatTrend(w io.Writer, r *trend.Result) error {
	title := fmt.Sprintf("Hydration Trend (%s)", r.Period)
	if err := writeHeader(w, title, f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Tendency", r.Tendency},
		{"Current", r.Current.From + " .. " + r.Current.To},
		{"Previous", r.Previous.From + " .. " + r.Previous.To},
		{"Current Total", formatML(r.CurrentTotal)},
		{"Previous Total", formatML(r.PreviousTotal)},
		{"Change", formatML(r.ChangeML)},
		{"Change %", formatPct(r.ChangePct)},
		{"Time Zone", r.TimeZone},
	}
	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

// FormatInsights implements Formatter.FormatInsights.
func (f *tableFormatter) FormatInsights(w io.Writer, r *insight.Report) error {
	title := fmt.Sprintf("Hydration Insights (%d days)", r.AnalysisPeriod.Days)
	if err := writeHeader(w, title, f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Period", r.AnalysisPeriod.From + " .. " + r.AnalysisPeriod.To},
		{"Records", formatNumber(r.TotalRecords)},
		{"Total", formatML(r.TotalML)},
		{"Effective", formatML(r.TotalEffectiveML)},
		{"Active Days", formatNumber(r.ActiveDays)},
		{"Daily Average", formatFloat(r.AverageDailyML, 2) + " ml"},
		{"Consistency", progressBar(r.ConsistencyScore, f.config.Width-16)},
		{"Efficiency", progressBar(r.EfficiencyScore, f.config.Width-16)},
	}
	if err := f.writeTable(w, []string{"Metric", "Value"}, rows); err != nil {
		return err
	}

	if len(r.Insights) > 0 {
		if err := writeHeader(w, "Insights", f.config.Compact); err != nil {
			return err
		}
		out := make([][]string, len(r.Insights))
		for i, in := range r.Insights {
			out[i] = []string{string(in.Tone), in.Title, in.Message}
		}
		if err := f.writeTable(w, []string{"Tone", "Title", "Message"}, out); err != nil {
			return err
		}
	}

	if len(r.Patterns) > 0 {
		if err := writeHeader(w, "Patterns", f.config.Compact); err != nil {
			return err
		}
		out := make([][]string, len(r.Patterns))
		for i, p := range r.Patterns {
			out[i] = []string{p.Type, p.Value, formatML(p.AmountML)}
		}
		if err := f.writeTable(w, []string{"Pattern", "Value", "Amount"}, out); err != nil {
			return err
		}
	}

	if len(r.Recommendations) > 0 {
		if err := writeHeader(w, "Recommendations", f.config.Compact); err != nil {
			return err
		}
		out := make([][]string, len(r.Recommendations))
		for i, rec := range r.Recommendations {
			out[i] = []string{fmt.Sprintf("%d", i+1), rec.Message}
		}
		if err := f.writeTable(w, []string{"#", "Recommendation"}, out); err != nil {
			return err
		}
	}

	return nil
}

// FormatSnapshot implements Formatter.FormatSnapshot.
func (f *tableFormatter) FormatSnapshot(w io.Writer, s model.DailySnapshot) error {
	if err := writeHeader(w, "Daily Snapshot "+s.Date, f.config.Compact); err != nil {
		return err
	}

	pct := model.Percent(s.EffectiveHydrationML, s.GoalML)
	rows := [][]string{
		{"User", s.UserID},
		{"Time Zone", s.TimeZone},
		{"Records", formatNumber(s.RecordCount)},
		{"Consumed", formatML(s.ConsumedML)},
		{"Effective", formatML(s.EffectiveHydrationML)},
		{"Goal", formatML(s.GoalML)},
		{"Progress", progressBar(pct, f.config.Width-14)},
		{"Completed", yesNo(s.Completed)},
	}
	return f.writeTable(w, []string{"Field", "Value"}, rows)
}

// FormatConsumption implements Formatter.FormatConsumption.
func (f *tableFormatter) FormatConsumption(w io.Writer, c model.Consumption) error {
	rows := [][]string{
		{"ID", c.ID},
		{"User", c.UserID},
		{"Beverage", c.Beverage.Name},
		{"Amount", formatML(c.AmountML)},
		{"Effective", formatML(c.EffectiveHydrationML)},
		{"Occurred At", c.OccurredAt.Format(timeLayout) + " UTC"},
	}
	return f.writeTable(w, []string{"Field", "Value"}, rows)
}

// FormatProfiles implements Formatter.FormatProfiles.
func (f *tableFormatter) FormatProfiles(w io.Writer, profiles []*model.Profile) error {
	if err := writeHeader(w, "Profiles", f.config.Compact); err != nil {
		return err
	}

	rows := make([][]string, len(profiles))
	for i, p := range profiles {
		tz := p.TimeZone
		if tz == "" {
			tz = "-"
		}
		rows[i] = []string{p.UserID, formatML(p.DailyGoalML), yesNo(p.IsPremium), tz}
	}
	return f.writeTable(w, []string{"User", "Daily Goal", "Premium", "Time Zone"}, rows)
}

// FormatUpdate implements Formatter.FormatUpdate.
func (f *tableFormatter) FormatUpdate(w io.Writer, u ingest.Update) error {
	rows := [][]string{{
		u.Timestamp.Format(timeLayout),
		u.Path,
		formatNumber(u.Stored),
		formatNumber(u.Duplicates),
		formatNumber(u.Rejected),
		formatNumber(u.Skipped),
		strings.Join(u.Users, ","),
	}}
	return f.writeTable(w, []string{"Time", "File", "Stored", "Dup", "Rejected", "Skipped", "Users"}, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}

// writeRow writes a single table row. The last cell is not padded.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(gap)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
