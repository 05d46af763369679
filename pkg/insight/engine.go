package insight

import (
	"context"
	"fmt"
	"sort"

	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/store"
	"github.com/0xmhha/hydrotrack/pkg/timewindow"
)

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Engine produces insight reports.
type Engine struct {
	reader   store.Reader
	resolver *timewindow.Resolver
	logger   logger.Logger
}

// New creates an insight engine.
func New(reader store.Reader, resolver *timewindow.Resolver, log logger.Logger) *Engine {
	return &Engine{reader: reader, resolver: resolver, logger: log}
}

// Analyze reports on the last days calendar days ending today in tz.
// An empty or unknown tz uses the resolver's default zone.
func (e *Engine) Analyze(ctx context.Context, userID string, days int, tz string) (*Report, error) {
	if err := CheckDays(days); err != nil {
		return nil, err
	}

	loc, _ := e.resolver.Location(tz)
	w, err := e.resolver.ResolveIn(timewindow.Rolling(days), nil, loc)
	if err != nil {
		return nil, err
	}

	records, err := e.reader.Find(ctx, userID, store.Range{Start: w.Start, End: w.End})
	if err != nil {
		return nil, fmt.Errorf("failed to load records for insights: %w", err)
	}

	rep := Build(records, w)
	rep.UserID = userID

	e.logger.Debug("insights computed",
		"user_id", userID,
		"days", days,
		"records", rep.TotalRecords,
		"consistency", rep.ConsistencyScore)

	return rep, nil
}

// CheckDays returns ErrInvalidDays unless days is within 1..MaxDays.
func CheckDays(days int) error {
	if days < 1 || days > MaxDays {
		return fmt.Errorf("%w: got %d", ErrInvalidDays, days)
	}
	return nil
}

// Build computes the report for the records inside w.
func Build(records []model.Consumption, w timewindow.Window) *Report {
	days := w.Days()
	rep := &Report{
		AnalysisPeriod: AnalysisPeriod{
			Days:     days,
			From:     w.First.String(),
			To:       w.Last.String(),
			TimeZone: w.TimeZone(),
		},
		Insights:        []Insight{},
		Patterns:        []Pattern{},
		Recommendations: []Recommendation{},
	}

	var (
		byHour     [24]int
		byWeekday  [7]int
		byBeverage = make(map[string]int)
		activeDays = make(map[timewindow.Date]struct{})
	)

	for i := range records {
		rec := &records[i]
		if !w.Contains(rec.OccurredAt) {
			continue
		}
		rep.TotalRecords++
		rep.TotalML += rec.AmountML
		rep.TotalEffectiveML += rec.EffectiveHydrationML

		local := rec.OccurredAt.In(w.Location)
		day := timewindow.DateOf(local, w.Location)
		activeDays[day] = struct{}{}
		byHour[local.Hour()] += rec.AmountML
		byWeekday[day.ISOWeekday()] += rec.AmountML
		byBeverage[beverageName(rec.Beverage)] += rec.AmountML
	}

	rep.ActiveDays = len(activeDays)
	sc := scores{
		consistency:  100 * float64(rep.ActiveDays) / float64(days),
		averageDaily: float64(rep.TotalML) / float64(days),
	}
	rep.ConsistencyScore = model.Percent(rep.ActiveDays, days)
	rep.AverageDailyML = model.Round2(sc.averageDaily)
	if rep.TotalML > 0 {
		sc.efficiency = 100 * float64(rep.TotalEffectiveML) / float64(rep.TotalML)
		rep.EfficiencyScore = model.Percent(rep.TotalEffectiveML, rep.TotalML)
	}

	if rep.TotalRecords > 0 {
		rep.Patterns = patterns(byHour, byWeekday, byBeverage)
	}
	rep.Insights = append(rep.Insights, consistencyInsight(rep, sc))
	if rep.TotalML > 0 {
		rep.Insights = append(rep.Insights, efficiencyInsight(rep, sc))
	}
	rep.Recommendations = append(rep.Recommendations, recommendations(rep, sc)...)

	return rep
}

// scores are the unrounded report values. Thresholds apply to these; the
// report shows them rounded to two decimals.
type scores struct {
	consistency  float64
	efficiency   float64
	averageDaily float64
}

func patterns(byHour [24]int, byWeekday [7]int, byBeverage map[string]int) []Pattern {
	hour := argmax(byHour[:])
	weekday := argmax(byWeekday[:])

	names := make([]string, 0, len(byBeverage))
	for name := range byBeverage {
		names = append(names, name)
	}
	sort.Strings(names)
	favorite := names[0]
	for _, name := range names[1:] {
		if byBeverage[name] > byBeverage[favorite] {
			favorite = name
		}
	}

	return []Pattern{
		{
			Type:        PatternPeakHour,
			Value:       fmt.Sprintf("%02d:00", hour),
			AmountML:    byHour[hour],
			Description: fmt.Sprintf("You drink the most between %02d:00 and %02d:59", hour, hour),
		},
		{
			Type:        PatternPeakWeekday,
			Value:       weekdayNames[weekday],
			AmountML:    byWeekday[weekday],
			Description: fmt.Sprintf("%s is your highest-intake day of the week", weekdayNames[weekday]),
		},
		{
			Type:        PatternFavoriteBeverage,
			Value:       favorite,
			AmountML:    byBeverage[favorite],
			Description: fmt.Sprintf("Your most consumed beverage is %s", favorite),
		},
	}
}

func consistencyInsight(rep *Report, sc scores) Insight {
	in := Insight{Type: TypeConsistency, Score: rep.ConsistencyScore}
	switch {
	case sc.consistency >= ConsistencyExcellent:
		in.Tone, in.Title = Positive, "excellent consistency"
	case sc.consistency >= ConsistencyGood:
		in.Tone, in.Title = Neutral, "good consistency"
	default:
		in.Tone, in.Title = Negative, "consistency could improve"
	}
	in.Message = fmt.Sprintf("You logged intake on %d of the last %d days (%.2f%%)",
		rep.ActiveDays, rep.AnalysisPeriod.Days, rep.ConsistencyScore)
	return in
}

func efficiencyInsight(rep *Report, sc scores) Insight {
	in := Insight{Type: TypeEfficiency, Score: rep.EfficiencyScore}
	switch {
	case sc.efficiency >= EfficiencyExcellent:
		in.Tone, in.Title = Positive, "excellent hydration efficiency"
	case sc.efficiency >= EfficiencyGood:
		in.Tone, in.Title = Neutral, "good hydration efficiency"
	default:
		in.Tone, in.Title = Negative, "hydration efficiency needs improvement"
	}
	in.Message = fmt.Sprintf("%d ml of your %d ml counted as effective hydration (%.2f%%)",
		rep.TotalEffectiveML, rep.TotalML, rep.EfficiencyScore)
	return in
}

func recommendations(rep *Report, sc scores) []Recommendation {
	var out []Recommendation

	switch {
	case sc.averageDaily < LowIntakeML:
		out = append(out, Recommendation{
			Type: RecommendIncreaseIntake,
			Message: fmt.Sprintf("Your average intake is %.0f ml a day; try to reach at least %.0f ml",
				rep.AverageDailyML, LowIntakeML),
		})
	case sc.averageDaily > HighIntakeML:
		out = append(out, Recommendation{
			Type: RecommendConsultProfessional,
			Message: fmt.Sprintf("Your average intake is %.0f ml a day; consult a health professional to verify this is healthy for you",
				rep.AverageDailyML),
		})
	}

	if rep.TotalML > 0 && sc.efficiency < EfficiencyGood {
		out = append(out, Recommendation{
			Type:    RecommendImproveEfficiency,
			Message: "Choose water or other beverages with a higher hydration factor more often",
		})
	}

	if sc.consistency < ConsistencyGood {
		out = append(out, Recommendation{
			Type:    RecommendImproveConsistency,
			Message: "Log your intake every day; a daily reminder helps build the habit",
		})
	}

	return out
}

// argmax returns the lowest index holding the largest value.
func argmax(values []int) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func beverageName(b model.Beverage) string {
	if key := b.Key(); key != "" {
		return key
	}
	return "unknown"
}
