package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/store"
	"github.com/0xmhha/hydrotrack/pkg/timewindow"
)

// 2024-03-30 is a Saturday.
var testNow = time.Date(2024, 3, 30, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func setup(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	st := store.NewMemory(clock)
	r, err := timewindow.NewResolver("UTC", clock)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return New(st, r, logger.Noop()), st
}

func add(t *testing.T, st *store.Memory, beverage string, amount int, at time.Time) {
	t.Helper()
	c := &model.Consumption{UserID: "u-1", Beverage: model.LookupBeverage(beverage), AmountML: amount, OccurredAt: at}
	if err := st.Add(context.Background(), c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
}

func TestAnalyzeConsistencyBoundary(t *testing.T) {
	eng, st := setup(t)

	// Window is 2024-03-01..2024-03-30; drink on the first 24 days.
	for d := 1; d <= 24; d++ {
		add(t, st, "water", 2000, time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC))
	}

	rep, err := eng.Analyze(context.Background(), "u-1", 30, "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if rep.ConsistencyScore != 80 {
		t.Errorf("ConsistencyScore = %v, want 80", rep.ConsistencyScore)
	}
	if rep.Insights[0].Type != TypeConsistency || rep.Insights[0].Title != "excellent consistency" || rep.Insights[0].Tone != Positive {
		t.Errorf("first insight = %+v", rep.Insights[0])
	}
	if rep.AnalysisPeriod.From != "2024-03-01" || rep.AnalysisPeriod.To != "2024-03-30" {
		t.Errorf("period = %+v", rep.AnalysisPeriod)
	}
	if rep.TotalRecords != 24 || rep.TotalML != 48000 || rep.AverageDailyML != 1600 {
		t.Errorf("totals = %d records, %d ml, %v avg", rep.TotalRecords, rep.TotalML, rep.AverageDailyML)
	}
	if len(rep.Recommendations) != 0 {
		t.Errorf("Recommendations = %+v, want none", rep.Recommendations)
	}
}

func TestConsistencyTiers(t *testing.T) {
	r, _ := timewindow.NewResolver("UTC", clock)
	w, _ := r.Resolve(timewindow.Rolling(10), nil, "")

	tests := []struct {
		activeDays int
		title      string
		tone       Tone
	}{
		{10, "excellent consistency", Positive},
		{8, "excellent consistency", Positive},
		{7, "good consistency", Neutral},
		{6, "good consistency", Neutral},
		{5, "consistency could improve", Negative},
		{0, "consistency could improve", Negative},
	}

	for _, tt := range tests {
		var records []model.Consumption
		for d := 0; d < tt.activeDays; d++ {
			records = append(records, model.Consumption{
				AmountML:             2000,
				EffectiveHydrationML: 2000,
				Beverage:             model.LookupBeverage("water"),
				OccurredAt:           w.Start.Add(time.Duration(d)*24*time.Hour + time.Hour),
			})
		}
		rep := Build(records, w)
		if rep.Insights[0].Title != tt.title || rep.Insights[0].Tone != tt.tone {
			t.Errorf("%d active days: insight = %+v", tt.activeDays, rep.Insights[0])
		}
	}
}

func TestEfficiencyTiers(t *testing.T) {
	r, _ := timewindow.NewResolver("UTC", clock)
	w, _ := r.Resolve(timewindow.Rolling(1), nil, "")
	at := w.Start.Add(time.Hour)

	tests := []struct {
		effective int
		title     string
		recommend bool
	}{
		{1000, "excellent hydration efficiency", false},
		{900, "excellent hydration efficiency", false},
		{899, "good hydration efficiency", false},
		{700, "good hydration efficiency", false},
		{699, "hydration efficiency needs improvement", true},
	}

	for _, tt := range tests {
		records := []model.Consumption{{AmountML: 1000, EffectiveHydrationML: tt.effective, OccurredAt: at}}
		rep := Build(records, w)

		if len(rep.Insights) != 2 || rep.Insights[1].Type != TypeEfficiency {
			t.Fatalf("insights = %+v", rep.Insights)
		}
		if rep.Insights[1].Title != tt.title {
			t.Errorf("effective %d: title = %q, want %q", tt.effective, rep.Insights[1].Title, tt.title)
		}

		got := false
		for _, rec := range rep.Recommendations {
			if rec.Type == RecommendImproveEfficiency {
				got = true
			}
		}
		if got != tt.recommend {
			t.Errorf("effective %d: efficiency recommendation = %v, want %v", tt.effective, got, tt.recommend)
		}
	}
}

func TestThresholdsUseUnroundedValues(t *testing.T) {
	r, _ := timewindow.NewResolver("UTC", clock)

	t.Run("efficiency just under excellent", func(t *testing.T) {
		w, _ := r.Resolve(timewindow.Rolling(1), nil, "")
		records := []model.Consumption{{AmountML: 20000, EffectiveHydrationML: 17999, OccurredAt: w.Start.Add(time.Hour)}}

		rep := Build(records, w)
		if rep.EfficiencyScore != 90 {
			t.Errorf("EfficiencyScore = %v, want 90 after rounding", rep.EfficiencyScore)
		}
		if rep.Insights[1].Title != "good hydration efficiency" {
			t.Errorf("89.995%% efficiency titled %q", rep.Insights[1].Title)
		}
	})

	t.Run("average just under low intake", func(t *testing.T) {
		w, _ := r.Resolve(timewindow.Rolling(300), nil, "")
		records := []model.Consumption{{AmountML: 449999, EffectiveHydrationML: 449999, OccurredAt: w.Start.Add(time.Hour)}}

		rep := Build(records, w)
		if rep.AverageDailyML != 1500 {
			t.Errorf("AverageDailyML = %v, want 1500 after rounding", rep.AverageDailyML)
		}
		if len(rep.Recommendations) == 0 || rep.Recommendations[0].Type != RecommendIncreaseIntake {
			t.Errorf("Recommendations = %+v, want increase_intake first", rep.Recommendations)
		}
	})

	t.Run("average just over high intake", func(t *testing.T) {
		w, _ := r.Resolve(timewindow.Rolling(300), nil, "")
		records := []model.Consumption{{AmountML: 1200001, EffectiveHydrationML: 1200001, OccurredAt: w.Start.Add(time.Hour)}}

		rep := Build(records, w)
		if rep.AverageDailyML != 4000 {
			t.Errorf("AverageDailyML = %v, want 4000 after rounding", rep.AverageDailyML)
		}
		if len(rep.Recommendations) == 0 || rep.Recommendations[0].Type != RecommendConsultProfessional {
			t.Errorf("Recommendations = %+v, want consult_professional first", rep.Recommendations)
		}
	})
}

func TestEmptyReport(t *testing.T) {
	eng, _ := setup(t)

	rep, err := eng.Analyze(context.Background(), "nobody", 7, "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if rep.TotalRecords != 0 || rep.TotalML != 0 || rep.EfficiencyScore != 0 || rep.ConsistencyScore != 0 {
		t.Errorf("empty report = %+v", rep)
	}
	if len(rep.Patterns) != 0 {
		t.Errorf("Patterns = %+v, want none", rep.Patterns)
	}
	if len(rep.Insights) != 1 || rep.Insights[0].Type != TypeConsistency {
		t.Errorf("Insights = %+v, want only consistency", rep.Insights)
	}

	want := []string{RecommendIncreaseIntake, RecommendImproveConsistency}
	if len(rep.Recommendations) != len(want) {
		t.Fatalf("Recommendations = %+v", rep.Recommendations)
	}
	for i, typ := range want {
		if rep.Recommendations[i].Type != typ {
			t.Errorf("recommendation %d = %s, want %s", i, rep.Recommendations[i].Type, typ)
		}
	}
}

func TestRecommendationOrder(t *testing.T) {
	r, _ := timewindow.NewResolver("UTC", clock)
	w, _ := r.Resolve(timewindow.Rolling(10), nil, "")

	// One heavy day of beer: high average, low efficiency, low consistency.
	records := []model.Consumption{{
		AmountML:             45000,
		EffectiveHydrationML: model.EffectiveHydration(45000, 0.6),
		Beverage:             model.LookupBeverage("beer"),
		OccurredAt:           w.Start.Add(time.Hour),
	}}
	rep := Build(records, w)

	want := []string{RecommendConsultProfessional, RecommendImproveEfficiency, RecommendImproveConsistency}
	if len(rep.Recommendations) != len(want) {
		t.Fatalf("Recommendations = %+v", rep.Recommendations)
	}
	for i, typ := range want {
		if rep.Recommendations[i].Type != typ {
			t.Errorf("recommendation %d = %s, want %s", i, rep.Recommendations[i].Type, typ)
		}
	}
}

func TestPatterns(t *testing.T) {
	eng, st := setup(t)

	// Tuesday 2024-03-26 and Wednesday 2024-03-27.
	add(t, st, "coffee", 300, time.Date(2024, 3, 26, 8, 15, 0, 0, time.UTC))
	add(t, st, "water", 300, time.Date(2024, 3, 27, 8, 45, 0, 0, time.UTC))
	add(t, st, "water", 500, time.Date(2024, 3, 26, 14, 0, 0, 0, time.UTC))
	add(t, st, "tea", 800, time.Date(2024, 3, 27, 20, 0, 0, 0, time.UTC))

	rep, err := eng.Analyze(context.Background(), "u-1", 7, "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(rep.Patterns) != 3 {
		t.Fatalf("Patterns = %+v", rep.Patterns)
	}

	// Hour 20 (800 ml) beats 08 (600 ml); Wednesday (1100 ml) beats Tuesday (800 ml).
	// Beverages: water 800 and tea 800 tie, tea sorts first.
	checks := []struct {
		typ   string
		value string
		ml    int
	}{
		{PatternPeakHour, "20:00", 800},
		{PatternPeakWeekday, "Wednesday", 1100},
		{PatternFavoriteBeverage, "tea", 800},
	}
	for i, c := range checks {
		p := rep.Patterns[i]
		if p.Type != c.typ || p.Value != c.value || p.AmountML != c.ml {
			t.Errorf("pattern %d = %+v, want %s=%s (%d ml)", i, p, c.typ, c.value, c.ml)
		}
	}
}

func TestPatternTieBreaks(t *testing.T) {
	r, _ := timewindow.NewResolver("UTC", clock)
	w, _ := r.Resolve(timewindow.Rolling(7), nil, "")

	// Monday 2024-03-25 09:00 and Thursday 2024-03-28 07:00, equal amounts.
	records := []model.Consumption{
		{AmountML: 500, Beverage: model.Beverage{Name: "Water"}, OccurredAt: time.Date(2024, 3, 28, 7, 0, 0, 0, time.UTC)},
		{AmountML: 500, Beverage: model.Beverage{Name: "juice"}, OccurredAt: time.Date(2024, 3, 25, 9, 0, 0, 0, time.UTC)},
	}
	rep := Build(records, w)

	if rep.Patterns[0].Value != "07:00" {
		t.Errorf("peak hour = %s, want lowest hour 07:00", rep.Patterns[0].Value)
	}
	if rep.Patterns[1].Value != "Monday" {
		t.Errorf("peak weekday = %s, want Monday", rep.Patterns[1].Value)
	}
	if rep.Patterns[2].Value != "juice" {
		t.Errorf("favorite = %s, want juice", rep.Patterns[2].Value)
	}
}

func TestAnalyzeUsesLocalCalendar(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	eng, st := setup(t)

	// 23:30 UTC on the 29th is 08:30 on the 30th in Tokyo.
	add(t, st, "water", 400, time.Date(2024, 3, 29, 23, 30, 0, 0, time.UTC))

	rep, err := eng.Analyze(context.Background(), "u-1", 1, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if rep.AnalysisPeriod.TimeZone != loc.String() || rep.AnalysisPeriod.To != "2024-03-31" {
		t.Errorf("period = %+v", rep.AnalysisPeriod)
	}
	if rep.TotalRecords != 0 {
		t.Errorf("record from the 30th local should be outside a 1-day window on the 31st")
	}

	rep, _ = eng.Analyze(context.Background(), "u-1", 2, "Asia/Tokyo")
	if rep.TotalRecords != 1 || rep.Patterns[0].Value != "08:00" {
		t.Errorf("2-day Tokyo report = %+v", rep)
	}
}

func TestAnalyzeRejectsDays(t *testing.T) {
	eng, st := setup(t)
	st.FailWith(errors.New("must not be queried"))

	for _, days := range []int{0, -1, 366} {
		if _, err := eng.Analyze(context.Background(), "u-1", days, ""); !errors.Is(err, ErrInvalidDays) {
			t.Errorf("Analyze(days=%d) error = %v, want ErrInvalidDays", days, err)
		}
	}

	if _, err := eng.Analyze(context.Background(), "u-1", 30, ""); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Errorf("Analyze() error = %v, want ErrStoreUnavailable", err)
	}
}
