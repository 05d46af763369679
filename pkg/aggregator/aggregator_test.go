package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/store"
	"github.com/0xmhha/hydrotrack/pkg/timewindow"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func setup(t *testing.T, zone string) (*Engine, *store.Memory, *timewindow.Resolver) {
	t.Helper()
	if _, err := time.LoadLocation(zone); err != nil {
		t.Skipf("tzdata for %s not available: %v", zone, err)
	}
	st := store.NewMemory(clock)
	r, err := timewindow.NewResolver(zone, clock)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return New(st, logger.Noop()), st, r
}

func add(t *testing.T, st store.Writer, user string, amount int, factor float64, at time.Time) {
	t.Helper()
	c := &model.Consumption{
		UserID:     user,
		Beverage:   model.Beverage{Name: "water", HydrationFactor: factor},
		AmountML:   amount,
		OccurredAt: at,
	}
	if err := st.Add(context.Background(), c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
}

func date(t *testing.T, s string) *timewindow.Date {
	t.Helper()
	d, err := timewindow.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	return &d
}

func TestSummarizeLateEveningRecordStaysOnLocalDay(t *testing.T) {
	const zone = "America/Argentina/Buenos_Aires"
	eng, st, r := setup(t, "UTC")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		t.Skipf("tzdata for %s not available: %v", zone, err)
	}

	add(t, st, "u-1", 2000, 1.0, time.Date(2024, 3, 14, 23, 30, 0, 0, loc))

	w, _ := r.Resolve(timewindow.Day(), date(t, "2024-03-14"), zone)
	sum, err := eng.Summarize(context.Background(), "u-1", w, 2000)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if sum.TotalML != 2000 || sum.TotalEffectiveML != 2000 || sum.Count != 1 {
		t.Errorf("2024-03-14 summary = %+v", sum.Statistics)
	}
	if !sum.Completed || sum.ProgressPct != 100 {
		t.Errorf("progress = %v completed = %v", sum.ProgressPct, sum.Completed)
	}

	w, _ = r.Resolve(timewindow.Day(), date(t, "2024-03-15"), zone)
	sum, err = eng.Summarize(context.Background(), "u-1", w, 2000)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if sum.TotalML != 0 || sum.TotalEffectiveML != 0 || sum.Count != 0 {
		t.Errorf("2024-03-15 summary = %+v", sum.Statistics)
	}
	if sum.FirstSeen != nil || sum.Breakdown != nil {
		t.Errorf("empty day should have no first_seen or breakdown: %+v", sum)
	}
}

func TestSummarizeHalfFactorProgress(t *testing.T) {
	eng, st, r := setup(t, "UTC")
	add(t, st, "u-1", 300, 0.5, time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC))

	w, _ := r.Resolve(timewindow.Day(), date(t, "2024-03-14"), "")
	sum, err := eng.Summarize(context.Background(), "u-1", w, 2000)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if sum.TotalEffectiveML != 150 {
		t.Errorf("TotalEffectiveML = %d, want 150", sum.TotalEffectiveML)
	}
	if sum.ProgressPct != 7.5 {
		t.Errorf("ProgressPct = %v, want 7.5", sum.ProgressPct)
	}
	if sum.Completed {
		t.Error("Completed = true, want false")
	}
}

func TestProgressClamp(t *testing.T) {
	for goal := 1; goal <= 5000; goal += 499 {
		for eff := 0; eff <= 3*goal; eff += goal/7 + 1 {
			p := Progress(eff, goal)
			if p < 0 || p > 100 {
				t.Fatalf("Progress(%d, %d) = %v out of [0, 100]", eff, goal, p)
			}
			if eff >= goal && p != 100 {
				t.Fatalf("Progress(%d, %d) = %v, want 100", eff, goal, p)
			}
		}
	}
	if got := Progress(500, 0); got != 0 {
		t.Errorf("Progress with zero goal = %v, want 0", got)
	}
}

func TestReduceIgnoresRecordsOutsideWindow(t *testing.T) {
	r, _ := timewindow.NewResolver("UTC", clock)
	w, _ := r.Resolve(timewindow.Day(), date(t, "2024-03-14"), "")

	var records []model.Consumption
	want := 0
	for i := 0; i < 48; i++ {
		at := w.Start.Add(time.Duration(i-12) * time.Hour)
		c := model.Consumption{
			UserID:     "u-1",
			Beverage:   model.Beverage{HydrationFactor: 0.1 * float64(i%20+1)},
			AmountML:   100 + i*7,
			OccurredAt: at,
		}
		c.Recompute()
		if w.Contains(at) {
			want += c.EffectiveHydrationML
		}
		records = append(records, c)
	}

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		rng.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
		sum := Reduce(records, w, 2000)
		if sum.TotalEffectiveML != want {
			t.Fatalf("round %d: TotalEffectiveML = %d, want %d", round, sum.TotalEffectiveML, want)
		}
		if sum.Count != 24 {
			t.Fatalf("round %d: Count = %d, want 24", round, sum.Count)
		}
	}
}

func TestReduceStatistics(t *testing.T) {
	r, _ := timewindow.NewResolver("UTC", clock)
	w, _ := r.Resolve(timewindow.Day(), date(t, "2024-03-14"), "")

	base := w.Start
	records := []model.Consumption{
		{AmountML: 500, EffectiveHydrationML: 500, OccurredAt: base.Add(10 * time.Hour)},
		{AmountML: 100, EffectiveHydrationML: 80, OccurredAt: base.Add(8 * time.Hour)},
		{AmountML: 300, EffectiveHydrationML: 270, OccurredAt: base.Add(12 * time.Hour)},
	}

	sum := Reduce(records, w, 2000)
	if sum.MinML != 100 || sum.MaxML != 500 || sum.P50ML != 300 {
		t.Errorf("min/max/p50 = %d/%d/%d", sum.MinML, sum.MaxML, sum.P50ML)
	}
	if sum.AvgML != 300 {
		t.Errorf("AvgML = %v, want 300", sum.AvgML)
	}
	if !sum.FirstSeen.Equal(base.Add(8*time.Hour)) || !sum.LastSeen.Equal(base.Add(12*time.Hour)) {
		t.Errorf("first/last = %v/%v", sum.FirstSeen, sum.LastSeen)
	}
}

func TestSummarizeWeekBreakdown(t *testing.T) {
	eng, st, r := setup(t, "UTC")

	// Monday through Sunday of 2024-03-11, one record per day, plus one
	// record on the following Monday that must be excluded.
	for i := 0; i < 8; i++ {
		add(t, st, "u-1", 250*(i+1), 1.0, time.Date(2024, 3, 11+i, 10, 0, 0, 0, time.UTC))
	}

	w, _ := r.Resolve(timewindow.Week(), date(t, "2024-03-14"), "")
	sum, err := eng.Summarize(context.Background(), "u-1", w, 2000)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if sum.GoalML != 14000 {
		t.Errorf("GoalML = %d, want 14000", sum.GoalML)
	}
	if sum.TotalML != 7000 {
		t.Errorf("TotalML = %d, want 7000", sum.TotalML)
	}
	if sum.ProgressPct != 50 {
		t.Errorf("ProgressPct = %v, want 50", sum.ProgressPct)
	}
	if len(sum.Breakdown) != 7 {
		t.Fatalf("len(Breakdown) = %d, want 7", len(sum.Breakdown))
	}

	total := 0
	for i, day := range sum.Breakdown {
		if day.GoalML != 2000 || day.Count != 1 {
			t.Errorf("day %d = %+v", i, day)
		}
		total += day.TotalML
	}
	if total != sum.TotalML {
		t.Errorf("breakdown total %d != summary total %d", total, sum.TotalML)
	}
	if sum.Breakdown[6].ProgressPct != 87.5 || sum.Breakdown[6].Completed {
		t.Errorf("sunday = %v%% completed=%v, want 87.5%% not completed",
			sum.Breakdown[6].ProgressPct, sum.Breakdown[6].Completed)
	}
}

func TestSummarizeMonthBreakdown(t *testing.T) {
	eng, st, r := setup(t, "UTC")
	add(t, st, "u-1", 400, 1.0, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC))
	add(t, st, "u-1", 600, 1.0, time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC))

	w, _ := r.Resolve(timewindow.Month(), date(t, "2024-03-14"), "")
	sum, err := eng.Summarize(context.Background(), "u-1", w, 2000)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if sum.GoalML != 62000 {
		t.Errorf("GoalML = %d, want 62000", sum.GoalML)
	}
	if len(sum.Breakdown) != 5 {
		t.Fatalf("len(Breakdown) = %d, want 5", len(sum.Breakdown))
	}
	first, last := sum.Breakdown[0], sum.Breakdown[4]
	if first.TotalML != 400 || first.GoalML != 6000 {
		t.Errorf("first week = %+v", first)
	}
	if last.TotalML != 600 || last.GoalML != 14000 {
		t.Errorf("last week = %+v", last)
	}
}

func TestSummarizeStoreFailure(t *testing.T) {
	eng, st, r := setup(t, "UTC")
	st.FailWith(errors.New("disk on fire"))

	w, _ := r.Resolve(timewindow.Day(), nil, "")
	sum, err := eng.Summarize(context.Background(), "u-1", w, 2000)
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("Summarize() error = %v, want ErrStoreUnavailable", err)
	}
	if sum != nil {
		t.Errorf("Summarize() returned %+v alongside an error", sum)
	}

	if _, err := eng.Totals(context.Background(), "u-1", w); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Errorf("Totals() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestSummarizeUserScoping(t *testing.T) {
	eng, st, r := setup(t, "UTC")
	add(t, st, "alice", 1000, 1.0, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC))
	add(t, st, "bob", 700, 1.0, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC))

	w, _ := r.Resolve(timewindow.Day(), date(t, "2024-03-14"), "")
	sum, _ := eng.Summarize(context.Background(), "bob", w, 2000)
	if sum.TotalML != 700 {
		t.Errorf("bob TotalML = %d, want 700", sum.TotalML)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	eng, st, _ := setup(t, "UTC")
	add(t, st, "u-1", 1500, 1.0, time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC))
	add(t, st, "u-1", 600, 1.0, time.Date(2024, 3, 14, 20, 0, 0, 0, time.UTC))
	add(t, st, "u-1", 900, 1.0, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	ctx := context.Background()
	day := date(t, "2024-03-14")

	first, err := eng.Recompute(ctx, st, "u-1", *day, time.UTC, 2000)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	second, err := eng.Recompute(ctx, st, "u-1", *day, time.UTC, 2000)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("recomputations differ:\n%s\n%s", a, b)
	}
	if first.ConsumedML != 2100 || !first.Completed || first.RecordCount != 2 {
		t.Errorf("snapshot = %+v", first)
	}

	stored, err := st.GetDailySnapshot(ctx, "u-1", "2024-03-14")
	if err != nil {
		t.Fatalf("GetDailySnapshot() error = %v", err)
	}
	if stored != first {
		t.Errorf("stored = %+v, want %+v", stored, first)
	}
}

func TestRecomputeStoreFailureKeepsPriorSnapshot(t *testing.T) {
	eng, st, _ := setup(t, "UTC")
	add(t, st, "u-1", 500, 1.0, time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC))

	ctx := context.Background()
	day := date(t, "2024-03-14")
	prior, err := eng.Recompute(ctx, st, "u-1", *day, time.UTC, 2000)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	st.FailWith(errors.New("timeout"))
	if _, err := eng.Recompute(ctx, st, "u-1", *day, time.UTC, 2000); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("Recompute() error = %v, want ErrStoreUnavailable", err)
	}
	st.FailWith(nil)

	stored, _ := st.GetDailySnapshot(ctx, "u-1", "2024-03-14")
	if stored != prior {
		t.Errorf("snapshot changed after failed recompute: %+v", stored)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []int{100, 200, 300, 400, 500}
	tests := []struct {
		p    int
		want int
	}{
		{0, 100},
		{50, 300},
		{75, 400},
		{100, 500},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%d) = %d, want %d", tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(nil) = %d", got)
	}
}
