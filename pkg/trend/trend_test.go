package trend

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/aggregator"
	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/store"
	"github.com/0xmhha/hydrotrack/pkg/timewindow"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

// countingSource records how often totals were requested.
type countingSource struct {
	calls int
	err   error
}

func (c *countingSource) Totals(context.Context, string, timewindow.Window) (aggregator.Totals, error) {
	c.calls++
	return aggregator.Totals{}, c.err
}

func newAnalyzer(t *testing.T, src TotalsSource) *Analyzer {
	t.Helper()
	r, err := timewindow.NewResolver("UTC", clock)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return New(r, src, logger.Noop())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{250, SignificantIncrease},
		{10.01, SignificantIncrease},
		{10, ModerateIncrease},
		{5.01, ModerateIncrease},
		{5, Stable},
		{0, Stable},
		{-4.99, Stable},
		{-5, ModerateDecrease},
		{-9.99, ModerateDecrease},
		{-10, SignificantDecrease},
		{-100, SignificantDecrease},
	}

	for _, tt := range tests {
		if got := Classify(tt.pct); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		prev      int
		cur       int
		wantPct   *float64
		wantML    int
		wantLabel string
	}{
		{"exactly ten percent", 1000, 1100, ptr(10), 100, ModerateIncrease},
		{"no prior data", 0, 500, nil, 500, NoComparison},
		{"nothing at all", 0, 0, nil, 0, NoData},
		{"drop to zero", 800, 0, ptr(-100), -800, SignificantDecrease},
		{"rounded third", 3000, 3100, ptr(3.33), 100, Stable},
		{"small dip", 2000, 1880, ptr(-6), -120, ModerateDecrease},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compare(tt.prev, tt.cur)
			if res.Tendency != tt.wantLabel {
				t.Errorf("Tendency = %q, want %q", res.Tendency, tt.wantLabel)
			}
			if res.ChangeML != tt.wantML {
				t.Errorf("ChangeML = %d, want %d", res.ChangeML, tt.wantML)
			}
			switch {
			case tt.wantPct == nil && res.ChangePct != nil:
				t.Errorf("ChangePct = %v, want nil", *res.ChangePct)
			case tt.wantPct != nil && (res.ChangePct == nil || *res.ChangePct != *tt.wantPct):
				t.Errorf("ChangePct = %v, want %v", res.ChangePct, *tt.wantPct)
			}
		})
	}
}

func TestNullChangePctInJSON(t *testing.T) {
	data, err := json.Marshal(Compare(0, 500))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"change_pct":null`) {
		t.Errorf("JSON = %s, want change_pct null", data)
	}
}

func TestAnalyzeInvalidPeriod(t *testing.T) {
	src := &countingSource{}
	an := newAnalyzer(t, src)

	_, err := an.Analyze(context.Background(), "u-1", "hourly", "")
	if !errors.Is(err, timewindow.ErrInvalidPeriod) {
		t.Fatalf("Analyze() error = %v, want ErrInvalidPeriod", err)
	}
	if !strings.Contains(err.Error(), "annual") {
		t.Errorf("error %q should list accepted values", err)
	}
	if src.calls != 0 {
		t.Errorf("store queried %d times for an invalid period", src.calls)
	}
}

func TestAnalyzeStoreFailure(t *testing.T) {
	an := newAnalyzer(t, &countingSource{err: store.ErrStoreUnavailable})

	if _, err := an.Analyze(context.Background(), "u-1", "weekly", ""); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Errorf("Analyze() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestAnalyzeAgainstStore(t *testing.T) {
	st := store.NewMemory(clock)
	ctx := context.Background()
	add := func(amount int, at time.Time) {
		t.Helper()
		c := &model.Consumption{UserID: "u-1", Beverage: model.LookupBeverage("coffee"), AmountML: amount, OccurredAt: at}
		if err := st.Add(ctx, c); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	// Today is 2024-03-20. Yesterday 1000 ml, today 1100 ml.
	add(1000, time.Date(2024, 3, 19, 9, 0, 0, 0, time.UTC))
	add(1100, time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC))
	// Inside the previous rolling week (2024-03-07..13).
	add(500, time.Date(2024, 3, 13, 23, 59, 59, 0, time.UTC))

	an := newAnalyzer(t, aggregator.New(st, logger.Noop()))

	daily, err := an.Analyze(ctx, "u-1", "daily", "")
	if err != nil {
		t.Fatalf("Analyze(daily) error = %v", err)
	}
	if daily.PreviousTotal != 1000 || daily.CurrentTotal != 1100 {
		t.Errorf("daily totals = %d -> %d", daily.PreviousTotal, daily.CurrentTotal)
	}
	if daily.ChangePct == nil || *daily.ChangePct != 10 || daily.Tendency != ModerateIncrease {
		t.Errorf("daily = %+v", daily)
	}
	if daily.Previous.To != "2024-03-19" || daily.Current.From != "2024-03-20" {
		t.Errorf("daily ranges = %+v / %+v", daily.Previous, daily.Current)
	}

	weekly, err := an.Analyze(ctx, "u-1", "weekly", "")
	if err != nil {
		t.Fatalf("Analyze(weekly) error = %v", err)
	}
	if weekly.Current.From != "2024-03-14" || weekly.Previous.From != "2024-03-07" || weekly.Previous.To != "2024-03-13" {
		t.Errorf("weekly ranges = %+v / %+v", weekly.Previous, weekly.Current)
	}
	if weekly.PreviousTotal != 500 || weekly.CurrentTotal != 2100 {
		t.Errorf("weekly totals = %d -> %d", weekly.PreviousTotal, weekly.CurrentTotal)
	}
	if !weekly.Previous.End.Equal(weekly.Current.Start) {
		t.Error("weekly windows must be adjacent")
	}

	annual, err := an.Analyze(ctx, "u-1", "annual", "")
	if err != nil {
		t.Fatalf("Analyze(annual) error = %v", err)
	}
	if annual.PreviousTotal != 0 || annual.ChangePct != nil || annual.Tendency != NoComparison {
		t.Errorf("annual = %+v", annual)
	}

	empty, _ := an.Analyze(ctx, "nobody", "monthly", "")
	if empty.Tendency != NoData || empty.ChangePct != nil {
		t.Errorf("empty user = %+v", empty)
	}
}

func TestAnalyzeUnknownZoneFallsBack(t *testing.T) {
	an := newAnalyzer(t, &countingSource{})

	res, err := an.Analyze(context.Background(), "u-1", "daily", "Nowhere/Special")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.TimeZone != "UTC" {
		t.Errorf("TimeZone = %q, want UTC fallback", res.TimeZone)
	}
}

func ptr(f float64) *float64 { return &f }
