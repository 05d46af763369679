package timewindow

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata for %s not available: %v", name, err)
	}
	return loc
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func mustDate(t *testing.T, s string) *Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", s, err)
	}
	return &d
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-03-14", "2024-03-14", false},
		{" 2024-02-29 ", "2024-02-29", false},
		{"2023-02-29", "", true},
		{"2024-3-14", "", true},
		{"14/03/2024", "", true},
		{"", "", true},
		{"1678-01-01", "1678-01-01", false},
		{"2261-12-31", "2261-12-31", false},
		{"1677-12-31", "", true},
		{"2262-01-01", "", true},
		{"0001-01-01", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error = %v", tt.in, err)
			}
			if d.String() != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, d, tt.want)
			}
		})
	}
}

func TestDateArithmetic(t *testing.T) {
	d := Date{Year: 2024, Month: time.December, Day: 31}
	if got := d.AddDays(1).String(); got != "2025-01-01" {
		t.Errorf("AddDays(1) = %s", got)
	}
	if got := d.AddDays(-365).String(); got != "2024-01-01" {
		t.Errorf("AddDays(-365) = %s", got)
	}
	if got := d.Sub(Date{Year: 2024, Month: time.January, Day: 1}); got != 365 {
		t.Errorf("Sub() = %d, want 365", got)
	}
	if got := (Date{Year: 2024, Month: time.March, Day: 11}).ISOWeekday(); got != 0 {
		t.Errorf("Monday ISOWeekday() = %d, want 0", got)
	}
	if got := (Date{Year: 2024, Month: time.March, Day: 17}).ISOWeekday(); got != 6 {
		t.Errorf("Sunday ISOWeekday() = %d, want 6", got)
	}
}

func TestResolveDayBuenosAires(t *testing.T) {
	mustLoad(t, "America/Argentina/Buenos_Aires")
	r, err := NewResolver("UTC", fixedClock(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	w, err := r.Resolve(Day(), mustDate(t, "2024-03-14"), "America/Argentina/Buenos_Aires")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	wantStart := time.Date(2024, 3, 14, 3, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Errorf("window = [%v, %v), want [%v, %v)", w.Start, w.End, wantStart, wantEnd)
	}

	// 23:30 local on the 14th is 02:30Z on the 15th.
	record := time.Date(2024, 3, 15, 2, 30, 0, 0, time.UTC)
	if !w.Contains(record) {
		t.Error("late-evening record should fall on the local 14th")
	}

	next, _ := r.Resolve(Day(), mustDate(t, "2024-03-15"), "America/Argentina/Buenos_Aires")
	if next.Contains(record) {
		t.Error("late-evening record must not fall on the local 15th")
	}
}

func TestAdjacentDaysShareBoundary(t *testing.T) {
	zones := []string{"UTC", "America/New_York", "Europe/Berlin", "Australia/Lord_Howe", "America/Santiago"}
	dates := []string{"2024-03-09", "2024-03-10", "2024-03-30", "2024-03-31", "2024-10-05", "2024-11-02", "2024-12-31"}

	r, err := NewResolver("UTC", nil)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	for _, zone := range zones {
		mustLoad(t, zone)
		for _, ds := range dates {
			today, err := r.Resolve(Day(), mustDate(t, ds), zone)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			next := today.Last.AddDays(1)
			tomorrow, _ := r.Resolve(Day(), &next, zone)

			if !today.End.Equal(tomorrow.Start) {
				t.Errorf("%s %s: end %v != next start %v", zone, ds, today.End, tomorrow.Start)
			}

			boundary := tomorrow.Start
			for _, instant := range []time.Time{boundary.Add(-time.Millisecond), boundary, boundary.Add(time.Millisecond)} {
				in := 0
				if today.Contains(instant) {
					in++
				}
				if tomorrow.Contains(instant) {
					in++
				}
				if in != 1 {
					t.Errorf("%s %s: instant %v counted in %d windows", zone, ds, instant, in)
				}
			}
		}
	}
}

func TestResolveDSTDayLength(t *testing.T) {
	mustLoad(t, "America/New_York")
	r, _ := NewResolver("America/New_York", nil)

	spring, _ := r.Resolve(Day(), mustDate(t, "2024-03-10"), "")
	if got := spring.End.Sub(spring.Start); got != 23*time.Hour {
		t.Errorf("spring-forward day length = %v, want 23h", got)
	}

	fall, _ := r.Resolve(Day(), mustDate(t, "2024-11-03"), "")
	if got := fall.End.Sub(fall.Start); got != 25*time.Hour {
		t.Errorf("fall-back day length = %v, want 25h", got)
	}
}

func TestResolveCalendarPeriods(t *testing.T) {
	r, _ := NewResolver("UTC", nil)

	tests := []struct {
		name      string
		period    Period
		ref       string
		wantFirst string
		wantLast  string
		wantDays  int
	}{
		{"week from thursday", Week(), "2024-03-14", "2024-03-11", "2024-03-17", 7},
		{"week from monday", Week(), "2024-03-11", "2024-03-11", "2024-03-17", 7},
		{"week from sunday", Week(), "2024-03-17", "2024-03-11", "2024-03-17", 7},
		{"week across year", Week(), "2025-01-01", "2024-12-30", "2025-01-05", 7},
		{"leap february", Month(), "2024-02-10", "2024-02-01", "2024-02-29", 29},
		{"december", Month(), "2024-12-31", "2024-12-01", "2024-12-31", 31},
		{"rolling seven", Rolling(7), "2024-03-14", "2024-03-08", "2024-03-14", 7},
		{"rolling one", Rolling(1), "2024-03-14", "2024-03-14", "2024-03-14", 1},
		{"rolling year", Rolling(365), "2024-12-31", "2024-01-02", "2024-12-31", 365},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := r.Resolve(tt.period, mustDate(t, tt.ref), "")
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if w.First.String() != tt.wantFirst || w.Last.String() != tt.wantLast {
				t.Errorf("window = %s..%s, want %s..%s", w.First, w.Last, tt.wantFirst, tt.wantLast)
			}
			if w.Days() != tt.wantDays {
				t.Errorf("Days() = %d, want %d", w.Days(), tt.wantDays)
			}
		})
	}
}

func TestResolveTodayUsesZone(t *testing.T) {
	mustLoad(t, "Asia/Tokyo")
	// 20:00Z on the 14th is already the 15th in Tokyo.
	r, _ := NewResolver("UTC", fixedClock(time.Date(2024, 3, 14, 20, 0, 0, 0, time.UTC)))

	w, err := r.Resolve(Day(), nil, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if w.First.String() != "2024-03-15" {
		t.Errorf("today in Tokyo = %s, want 2024-03-15", w.First)
	}

	w, _ = r.Resolve(Day(), nil, "")
	if w.First.String() != "2024-03-14" {
		t.Errorf("today in UTC = %s, want 2024-03-14", w.First)
	}
}

func TestLocationFallback(t *testing.T) {
	mustLoad(t, "Europe/Berlin")
	r, err := NewResolver("Europe/Berlin", nil)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	tests := []struct {
		tz           string
		wantZone     string
		wantFellBack bool
	}{
		{"", "Europe/Berlin", false},
		{"UTC", "UTC", false},
		{"Not/AZone", "Europe/Berlin", true},
		{"Local", "Europe/Berlin", true},
	}

	for _, tt := range tests {
		t.Run(tt.tz, func(t *testing.T) {
			loc, fellBack := r.Location(tt.tz)
			if loc.String() != tt.wantZone || fellBack != tt.wantFellBack {
				t.Errorf("Location(%q) = %s, %v; want %s, %v", tt.tz, loc, fellBack, tt.wantZone, tt.wantFellBack)
			}
		})
	}

	if _, err := NewResolver("Not/AZone", nil); !errors.Is(err, ErrInvalidDefaultZone) {
		t.Errorf("NewResolver(bad zone) error = %v, want ErrInvalidDefaultZone", err)
	}
}

func TestPrevious(t *testing.T) {
	r, _ := NewResolver("UTC", nil)

	cur, _ := r.Resolve(Rolling(7), mustDate(t, "2024-03-14"), "")
	prev := Previous(cur)
	if prev.First.String() != "2024-03-01" || prev.Last.String() != "2024-03-07" {
		t.Errorf("Previous() = %s..%s, want 2024-03-01..2024-03-07", prev.First, prev.Last)
	}
	if !prev.End.Equal(cur.Start) {
		t.Errorf("previous window must end where current starts: %v vs %v", prev.End, cur.Start)
	}
	if prev.Days() != cur.Days() {
		t.Errorf("Days() = %d, want %d", prev.Days(), cur.Days())
	}

	day, _ := r.Resolve(Day(), mustDate(t, "2024-03-01"), "")
	if got := Previous(day).First.String(); got != "2024-02-29" {
		t.Errorf("yesterday of 2024-03-01 = %s, want 2024-02-29", got)
	}
}

func TestSubWindows(t *testing.T) {
	r, _ := NewResolver("UTC", nil)

	week, _ := r.Resolve(Week(), mustDate(t, "2024-03-14"), "")
	days := SubWindows(week)
	if len(days) != 7 {
		t.Fatalf("week breakdown has %d parts, want 7", len(days))
	}
	if days[0].First.String() != "2024-03-11" || days[6].First.String() != "2024-03-17" {
		t.Errorf("week breakdown spans %s..%s", days[0].First, days[6].First)
	}

	// March 2024 starts on a Friday and ends on a Sunday.
	month, _ := r.Resolve(Month(), mustDate(t, "2024-03-14"), "")
	weeks := SubWindows(month)
	want := []string{
		"2024-03-01..2024-03-03",
		"2024-03-04..2024-03-10",
		"2024-03-11..2024-03-17",
		"2024-03-18..2024-03-24",
		"2024-03-25..2024-03-31",
	}
	if len(weeks) != len(want) {
		t.Fatalf("month breakdown has %d parts, want %d", len(weeks), len(want))
	}
	for i, w := range weeks {
		if got := w.First.String() + ".." + w.Last.String(); got != want[i] {
			t.Errorf("week %d = %s, want %s", i, got, want[i])
		}
	}
	if !weeks[0].Start.Equal(month.Start) || !weeks[len(weeks)-1].End.Equal(month.End) {
		t.Error("month breakdown must cover exactly the month")
	}

	day, _ := r.Resolve(Day(), mustDate(t, "2024-03-14"), "")
	if SubWindows(day) != nil {
		t.Error("day windows have no breakdown")
	}
}

func TestKeywords(t *testing.T) {
	summary := map[string]Period{"daily": Day(), "WEEKLY": Week(), " monthly ": Month()}
	for in, want := range summary {
		got, err := ParsePeriodKeyword(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriodKeyword(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	trend := map[string]Period{"daily": Day(), "weekly": Rolling(7), "monthly": Rolling(30), "annual": Rolling(365)}
	for in, want := range trend {
		got, err := ParseTrendKeyword(in)
		if err != nil || got != want {
			t.Errorf("ParseTrendKeyword(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	_, err := ParseTrendKeyword("hourly")
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("ParseTrendKeyword(hourly) error = %v, want ErrInvalidPeriod", err)
	}
	var pe *PeriodError
	if !errors.As(err, &pe) {
		t.Fatalf("error %T is not a *PeriodError", err)
	}
	for _, accepted := range TrendKeywords {
		if !strings.Contains(err.Error(), accepted) {
			t.Errorf("error %q does not list %q", err, accepted)
		}
	}

	if _, err := ParsePeriodKeyword("annual"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("annual is not a summary period, got %v", err)
	}
}

func TestPeriodValidate(t *testing.T) {
	for _, p := range []Period{Rolling(0), Rolling(-3), Rolling(MaxRollingDays + 1), {Kind: "fortnight"}} {
		if err := p.Validate(); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("%v.Validate() = %v, want ErrInvalidPeriod", p, err)
		}
	}

	r, _ := NewResolver("UTC", nil)
	if _, err := r.Resolve(Rolling(0), nil, ""); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("Resolve(rolling(0)) error = %v", err)
	}
}
