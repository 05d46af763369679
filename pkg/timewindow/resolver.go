package timewindow

import (
	"fmt"
	"strings"
	"time"
)

// Resolver turns periods into windows in a caller-supplied or default zone.
//
// The default zone and the clock are explicit values so that callers can
// run several zones side by side without shared state.
type Resolver struct {
	defaultLoc *time.Location
	now        func() time.Time
}

// NewResolver creates a resolver whose fallback zone is defaultZone.
// An empty defaultZone means UTC; a nil now means time.Now.
func NewResolver(defaultZone string, now func() time.Time) (*Resolver, error) {
	if defaultZone == "" {
		defaultZone = "UTC"
	}
	loc, err := loadZone(defaultZone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDefaultZone, defaultZone, err)
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{defaultLoc: loc, now: now}, nil
}

// Default returns the resolver's fallback zone.
func (r *Resolver) Default() *time.Location {
	return r.defaultLoc
}

// Now returns the resolver clock's current instant.
func (r *Resolver) Now() time.Time {
	return r.now()
}

// Location resolves tz, falling back to the default zone when tz is empty
// or unknown. fellBack is true only when a non-empty tz was rejected.
func (r *Resolver) Location(tz string) (loc *time.Location, fellBack bool) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return r.defaultLoc, false
	}
	loc, err := loadZone(tz)
	if err != nil {
		return r.defaultLoc, true
	}
	return loc, false
}

// Today returns the current calendar date in loc.
func (r *Resolver) Today(loc *time.Location) Date {
	return DateOf(r.now(), loc)
}

// Resolve returns the window of period containing ref in zone tz.
// A nil ref means today in the resolved zone.
func (r *Resolver) Resolve(period Period, ref *Date, tz string) (Window, error) {
	loc, _ := r.Location(tz)
	return r.ResolveIn(period, ref, loc)
}

// ResolveIn is Resolve with an already loaded zone.
func (r *Resolver) ResolveIn(period Period, ref *Date, loc *time.Location) (Window, error) {
	if err := period.Validate(); err != nil {
		return Window{}, err
	}
	if loc == nil {
		loc = r.defaultLoc
	}

	day := r.Today(loc)
	if ref != nil {
		day = *ref
	}

	var first, last Date
	switch period.Kind {
	case KindDay:
		first, last = day, day
	case KindWeek:
		first = day.AddDays(-day.ISOWeekday())
		last = first.AddDays(6)
	case KindMonth:
		first = Date{Year: day.Year, Month: day.Month, Day: 1}
		last = Date{Year: day.Year, Month: day.Month + 1, Day: 1}.AddDays(-1)
	case KindRolling:
		first, last = day.AddDays(-(period.Days - 1)), day
	}

	return newWindow(period, loc, first, last), nil
}

// Previous returns the window of equal length that ends the day before w starts.
func Previous(w Window) Window {
	n := w.Days()
	return newWindow(w.Period, w.Location, w.First.AddDays(-n), w.First.AddDays(-1))
}

// SubWindows splits w into its breakdown units: days for week and rolling
// windows, ISO weeks clipped to the month for month windows. Day windows
// have no breakdown.
func SubWindows(w Window) []Window {
	switch w.Period.Kind {
	case KindWeek, KindRolling:
		out := make([]Window, 0, w.Days())
		for d := w.First; !w.Last.Before(d); d = d.AddDays(1) {
			out = append(out, newWindow(Day(), w.Location, d, d))
		}
		return out
	case KindMonth:
		var out []Window
		for start := w.First; !w.Last.Before(start); {
			end := start.AddDays(6 - start.ISOWeekday())
			if w.Last.Before(end) {
				end = w.Last
			}
			out = append(out, newWindow(Week(), w.Location, start, end))
			start = end.AddDays(1)
		}
		return out
	default:
		return nil
	}
}

func newWindow(p Period, loc *time.Location, first, last Date) Window {
	if loc == nil {
		loc = time.UTC
	}
	return Window{
		Period:   p,
		Location: loc,
		First:    first,
		Last:     last,
		Start:    first.Midnight(loc).UTC(),
		End:      last.AddDays(1).Midnight(loc).UTC(),
	}
}

// loadZone rejects "Local" so results never depend on the host zone.
func loadZone(name string) (*time.Location, error) {
	if strings.EqualFold(name, "local") {
		return nil, fmt.Errorf("zone %q is host dependent", name)
	}
	return time.LoadLocation(name)
}

// ForDay returns the single-day window of d in loc.
func ForDay(d Date, loc *time.Location) Window {
	return newWindow(Day(), loc, d, d)
}
