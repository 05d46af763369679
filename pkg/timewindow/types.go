// Package timewindow converts user-local calendar periods into absolute
// UTC intervals.
//
// Every window is half-open: [Start, End) where Start is the local midnight
// that opens the first day and End is the local midnight that follows the
// last day. Two adjacent day windows share a boundary instant, so a record
// at that instant belongs to exactly one of them.
//
// Example usage:
//
//	r, err := timewindow.NewResolver("UTC", time.Now)
//	if err != nil {
//	    return err
//	}
//	ref, _ := timewindow.ParseDate("2024-03-14")
//	w, err := r.Resolve(timewindow.Day(), &ref, "America/Argentina/Buenos_Aires")
//	// w.Start = 2024-03-14T03:00:00Z, w.End = 2024-03-15T03:00:00Z
package timewindow

import (
	"fmt"
	"time"
)

// Kind is the shape of a period.
type Kind string

// Supported period kinds.
const (
	KindDay     Kind = "day"
	KindWeek    Kind = "week"
	KindMonth   Kind = "month"
	KindRolling Kind = "rolling"
)

// MaxRollingDays bounds rolling windows.
const MaxRollingDays = 366

// Period selects a calendar-aligned or rolling window.
type Period struct {
	Kind Kind `json:"kind"`

	// Days is the window length for rolling periods; ignored otherwise.
	Days int `json:"days,omitempty"`
}

// Day returns the single-calendar-day period.
func Day() Period { return Period{Kind: KindDay} }

// Week returns the ISO week (Monday to Sunday) period.
func Week() Period { return Period{Kind: KindWeek} }

// Month returns the calendar month period.
func Month() Period { return Period{Kind: KindMonth} }

// Rolling returns the last-n-days period ending on the reference day.
func Rolling(n int) Period { return Period{Kind: KindRolling, Days: n} }

// String renders the period, e.g. "week" or "rolling(30)".
func (p Period) String() string {
	if p.Kind == KindRolling {
		return fmt.Sprintf("rolling(%d)", p.Days)
	}
	return string(p.Kind)
}

// Validate checks the kind and, for rolling periods, the length.
func (p Period) Validate() error {
	switch p.Kind {
	case KindDay, KindWeek, KindMonth:
		return nil
	case KindRolling:
		if p.Days < 1 || p.Days > MaxRollingDays {
			return fmt.Errorf("%w: rolling window must span 1..%d days, got %d",
				ErrInvalidPeriod, MaxRollingDays, p.Days)
		}
		return nil
	default:
		return &PeriodError{
			Value:    string(p.Kind),
			Accepted: []string{string(KindDay), string(KindWeek), string(KindMonth), string(KindRolling)},
		}
	}
}

// Window is a resolved half-open interval [Start, End).
type Window struct {
	Period   Period         `json:"period"`
	Location *time.Location `json:"-"`

	// First and Last are the inclusive local calendar days covered.
	First Date `json:"first"`
	Last  Date `json:"last"`

	// Start and End are UTC instants.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered.
func (w Window) Days() int {
	return w.Last.Sub(w.First) + 1
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// TimeZone returns the IANA name of the window's zone.
func (w Window) TimeZone() string {
	if w.Location == nil {
		return "UTC"
	}
	return w.Location.String()
}

// String renders the window as "first..last zone".
func (w Window) String() string {
	return fmt.Sprintf("%s..%s %s", w.First, w.Last, w.TimeZone())
}
