package timewindow

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/model"
)

// DateLayout is the accepted textual date format.
const DateLayout = "2006-01-02"

// Date is a civil calendar date with no zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a strict YYYY-MM-DD date within model.MinYear..MaxYear.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if !model.YearInRange(t.Year()) {
		return Date{}, fmt.Errorf("%w: %q is outside years %d-%d", ErrInvalidDate, s, model.MinYear, model.MaxYear)
	}
	return DateOf(t, time.UTC), nil
}

// DateOf returns the calendar date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// Midnight returns the instant of local midnight opening d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.civil().AddDate(0, 0, n), time.UTC)
}

// Sub returns the number of calendar days from other to d.
func (d Date) Sub(other Date) int {
	return int(d.civil().Sub(other.civil()).Hours() / 24)
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return d.civil().Weekday()
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.civil().Before(other.civil())
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String renders d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// civil anchors d at UTC midnight, where every day is 24 hours long.
func (d Date) civil() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// isoWeekday maps Monday to 0 and Sunday to 6.
func isoWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// ISOWeekday returns the Monday=0..Sunday=6 index of d.
func (d Date) ISOWeekday() int {
	return isoWeekday(d.Weekday())
}

