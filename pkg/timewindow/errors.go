package timewindow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPeriod is returned for unrecognized period keywords or kinds.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrInvalidDate is returned when a date is not a valid YYYY-MM-DD value.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrInvalidDefaultZone is returned when the resolver's default zone cannot be loaded.
	ErrInvalidDefaultZone = errors.New("invalid default time zone")
)

// PeriodError reports a rejected period together with the accepted values.
type PeriodError struct {
	Value    string
	Accepted []string
}

// Error implements error.
func (e *PeriodError) Error() string {
	return fmt.Sprintf("invalid period %q: accepted values are %s",
		e.Value, strings.Join(e.Accepted, ", "))
}

// Unwrap returns ErrInvalidPeriod.
func (e *PeriodError) Unwrap() error {
	return ErrInvalidPeriod
}
