package model

import "errors"

// Validation errors for consumption records and profiles.
var (
	// ErrMissingUser is returned when a record has no owning user.
	ErrMissingUser = errors.New("user id is required")

	// ErrInvalidAmount is returned when amount_ml is not positive.
	ErrInvalidAmount = errors.New("amount_ml must be a positive integer")

	// ErrInvalidHydrationFactor is returned when a factor is outside [0.0, 2.0].
	ErrInvalidHydrationFactor = errors.New("hydration factor must be within [0.0, 2.0]")

	// ErrMissingTimestamp is returned when occurred_at is not set.
	ErrMissingTimestamp = errors.New("occurred_at is required")

	// ErrTimestampOutOfRange is returned when occurred_at lies outside
	// MinYear..MaxYear.
	ErrTimestampOutOfRange = errors.New("occurred_at must be between years 1678 and 2261")

	// ErrFutureTimestamp is returned when occurred_at is after server time.
	ErrFutureTimestamp = errors.New("occurred_at cannot be in the future")

	// ErrInvalidGoal is returned when a daily goal is not positive.
	ErrInvalidGoal = errors.New("daily goal must be a positive integer")

	// ErrInvalidTimeZone is returned when a profile names an unknown zone.
	ErrInvalidTimeZone = errors.New("unknown time zone")
)
