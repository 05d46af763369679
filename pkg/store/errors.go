package store

import "errors"

var (
	// ErrStoreUnavailable wraps every persistence failure.
	ErrStoreUnavailable = errors.New("consumption store unavailable")

	// ErrRecordNotFound is returned when a consumption id does not exist for the user.
	ErrRecordNotFound = errors.New("consumption record not found")

	// ErrSnapshotNotFound is returned when no snapshot exists for the user and date.
	ErrSnapshotNotFound = errors.New("daily snapshot not found")

	// ErrDuplicateRecord is returned when a record id is already stored.
	ErrDuplicateRecord = errors.New("consumption record already exists")

	// ErrInvalidRange is returned when a range ends before it starts.
	ErrInvalidRange = errors.New("invalid time range")
)
