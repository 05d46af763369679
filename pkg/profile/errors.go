package profile

import "errors"

// Common errors returned by profile stores.
var (
	// ErrProfileNotFound is returned when a user has no stored profile.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned by Create when the user already has a profile.
	ErrProfileExists = errors.New("profile already exists")

	// ErrInvalidProfile is returned for a nil profile.
	ErrInvalidProfile = errors.New("invalid profile")
)
