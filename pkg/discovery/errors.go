package discovery

import "errors"

// Common errors returned by the discovery package.
var (
	// ErrInboxNotFound is returned when an inbox directory does not exist.
	ErrInboxNotFound = errors.New("inbox directory not found")

	// ErrNotDirectory is returned when an inbox path is a regular file.
	ErrNotDirectory = errors.New("inbox path is not a directory")
)
