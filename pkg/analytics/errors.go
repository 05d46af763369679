package analytics

import "errors"

var (
	// ErrSnapshotRecompute is returned when a record was stored but the
	// day's snapshot could not be rebuilt. The prior snapshot is left intact.
	ErrSnapshotRecompute = errors.New("snapshot recomputation failed")
)
