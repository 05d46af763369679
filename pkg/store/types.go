// Package store persists consumption records and daily goal snapshots.
//
// Every operation is scoped by user id: records and snapshots live in
// per-user buckets, so a range query for one user cannot observe another
// user's rows.
//
// Example usage:
//
//	s, err := store.Open(store.Config{DBPath: "~/.config/hydrotrack/hydrotrack.db"}, log, time.Now)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	records, err := s.Find(ctx, "user-1", store.Range{Start: w.Start, End: w.End})
package store

import (
	"context"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/model"
)

// Range is a half-open UTC interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Validate rejects ranges that end before they start.
func (r Range) Validate() error {
	if r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Reader finds consumption records.
type Reader interface {
	// Find returns the user's records with OccurredAt inside r.
	// Ordering is not guaranteed.
	Find(ctx context.Context, userID string, r Range) ([]model.Consumption, error)
}

// Writer mutates consumption records.
//
// Implementations recompute EffectiveHydrationML before persisting.
type Writer interface {
	// Add stores a new record. The record's derived fields and id are filled in.
	Add(ctx context.Context, c *model.Consumption) error

	// Get returns one record of the user.
	Get(ctx context.Context, userID, id string) (model.Consumption, error)

	// Update replaces a record and returns the previous version.
	Update(ctx context.Context, c *model.Consumption) (model.Consumption, error)

	// Delete removes a record and returns it.
	Delete(ctx context.Context, userID, id string) (model.Consumption, error)
}

// BuildFunc turns the records of one day into its snapshot. It runs inside
// the store's write transaction and must not call back into the store.
type BuildFunc func(records []model.Consumption) model.DailySnapshot

// SnapshotWriter persists daily goal snapshots.
type SnapshotWriter interface {
	// UpsertDailySnapshot replaces the snapshot for (userID, date) atomically.
	// Calling it repeatedly with the same value is a no-op.
	UpsertDailySnapshot(ctx context.Context, userID, date string, snap model.DailySnapshot) error

	// RecomputeDailySnapshot reads the user's records inside r and stores
	// build(records) as the snapshot for date, both in one write
	// transaction. Concurrent writers are serialized, so the last snapshot
	// written has seen every record committed before it.
	RecomputeDailySnapshot(ctx context.Context, userID, date string, r Range, build BuildFunc) (model.DailySnapshot, error)

	// GetDailySnapshot returns the stored snapshot or ErrSnapshotNotFound.
	GetDailySnapshot(ctx context.Context, userID, date string) (model.DailySnapshot, error)
}

// Store combines all persistence operations.
type Store interface {
	Reader
	Writer
	SnapshotWriter

	// Close releases underlying resources.
	Close() error
}

// Config contains bolt store configuration.
type Config struct {
	// DBPath is the BoltDB file path. A leading ~ is expanded.
	DBPath string

	// Timeout is the time to wait for the file lock (default: 1 second).
	Timeout time.Duration
}
