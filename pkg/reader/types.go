// Package reader reads consumption logs incrementally.
//
// Read offsets are persisted per file, so a restarted process continues
// where it stopped instead of importing the same drinks twice.
//
// Example usage:
//
//	positions, err := reader.NewBoltPositionStore(st.DB())
//	if err != nil {
//	    return err
//	}
//	r, err := reader.New(reader.Config{
//	    PositionStore: positions,
//	    Parser:        parser.New(log, time.Now),
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	res, err := r.Read(ctx, "/var/hydrotrack/inbox/today.jsonl")
//	if err != nil {
//	    return err
//	}
//	// store res.Records, then
//	err = r.Commit("/var/hydrotrack/inbox/today.jsonl", res.Offset)
package reader

import (
	"context"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/parser"
)

// PositionStore persists file read positions.
type PositionStore interface {
	// GetPosition returns the stored offset of path, or 0 when none exists.
	GetPosition(path string) (int64, error)

	// SetPosition stores the offset of path.
	SetPosition(path string, offset int64) error
}

// Reader provides incremental file reading.
type Reader interface {
	// Read parses path from its stored offset. The stored offset does not
	// move until the caller commits the part it has handled.
	Read(ctx context.Context, path string) (parser.Result, error)

	// Commit stores offset as the position of path. Callers commit only past
	// records they have stored, so that a failed store is read again.
	Commit(path string, offset int64) error

	// ReadFrom parses path from offset without touching the stored offset.
	ReadFrom(ctx context.Context, path string, offset int64) (parser.Result, error)

	// Reset moves the stored offset of path back to the beginning.
	Reset(path string) error

	// Close closes the reader.
	Close() error
}

// Config contains reader configuration.
type Config struct {
	// PositionStore persists file read positions.
	PositionStore PositionStore

	// Parser parses log lines.
	Parser parser.Parser

	// MaxRetries is the maximum number of retry attempts for transient errors.
	// Default: 3.
	MaxRetries int

	// RetryDelay is the base delay between attempts, doubled on each retry.
	// Default: 100ms.
	RetryDelay time.Duration

	// MaxFileSize is the maximum file size to read.
	// Default: 100MB.
	MaxFileSize int64
}
