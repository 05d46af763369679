package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/parser"
)

type reader struct {
	store  PositionStore
	parser parser.Parser
	logger logger.Logger
	config Config

	// mu guards closed and serializes position updates.
	mu     sync.Mutex
	closed bool
}

// New creates an incremental reader.
func New(cfg Config, log logger.Logger) (Reader, error) {
	if cfg.PositionStore == nil {
		return nil, fmt.Errorf("%w: position store", ErrMissingDependency)
	}
	if cfg.Parser == nil {
		return nil, fmt.Errorf("%w: parser", ErrMissingDependency)
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = parser.MaxFileSize
	}

	return &reader{
		store:  cfg.PositionStore,
		parser: cfg.Parser,
		logger: log,
		config: cfg,
	}, nil
}

// Read implements Reader.Read.
func (r *reader) Read(ctx context.Context, path string) (parser.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return parser.Result{}, ErrReaderClosed
	}

	offset, err := r.store.GetPosition(path)
	if err != nil {
		return parser.Result{}, fmt.Errorf("failed to get position: %w", err)
	}

	res, err := r.readWithRetry(ctx, path, offset)
	if err != nil {
		return parser.Result{}, err
	}

	r.logger.Debug("read complete",
		"path", path,
		"records", len(res.Records),
		"skipped", res.Skipped,
		"offset", res.Offset)

	return res, nil
}

// ReadFrom implements Reader.ReadFrom.
func (r *reader) ReadFrom(ctx context.Context, path string, offset int64) (parser.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return parser.Result{}, ErrReaderClosed
	}
	if offset < 0 {
		return parser.Result{}, ErrInvalidOffset
	}
	return r.readWithRetry(ctx, path, offset)
}

// Commit implements Reader.Commit.
func (r *reader) Commit(path string, offset int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrReaderClosed
	}
	if offset < 0 {
		return ErrInvalidOffset
	}

	current, err := r.store.GetPosition(path)
	if err != nil {
		return fmt.Errorf("failed to get position: %w", err)
	}
	if current == offset {
		return nil
	}
	if err := r.store.SetPosition(path, offset); err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

// Reset implements Reader.Reset.
func (r *reader) Reset(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrReaderClosed
	}
	if err := r.store.SetPosition(path, 0); err != nil {
		return fmt.Errorf("failed to reset position: %w", err)
	}

	r.logger.Info("position reset", "path", path)
	return nil
}

// Close implements Reader.Close.
func (r *reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *reader) readWithRetry(ctx context.Context, path string, offset int64) (parser.Result, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.config.RetryDelay * time.Duration(1<<(attempt-1)) // nolint:gosec // attempt is bounded by MaxRetries
			r.logger.Debug("retrying read", "path", path, "attempt", attempt, "delay", delay)

			select {
			case <-ctx.Done():
				return parser.Result{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		res, err := r.readFile(ctx, path, offset)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return parser.Result{}, err
		}

		r.logger.Warn("read attempt failed", "path", path, "attempt", attempt, "error", err)
	}

	return parser.Result{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (r *reader) readFile(ctx context.Context, path string, offset int64) (parser.Result, error) {
	if err := ctx.Err(); err != nil {
		return parser.Result{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return parser.Result{}, ErrFileNotFound
		case os.IsPermission(err):
			return parser.Result{}, ErrPermissionDenied
		}
		return parser.Result{}, fmt.Errorf("failed to stat file: %w", err)
	}

	size := info.Size()
	if size > r.config.MaxFileSize {
		return parser.Result{}, ErrFileTooLarge
	}

	if offset > size {
		r.logger.Warn("file was truncated, resetting offset",
			"path", path,
			"old_offset", offset,
			"file_size", size)
		offset = 0
	}
	if offset == size {
		return parser.Result{Start: offset, Offset: offset}, nil
	}

	res, err := r.parser.ParseFile(path, offset)
	if err != nil {
		return parser.Result{}, fmt.Errorf("failed to parse file: %w", err)
	}
	return res, nil
}

func isRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrFileNotFound):
		return true // The file may be created shortly.
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrInvalidOffset),
		errors.Is(err, parser.ErrFileTooLarge),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}
