// Package cache memoizes analytics results per user with a bounded TTL.
//
// The cache is never required for correctness: backend failures and
// undecodable entries fall back to computing the value, and computation
// errors are never stored.
//
// Example usage:
//
//	f := cache.NewFacade(cache.NewMemory(1000, time.Now), 5*time.Minute, metrics, log)
//	key := cache.NewKey(cache.OpSummary, userID, "week", "2024-03-11", "UTC", "2000")
//	sum, err := cache.GetOrCompute(ctx, f, key, func(ctx context.Context) (*aggregator.Summary, error) {
//	    return engine.Summarize(ctx, userID, w, 2000)
//	})
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrBackendFull is returned by Set when no entry can be evicted.
var ErrBackendFull = errors.New("cache backend full")

// Backend stores encoded values.
type Backend interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Observer receives cache outcomes, e.g. for metrics.
type Observer interface {
	CacheHit(operation string)
	CacheMiss(operation string)
	CacheError()
}
