package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/logger"
)

// Facade wraps a Backend with TTL, observation and logging.
// A nil *Facade is valid and always computes.
type Facade struct {
	backend Backend
	ttl     time.Duration
	obs     Observer
	logger  logger.Logger

	// generations counts invalidations per user. A value computed across
	// an invalidation is returned but not stored.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewFacade creates a facade. obs may be nil.
func NewFacade(backend Backend, ttl time.Duration, obs Observer, log logger.Logger) *Facade {
	return &Facade{backend: backend, ttl: ttl, obs: obs, logger: log}
}

// GetOrCompute returns the cached value for key or computes, stores and
// returns it. Cache problems are logged and never returned.
func GetOrCompute[T any](ctx context.Context, f *Facade, key Key, compute func(context.Context) (T, error)) (T, error) {
	if f == nil || f.backend == nil {
		return compute(ctx)
	}

	k := key.String()

	data, ok, err := f.backend.Get(ctx, k)
	switch {
	case err != nil:
		f.failed("cache get failed", k, err)
	case ok:
		var v T
		decodeErr := json.Unmarshal(data, &v)
		if decodeErr == nil {
			f.hit(key.Operation)
			return v, nil
		}
		f.failed("cache entry undecodable", k, decodeErr)
	}
	f.miss(key.Operation)

	gen := f.generation(key.UserID)
	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		f.failed("cache encode failed", k, err)
		return v, nil
	}
	f.storeIfCurrent(ctx, key.UserID, gen, k, encoded)
	return v, nil
}

// InvalidateUser drops every cached entry of userID.
func (f *Facade) InvalidateUser(ctx context.Context, userID string) {
	if f == nil || f.backend == nil {
		return
	}
	f.mu.Lock()
	if f.generations == nil {
		f.generations = make(map[string]uint64)
	}
	f.generations[userID]++
	f.mu.Unlock()

	if err := f.backend.DeletePrefix(ctx, UserPrefix(userID)); err != nil {
		f.failed("cache invalidation failed", userID, err)
	}
}

func (f *Facade) generation(userID string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generations[userID]
}

// storeIfCurrent sets k unless userID was invalidated since gen was read.
// The check and the Set happen under one lock so an invalidation either
// precedes the check or deletes the entry afterwards.
func (f *Facade) storeIfCurrent(ctx context.Context, userID string, gen uint64, k string, encoded []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.generations[userID] != gen {
		if f.logger != nil {
			f.logger.Debug("discarding value computed across an invalidation", "key", k)
		}
		return
	}
	if err := f.backend.Set(ctx, k, encoded, f.ttl); err != nil {
		f.failed("cache set failed", k, err)
	}
}

func (f *Facade) hit(op string) {
	if f.obs != nil {
		f.obs.CacheHit(op)
	}
}

func (f *Facade) miss(op string) {
	if f.obs != nil {
		f.obs.CacheMiss(op)
	}
}

func (f *Facade) failed(msg, key string, err error) {
	if f.obs != nil {
		f.obs.CacheError()
	}
	if f.logger != nil {
		f.logger.Warn(msg, "key", key, "error", err)
	}
}
