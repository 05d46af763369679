package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	val []byte
	exp time.Time
}

// Memory is an in-process Backend with TTL expiry and a size bound.
type Memory struct {
	mu         sync.RWMutex
	m          map[string]entry
	maxEntries int
	now        func() time.Time
}

// NewMemory creates a backend holding at most maxEntries values.
func NewMemory(maxEntries int, now func() time.Time) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{m: make(map[string]entry), maxEntries: maxEntries, now: now}
}

// Get implements Backend.Get.
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.exp) {
		return nil, false, nil
	}
	return e.val, true, nil
}

// Set implements Backend.Set. When full, expired entries go first, then
// the entry closest to expiry.
func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.m[key]; !exists && len(c.m) >= c.maxEntries {
		c.evict()
	}
	if _, exists := c.m[key]; !exists && len(c.m) >= c.maxEntries {
		return ErrBackendFull
	}

	c.m[key] = entry{val: value, exp: c.now().Add(ttl)}
	return nil
}

// DeletePrefix implements Backend.DeletePrefix.
func (c *Memory) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.m {
		if strings.HasPrefix(key, prefix) {
			delete(c.m, key)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// evict must be called with c.mu held.
func (c *Memory) evict() {
	now := c.now()
	for key, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, key)
		}
	}
	if len(c.m) < c.maxEntries {
		return
	}

	var (
		victim string
		oldest time.Time
	)
	for key, e := range c.m {
		if victim == "" || e.exp.Before(oldest) || (e.exp.Equal(oldest) && key < victim) {
			victim, oldest = key, e.exp
		}
	}
	delete(c.m, victim)
}
