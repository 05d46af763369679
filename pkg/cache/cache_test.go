package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/hydrotrack/pkg/logger"
)

type result struct {
	Total int      `json:"total"`
	Pct   *float64 `json:"pct"`
}

type fakeObserver struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	errors int
}

func newObserver() *fakeObserver {
	return &fakeObserver{hits: map[string]int{}, misses: map[string]int{}}
}

func (o *fakeObserver) CacheHit(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits[op]++
}

func (o *fakeObserver) CacheMiss(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.misses[op]++
}

func (o *fakeObserver) CacheError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors++
}

// brokenBackend fails every call.
type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenBackend) DeletePrefix(context.Context, string) error {
	return errors.New("connection refused")
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func counter(total int, calls *int) func(context.Context) (*result, error) {
	return func(context.Context) (*result, error) {
		*calls++
		return &result{Total: total}, nil
	}
}

func TestKeyString(t *testing.T) {
	a := NewKey(OpSummary, "alice", "ab", "c").String()
	b := NewKey(OpSummary, "alice", "a", "bc").String()
	assert.NotEqual(t, a, b, "length prefixing must separate arg boundaries")

	assert.Equal(t, a, NewKey(OpSummary, "alice", "ab", "c").String())
	assert.True(t, strings.HasPrefix(a, UserPrefix("alice")))
	assert.NotEqual(t, NewKey(OpSummary, "alice").String(), NewKey(OpSummary, "bob").String())
	assert.NotEqual(t, NewKey(OpSummary, "alice").String(), NewKey(OpTrend, "alice").String())

	// "a|b" must not share a prefix with "a".
	assert.False(t, strings.HasPrefix(NewKey(OpSummary, "a|b").String(), UserPrefix("a")))
}

func TestGetOrComputeCaches(t *testing.T) {
	obs := newObserver()
	f := NewFacade(NewMemory(10, nil), time.Minute, obs, logger.Noop())
	ctx := context.Background()
	key := NewKey(OpSummary, "alice", "week")

	calls := 0
	first, err := GetOrCompute(ctx, f, key, counter(2000, &calls))
	require.NoError(t, err)
	second, err := GetOrCompute(ctx, f, key, counter(9999, &calls))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2000, first.Total)
	assert.Equal(t, 2000, second.Total)
	assert.Equal(t, 1, obs.hits[OpSummary])
	assert.Equal(t, 1, obs.misses[OpSummary])
}

func TestKeysArePerUser(t *testing.T) {
	f := NewFacade(NewMemory(10, nil), time.Minute, nil, logger.Noop())
	ctx := context.Background()

	calls := 0
	alice, _ := GetOrCompute(ctx, f, NewKey(OpTrend, "alice", "weekly"), counter(100, &calls))
	bob, _ := GetOrCompute(ctx, f, NewKey(OpTrend, "bob", "weekly"), counter(200, &calls))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 100, alice.Total)
	assert.Equal(t, 200, bob.Total)
}

func TestComputeErrorsAreNotCached(t *testing.T) {
	f := NewFacade(NewMemory(10, nil), time.Minute, nil, logger.Noop())
	ctx := context.Background()
	key := NewKey(OpInsights, "alice", "30")
	boom := errors.New("store unavailable")

	_, err := GetOrCompute(ctx, f, key, func(context.Context) (*result, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	calls := 0
	v, err := GetOrCompute(ctx, f, key, counter(42, &calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 42, v.Total)
}

func TestBackendFailureFallsBack(t *testing.T) {
	obs := newObserver()
	f := NewFacade(brokenBackend{}, time.Minute, obs, logger.Noop())

	calls := 0
	for i := 0; i < 2; i++ {
		v, err := GetOrCompute(context.Background(), f, NewKey(OpSummary, "alice"), counter(7, &calls))
		require.NoError(t, err)
		assert.Equal(t, 7, v.Total)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 4, obs.errors, "one get and one set failure per call")

	f.InvalidateUser(context.Background(), "alice")
	assert.Equal(t, 5, obs.errors)
}

func TestUndecodableEntryFallsBack(t *testing.T) {
	mem := NewMemory(10, nil)
	f := NewFacade(mem, time.Minute, nil, logger.Noop())
	ctx := context.Background()
	key := NewKey(OpSummary, "alice")

	require.NoError(t, mem.Set(ctx, key.String(), []byte(`"not an object"`), time.Minute))

	calls := 0
	v, err := GetOrCompute(ctx, f, key, counter(5, &calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 5, v.Total)
}

func TestNilFacadeComputes(t *testing.T) {
	var f *Facade
	calls := 0
	v, err := GetOrCompute(context.Background(), f, NewKey(OpSummary, "alice"), counter(3, &calls))
	require.NoError(t, err)
	assert.Equal(t, 3, v.Total)

	f.InvalidateUser(context.Background(), "alice")
}

func TestNullPointerFieldsSurvive(t *testing.T) {
	f := NewFacade(NewMemory(10, nil), time.Minute, nil, logger.Noop())
	ctx := context.Background()
	key := NewKey(OpTrend, "alice", "daily")
	pct := 10.0

	_, _ = GetOrCompute(ctx, f, key, func(context.Context) (*result, error) { return &result{Total: 1, Pct: &pct}, nil })
	cached, err := GetOrCompute(ctx, f, key, func(context.Context) (*result, error) { return nil, errors.New("unexpected") })
	require.NoError(t, err)
	require.NotNil(t, cached.Pct)
	assert.Equal(t, 10.0, *cached.Pct)
}

func TestTTLExpiry(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)}
	f := NewFacade(NewMemory(10, c.now), time.Minute, nil, logger.Noop())
	ctx := context.Background()
	key := NewKey(OpSummary, "alice")

	calls := 0
	_, _ = GetOrCompute(ctx, f, key, counter(1, &calls))
	c.advance(59 * time.Second)
	_, _ = GetOrCompute(ctx, f, key, counter(1, &calls))
	assert.Equal(t, 1, calls)

	c.advance(time.Second)
	_, _ = GetOrCompute(ctx, f, key, counter(1, &calls))
	assert.Equal(t, 2, calls)
}

func TestInvalidateUser(t *testing.T) {
	mem := NewMemory(10, nil)
	f := NewFacade(mem, time.Minute, nil, logger.Noop())
	ctx := context.Background()

	calls := 0
	for _, user := range []string{"alice", "alice2", "bob"} {
		_, _ = GetOrCompute(ctx, f, NewKey(OpSummary, user), counter(1, &calls))
		_, _ = GetOrCompute(ctx, f, NewKey(OpTrend, user), counter(1, &calls))
	}
	require.Equal(t, 6, mem.Len())

	f.InvalidateUser(ctx, "alice")
	assert.Equal(t, 4, mem.Len())

	_, _ = GetOrCompute(ctx, f, NewKey(OpSummary, "alice2"), counter(1, &calls))
	assert.Equal(t, 6, calls, "other users keep their entries")
}

func TestInvalidationDuringComputeDropsResult(t *testing.T) {
	mem := NewMemory(10, nil)
	f := NewFacade(mem, time.Minute, nil, logger.Noop())
	ctx := context.Background()
	key := NewKey(OpSummary, "alice", "day")

	// A write lands while the value is being computed from the old data.
	stale, err := GetOrCompute(ctx, f, key, func(ctx context.Context) (*result, error) {
		f.InvalidateUser(ctx, "alice")
		return &result{Total: 500}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 500, stale.Total, "the caller still gets its value")
	assert.Zero(t, mem.Len(), "the value must not be cached")

	calls := 0
	fresh, err := GetOrCompute(ctx, f, key, counter(1200, &calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1200, fresh.Total)

	// Other users are unaffected by alice's invalidations.
	_, err = GetOrCompute(ctx, f, NewKey(OpSummary, "bob"), func(ctx context.Context) (*result, error) {
		f.InvalidateUser(ctx, "alice")
		return &result{Total: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Len(), "bob's value is cached")
	_, err = GetOrCompute(ctx, f, NewKey(OpSummary, "bob"), counter(2, &calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "bob hits the cache")
}

func TestMemoryEviction(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)}
	mem := NewMemory(2, c.now)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "a", []byte("1"), time.Minute))
	c.advance(time.Second)
	require.NoError(t, mem.Set(ctx, "b", []byte("2"), time.Minute))
	c.advance(time.Second)
	require.NoError(t, mem.Set(ctx, "c", []byte("3"), time.Minute))

	_, okA, _ := mem.Get(ctx, "a")
	_, okB, _ := mem.Get(ctx, "b")
	_, okC, _ := mem.Get(ctx, "c")
	assert.False(t, okA, "earliest expiry is evicted")
	assert.True(t, okB)
	assert.True(t, okC)

	// Expired entries are dropped before live ones.
	require.NoError(t, mem.Set(ctx, "short", []byte("4"), time.Millisecond))
	c.advance(time.Second)
	require.NoError(t, mem.Set(ctx, "d", []byte("5"), time.Minute))
	_, okC, _ = mem.Get(ctx, "c")
	assert.True(t, okC)
	assert.Equal(t, 2, mem.Len())
}
