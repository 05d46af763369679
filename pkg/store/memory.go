package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/model"
)

// Memory implements Store in process memory with the same semantics as Bolt.
// Useful for tests.
type Memory struct {
	mu        sync.RWMutex
	records   map[string]map[string]model.Consumption // user -> id -> record
	snapshots map[string]map[string]model.DailySnapshot
	now       func() time.Time
	failure   error
}

// NewMemory creates an empty in-memory store.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		records:   make(map[string]map[string]model.Consumption),
		snapshots: make(map[string]map[string]model.DailySnapshot),
		now:       now,
	}
}

// FailWith makes every subsequent operation fail with err wrapped in
// ErrStoreUnavailable. A nil err restores normal behaviour.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

func (m *Memory) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.failure != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, m.failure)
	}
	return nil
}

// Find implements Reader.Find.
func (m *Memory) Find(ctx context.Context, userID string, r Range) ([]model.Consumption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(ctx, "find"); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	return m.inRange(userID, r), nil
}

func (m *Memory) inRange(userID string, r Range) []model.Consumption {
	out := []model.Consumption{}
	for _, rec := range m.records[userID] {
		if r.Contains(rec.OccurredAt) {
			out = append(out, rec)
		}
	}
	return out
}

// Add implements Writer.Add.
func (m *Memory) Add(ctx context.Context, c *model.Consumption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "add"); err != nil {
		return err
	}
	c.Recompute()
	if err := c.Validate(m.now()); err != nil {
		return err
	}
	if m.owner(c.ID) != "" {
		return ErrDuplicateRecord
	}

	if m.records[c.UserID] == nil {
		m.records[c.UserID] = make(map[string]model.Consumption)
	}
	m.records[c.UserID][c.ID] = *c
	return nil
}

// Get implements Writer.Get.
func (m *Memory) Get(ctx context.Context, userID, id string) (model.Consumption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(ctx, "get"); err != nil {
		return model.Consumption{}, err
	}
	rec, ok := m.records[userID][id]
	if !ok {
		return model.Consumption{}, ErrRecordNotFound
	}
	return rec, nil
}

// Update implements Writer.Update.
func (m *Memory) Update(ctx context.Context, c *model.Consumption) (model.Consumption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "update"); err != nil {
		return model.Consumption{}, err
	}
	old, ok := m.records[c.UserID][c.ID]
	if !ok || c.ID == "" {
		return model.Consumption{}, ErrRecordNotFound
	}
	c.Recompute()
	if err := c.Validate(m.now()); err != nil {
		return model.Consumption{}, err
	}
	m.records[c.UserID][c.ID] = *c
	return old, nil
}

// Delete implements Writer.Delete.
func (m *Memory) Delete(ctx context.Context, userID, id string) (model.Consumption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "delete"); err != nil {
		return model.Consumption{}, err
	}
	old, ok := m.records[userID][id]
	if !ok {
		return model.Consumption{}, ErrRecordNotFound
	}
	delete(m.records[userID], id)
	return old, nil
}

// UpsertDailySnapshot implements SnapshotWriter.UpsertDailySnapshot.
func (m *Memory) UpsertDailySnapshot(ctx context.Context, userID, date string, snap model.DailySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "upsert snapshot"); err != nil {
		return err
	}
	snap.UserID, snap.Date = userID, date
	if m.snapshots[userID] == nil {
		m.snapshots[userID] = make(map[string]model.DailySnapshot)
	}
	m.snapshots[userID][date] = snap
	return nil
}

// RecomputeDailySnapshot implements SnapshotWriter.RecomputeDailySnapshot
// under the write lock.
func (m *Memory) RecomputeDailySnapshot(ctx context.Context, userID, date string, r Range, build BuildFunc) (model.DailySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, "recompute snapshot"); err != nil {
		return model.DailySnapshot{}, err
	}
	if err := r.Validate(); err != nil {
		return model.DailySnapshot{}, err
	}

	snap := build(m.inRange(userID, r))
	snap.UserID, snap.Date = userID, date
	if m.snapshots[userID] == nil {
		m.snapshots[userID] = make(map[string]model.DailySnapshot)
	}
	m.snapshots[userID][date] = snap
	return snap, nil
}

// GetDailySnapshot implements SnapshotWriter.GetDailySnapshot.
func (m *Memory) GetDailySnapshot(ctx context.Context, userID, date string) (model.DailySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(ctx, "get snapshot"); err != nil {
		return model.DailySnapshot{}, err
	}
	snap, ok := m.snapshots[userID][date]
	if !ok {
		return model.DailySnapshot{}, ErrSnapshotNotFound
	}
	return snap, nil
}

// Close implements Store.Close.
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) owner(id string) string {
	for user, recs := range m.records {
		if _, ok := recs[id]; ok {
			return user
		}
	}
	return ""
}
