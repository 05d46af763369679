package profile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/model"
)

// memoryStore implements Store using an in-memory map.
// Useful for testing.
type memoryStore struct {
	mu       sync.RWMutex
	profiles map[string]model.Profile
	now      func() time.Time
}

// NewMemory creates an in-memory profile store.
func NewMemory(now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{profiles: make(map[string]model.Profile), now: now}
}

// Create implements Store.Create.
func (s *memoryStore) Create(ctx context.Context, p *model.Profile) error {
	if err := validate(ctx, p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.UserID]; exists {
		return ErrProfileExists
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.profiles[p.UserID] = *p
	return nil
}

// Get implements Store.Get.
func (s *memoryStore) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

// Update implements Store.Update.
func (s *memoryStore) Update(ctx context.Context, p *model.Profile) error {
	if err := validate(ctx, p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[p.UserID]
	if !ok {
		return ErrProfileNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()
	s.profiles[p.UserID] = *p
	return nil
}

// Save implements Store.Save.
func (s *memoryStore) Save(ctx context.Context, p *model.Profile) error {
	if err := s.Update(ctx, p); err != ErrProfileNotFound {
		return err
	}
	return s.Create(ctx, p)
}

// Delete implements Store.Delete.
func (s *memoryStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	return nil
}

// List implements Store.List.
func (s *memoryStore) List(ctx context.Context) ([]*model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Lookup implements Store.Lookup.
func (s *memoryStore) Lookup(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.Get(ctx, userID)
	if err == ErrProfileNotFound {
		return &model.Profile{UserID: userID}, nil
	}
	return p, err
}
