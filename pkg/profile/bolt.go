package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	bolt "go.etcd.io/bbolt"
)

var bucketProfiles = []byte("profiles") // user id -> Profile

// boltStore implements Store using BoltDB.
type boltStore struct {
	db     *bolt.DB
	logger logger.Logger
	now    func() time.Time
}

// New creates a profile store on an open database.
//
// The database is shared with the consumption store; New only creates its
// own bucket and never closes db.
func New(db *bolt.DB, log logger.Logger, now func() time.Time) (Store, error) {
	if now == nil {
		now = time.Now
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketProfiles)
		return createErr
	}); err != nil {
		return nil, fmt.Errorf("failed to create profiles bucket: %w", err)
	}

	return &boltStore{db: db, logger: log, now: now}, nil
}

// Create implements Store.Create.
func (s *boltStore) Create(ctx context.Context, p *model.Profile) error {
	if err := validate(ctx, p); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProfiles)
		if b.Get([]byte(p.UserID)) != nil {
			return ErrProfileExists
		}

		now := s.now().UTC()
		p.CreatedAt, p.UpdatedAt = now, now
		if err := put(b, p); err != nil {
			return err
		}

		s.logger.Info("profile created", "user_id", p.UserID, "premium", p.IsPremium)
		return nil
	})
}

// Get implements Store.Get.
func (s *boltStore) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p *model.Profile
	err := s.db.View(func(tx *bolt.Tx) error {
		found, err := get(tx.Bucket(bucketProfiles), userID)
		p = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update implements Store.Update.
func (s *boltStore) Update(ctx context.Context, p *model.Profile) error {
	if err := validate(ctx, p); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProfiles)
		existing, err := get(b, p.UserID)
		if err != nil {
			return err
		}

		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = s.now().UTC()
		if err := put(b, p); err != nil {
			return err
		}

		s.logger.Info("profile updated", "user_id", p.UserID, "premium", p.IsPremium)
		return nil
	})
}

// Save implements Store.Save.
func (s *boltStore) Save(ctx context.Context, p *model.Profile) error {
	err := s.Update(ctx, p)
	if errors.Is(err, ErrProfileNotFound) {
		return s.Create(ctx, p)
	}
	return err
}

// Delete implements Store.Delete.
func (s *boltStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProfiles)
		if b.Get([]byte(userID)) == nil {
			return nil
		}
		if err := b.Delete([]byte(userID)); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}

		s.logger.Info("profile deleted", "user_id", userID)
		return nil
	})
}

// List implements Store.List.
func (s *boltStore) List(ctx context.Context) ([]*model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profiles := make([]*model.Profile, 0, 10)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProfiles).ForEach(func(k, v []byte) error {
			var p model.Profile
			if unmarshalErr := json.Unmarshal(v, &p); unmarshalErr != nil {
				s.logger.Warn("failed to unmarshal profile",
					"user_id", string(k),
					"error", unmarshalErr)
				return nil // Skip invalid entries.
			}
			profiles = append(profiles, &p)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// Lookup implements Store.Lookup.
func (s *boltStore) Lookup(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return &model.Profile{UserID: userID}, nil
	}
	return p, err
}

func validate(ctx context.Context, p *model.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil {
		return ErrInvalidProfile
	}
	return p.Validate()
}

func get(b *bolt.Bucket, userID string) (*model.Profile, error) {
	data := b.Get([]byte(userID))
	if data == nil {
		return nil, ErrProfileNotFound
	}

	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}

func put(b *bolt.Bucket, p *model.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := b.Put([]byte(p.UserID), data); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}
