package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	bolt "go.etcd.io/bbolt"
)

// Top-level buckets. Consumptions and snapshots hold one nested bucket per user.
var (
	bucketConsumptions = []byte("consumptions") // user -> (time||id -> Consumption)
	bucketSnapshots    = []byte("snapshots")    // user -> (date -> DailySnapshot)
	bucketIndex        = []byte("index")        // id -> user\x00key
)

const indexSep = "\x00"

// Bolt implements Store on a single BoltDB file.
type Bolt struct {
	db     *bolt.DB
	logger logger.Logger
	now    func() time.Time
}

// Open opens (or creates) the database at cfg.DBPath.
func Open(cfg Config, log logger.Logger, now func() time.Time) (*Bolt, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	if now == nil {
		now = time.Now
	}

	dbPath := ExpandHome(cfg.DBPath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %w", ErrStoreUnavailable, err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrStoreUnavailable, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketConsumptions, bucketSnapshots, bucketIndex} {
			if _, createErr := tx.CreateBucketIfNotExists(name); createErr != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, createErr)
			}
		}
		return nil
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error", "error", closeErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	log.Info("consumption store opened", "db_path", dbPath)

	return &Bolt{db: db, logger: log, now: now}, nil
}

// DB exposes the underlying database so that other bolt-backed stores
// (profiles, ingest offsets) can share the file.
func (s *Bolt) DB() *bolt.DB {
	return s.db
}

// Close implements Store.Close.
func (s *Bolt) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Find implements Reader.Find with a cursor range scan over the user's bucket.
func (s *Bolt) Find(ctx context.Context, userID string, r Range) ([]model.Consumption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var records []model.Consumption
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		records, err = scanRange(tx, userID, r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: find: %w", ErrStoreUnavailable, err)
	}

	return records, nil
}

// Add implements Writer.Add.
func (s *Bolt) Add(ctx context.Context, c *model.Consumption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Recompute()
	if err := c.Validate(s.now()); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketIndex).Get([]byte(c.ID)) != nil {
			return ErrDuplicateRecord
		}
		return putRecord(tx, c)
	})
	if err != nil {
		return classify("add", err)
	}

	s.logger.Debug("consumption stored", "user_id", c.UserID, "id", c.ID, "amount_ml", c.AmountML)
	return nil
}

// Get implements Writer.Get.
func (s *Bolt) Get(ctx context.Context, userID, id string) (model.Consumption, error) {
	if err := ctx.Err(); err != nil {
		return model.Consumption{}, err
	}

	var rec model.Consumption
	err := s.db.View(func(tx *bolt.Tx) error {
		found, _, err := getRecord(tx, userID, id)
		rec = found
		return err
	})
	if err != nil {
		return model.Consumption{}, classify("get", err)
	}
	return rec, nil
}

// Update implements Writer.Update.
func (s *Bolt) Update(ctx context.Context, c *model.Consumption) (model.Consumption, error) {
	if err := ctx.Err(); err != nil {
		return model.Consumption{}, err
	}
	if c.ID == "" {
		return model.Consumption{}, ErrRecordNotFound
	}
	c.Recompute()
	if err := c.Validate(s.now()); err != nil {
		return model.Consumption{}, err
	}

	var old model.Consumption
	err := s.db.Update(func(tx *bolt.Tx) error {
		found, key, err := getRecord(tx, c.UserID, c.ID)
		if err != nil {
			return err
		}
		old = found

		if err := tx.Bucket(bucketConsumptions).Bucket([]byte(c.UserID)).Delete(key); err != nil {
			return fmt.Errorf("failed to delete old record: %w", err)
		}
		return putRecord(tx, c)
	})
	if err != nil {
		return model.Consumption{}, classify("update", err)
	}
	return old, nil
}

// Delete implements Writer.Delete.
func (s *Bolt) Delete(ctx context.Context, userID, id string) (model.Consumption, error) {
	if err := ctx.Err(); err != nil {
		return model.Consumption{}, err
	}

	var old model.Consumption
	err := s.db.Update(func(tx *bolt.Tx) error {
		found, key, err := getRecord(tx, userID, id)
		if err != nil {
			return err
		}
		old = found

		if err := tx.Bucket(bucketConsumptions).Bucket([]byte(userID)).Delete(key); err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}
		return tx.Bucket(bucketIndex).Delete([]byte(id))
	})
	if err != nil {
		return model.Consumption{}, classify("delete", err)
	}
	return old, nil
}

// UpsertDailySnapshot implements SnapshotWriter.UpsertDailySnapshot in one transaction.
func (s *Bolt) UpsertDailySnapshot(ctx context.Context, userID, date string, snap model.DailySnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap.UserID, snap.Date = userID, date

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(bucketSnapshots).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return fmt.Errorf("failed to create user snapshot bucket: %w", err)
		}
		return b.Put([]byte(date), data)
	})
	if err != nil {
		return classify("upsert snapshot", err)
	}
	return nil
}

// RecomputeDailySnapshot implements SnapshotWriter.RecomputeDailySnapshot.
// bolt allows one write transaction at a time, which orders recomputes
// after every Add, Update or Delete that committed before them.
func (s *Bolt) RecomputeDailySnapshot(ctx context.Context, userID, date string, r Range, build BuildFunc) (model.DailySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.DailySnapshot{}, err
	}
	if err := r.Validate(); err != nil {
		return model.DailySnapshot{}, err
	}

	var snap model.DailySnapshot
	err := s.db.Update(func(tx *bolt.Tx) error {
		records, err := scanRange(tx, userID, r)
		if err != nil {
			return err
		}

		snap = build(records)
		snap.UserID, snap.Date = userID, date

		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		b, err := tx.Bucket(bucketSnapshots).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return fmt.Errorf("failed to create user snapshot bucket: %w", err)
		}
		return b.Put([]byte(date), data)
	})
	if err != nil {
		return model.DailySnapshot{}, classify("recompute snapshot", err)
	}
	return snap, nil
}

// GetDailySnapshot implements SnapshotWriter.GetDailySnapshot.
func (s *Bolt) GetDailySnapshot(ctx context.Context, userID, date string) (model.DailySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.DailySnapshot{}, err
	}

	var snap model.DailySnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots).Bucket([]byte(userID))
		if b == nil {
			return ErrSnapshotNotFound
		}
		data := b.Get([]byte(date))
		if data == nil {
			return ErrSnapshotNotFound
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return model.DailySnapshot{}, classify("get snapshot", err)
	}
	return snap, nil
}

// Users returns every user id that owns at least one record.
func (s *Bolt) Users(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var users []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConsumptions).ForEach(func(k, v []byte) error {
			if v == nil {
				users = append(users, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

// scanRange returns the user's records inside r in time order.
func scanRange(tx *bolt.Tx, userID string, r Range) ([]model.Consumption, error) {
	records := []model.Consumption{}
	users := tx.Bucket(bucketConsumptions).Bucket([]byte(userID))
	if users == nil {
		return records, nil
	}

	lower, upper := timeKey(r.Start), timeKey(r.End)
	c := users.Cursor()
	for k, v := c.Seek(lower); k != nil && bytes.Compare(k[:8], upper) < 0; k, v = c.Next() {
		var rec model.Consumption
		if err := json.Unmarshal(v, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %x: %w", k, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func putRecord(tx *bolt.Tx, c *model.Consumption) error {
	users, err := tx.Bucket(bucketConsumptions).CreateBucketIfNotExists([]byte(c.UserID))
	if err != nil {
		return fmt.Errorf("failed to create user bucket: %w", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	key := recordKey(c.OccurredAt, c.ID)
	if err := users.Put(key, data); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}

	ref := c.UserID + indexSep + string(key)
	if err := tx.Bucket(bucketIndex).Put([]byte(c.ID), []byte(ref)); err != nil {
		return fmt.Errorf("failed to store index entry: %w", err)
	}
	return nil
}

// getRecord resolves id through the index and checks ownership.
func getRecord(tx *bolt.Tx, userID, id string) (model.Consumption, []byte, error) {
	ref := tx.Bucket(bucketIndex).Get([]byte(id))
	if ref == nil {
		return model.Consumption{}, nil, ErrRecordNotFound
	}

	owner, key, ok := strings.Cut(string(ref), indexSep)
	if !ok || owner != userID {
		return model.Consumption{}, nil, ErrRecordNotFound
	}

	users := tx.Bucket(bucketConsumptions).Bucket([]byte(userID))
	if users == nil {
		return model.Consumption{}, nil, ErrRecordNotFound
	}
	data := users.Get([]byte(key))
	if data == nil {
		return model.Consumption{}, nil, ErrRecordNotFound
	}

	var rec model.Consumption
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Consumption{}, nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, []byte(key), nil
}

// timeKey encodes t so that byte order matches time order, including
// instants before 1970.
// Range bounds beyond the nanosecond range clamp to its ends.
var (
	minKeyTime = time.Unix(0, math.MinInt64)
	maxKeyTime = time.Unix(0, math.MaxInt64)
)

func timeKey(t time.Time) []byte {
	switch {
	case t.Before(minKeyTime):
		t = minKeyTime
	case t.After(maxKeyTime):
		t = maxKeyTime
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixNano())^(1<<63))
	return buf
}

func recordKey(t time.Time, id string) []byte {
	return append(timeKey(t), id...)
}

// classify keeps domain errors as they are and wraps the rest.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrRecordNotFound),
		errors.Is(err, ErrSnapshotNotFound),
		errors.Is(err, ErrDuplicateRecord):
		return err
	default:
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
