package reader

import (
	"encoding/binary"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var bucketOffsets = []byte("ingest_offsets") // path -> big-endian offset

type boltPositionStore struct {
	db *bolt.DB
}

// NewBoltPositionStore creates a position store in db, which is usually the
// consumption store's database.
func NewBoltPositionStore(db *bolt.DB) (PositionStore, error) {
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketOffsets)
		return createErr
	}); err != nil {
		return nil, fmt.Errorf("failed to create offsets bucket: %w", err)
	}
	return &boltPositionStore{db: db}, nil
}

// GetPosition implements PositionStore.GetPosition.
func (s *boltPositionStore) GetPosition(path string) (int64, error) {
	var offset int64
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketOffsets).Get([]byte(path))
		if data == nil {
			return nil
		}
		if len(data) != 8 {
			return fmt.Errorf("corrupt offset for %s: %d bytes", path, len(data))
		}
		offset = int64(binary.BigEndian.Uint64(data)) // #nosec G115
		return nil
	})
	if err != nil {
		return 0, err
	}
	return offset, nil
}

// SetPosition implements PositionStore.SetPosition.
func (s *boltPositionStore) SetPosition(path string, offset int64) error {
	if offset < 0 {
		return ErrInvalidOffset
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(offset)) // #nosec G115
		if err := tx.Bucket(bucketOffsets).Put([]byte(path), buf); err != nil {
			return fmt.Errorf("failed to store position: %w", err)
		}
		return nil
	})
}

// memoryPositionStore implements PositionStore using an in-memory map.
// Useful for testing.
type memoryPositionStore struct {
	positions map[string]int64
	mu        sync.RWMutex
}

// NewMemoryPositionStore creates an in-memory position store.
func NewMemoryPositionStore() PositionStore {
	return &memoryPositionStore{positions: make(map[string]int64)}
}

// GetPosition implements PositionStore.GetPosition.
func (s *memoryPositionStore) GetPosition(path string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positions[path], nil
}

// SetPosition implements PositionStore.SetPosition.
func (s *memoryPositionStore) SetPosition(path string, offset int64) error {
	if offset < 0 {
		return ErrInvalidOffset
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[path] = offset
	return nil
}
