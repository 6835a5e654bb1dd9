package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/timshannon/bolthold"
)

type boltEntry struct {
	Value     []byte
	CreatedAt time.Time
}

// BoltStore keeps entries in a bbolt file through bolthold
type BoltStore struct {
	store *bolthold.Store
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	store, err := bolthold.Open(path, 0666, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	return &BoltStore{store: store}, nil
}

func (s *BoltStore) Get(key string) ([]byte, bool, error) {
	k := storageKey(key)

	var entry boltEntry
	err := s.store.Get(k, &entry)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		slog.Warn("cache read error", "error", err, "key", truncate(k, 50))
		return nil, false, nil
	}
	return entry.Value, true, nil
}

func (s *BoltStore) Set(key string, value []byte) error {
	k := storageKey(key)
	entry := boltEntry{Value: value, CreatedAt: time.Now()}
	if err := s.store.Upsert(k, &entry); err != nil {
		slog.Warn("cache write error", "error", err, "key", truncate(k, 50))
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *BoltStore) Delete(key string) error {
	err := s.store.Delete(storageKey(key), &boltEntry{})
	if err != nil && !errors.Is(err, bolthold.ErrNotFound) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *BoltStore) Clear() error {
	if err := s.store.DeleteMatching(&boltEntry{}, nil); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *BoltStore) Stats() (Stats, error) {
	stats := Stats{Backend: BackendBolt}

	var entries []boltEntry
	if err := s.store.Find(&entries, nil); err != nil {
		return stats, fmt.Errorf("failed to read cache stats: %w", err)
	}
	for _, e := range entries {
		stats.Entries++
		stats.Bytes += int64(len(e.Value))
		if stats.OldestEntry.IsZero() || e.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = e.CreatedAt
		}
	}
	return stats, nil
}

func (s *BoltStore) Close() error {
	return s.store.Close()
}
