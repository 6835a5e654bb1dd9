package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// KeyPrefix namespaces every persisted key.
const KeyPrefix = "storageKey_"

type Backend = string

var (
	BackendSQLite = Backend("sqlite")
	BackendBolt   = Backend("bolt")
	BackendMemory = Backend("memory")
)

// Store persists raw feed payloads between runs. Last write wins.
// Implementations treat read errors as a miss and log them.
type Store interface {
	// Get returns: (value, found, error)
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Stats() (Stats, error)
	Close() error
}

// Stats contains cache statistics
type Stats struct {
	Backend     Backend
	Entries     int
	Bytes       int64
	OldestEntry time.Time
}

// Options selects and locates a backend.
type Options struct {
	Backend Backend
	Path    string
}

// Open creates the store described by opts. An empty backend means sqlite,
// an empty path means DefaultCachePath.
func Open(opts Options) (Store, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendSQLite
	}

	path := opts.Path
	if path == "" && backend != BackendMemory {
		path = DefaultCachePath(backend)
	}

	switch backend {
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendBolt:
		return NewBoltStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// DefaultCachePath returns the default cache database path for a backend
func DefaultCachePath(backend Backend) string {
	name := "cache.db"
	if backend == BackendBolt {
		name = "cache.bolt"
	}

	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return name // Fallback to current directory
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "tvfeed", name)
}

func storageKey(key string) string {
	return KeyPrefix + key
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
