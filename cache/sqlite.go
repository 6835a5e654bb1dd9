package cache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlbuilder "github.com/huandu/go-sqlbuilder"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const table = "cache_entries"

// SQLiteStore keeps entries in a single SQLite table
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore initializes the cache database at the given path
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	if err := migrateSchema(dbPath); err != nil {
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time

	return &SQLiteStore{db: db}, nil
}

func migrateSchema(dbPath string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	k := storageKey(key)

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("value").From(table).Where(sb.Equal("key", k))
	query, args := sb.Build()

	var value []byte
	err := s.db.QueryRow(query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		slog.Warn("cache read error", "error", err, "key", truncate(k, 50))
		return nil, false, nil // Treat errors as cache miss
	}

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update(table).Set(ub.Assign("accessed_at", time.Now().Unix())).Where(ub.Equal("key", k))
	query, args = ub.Build()
	_, _ = s.db.Exec(query, args...)

	return value, true, nil
}

func (s *SQLiteStore) Set(key string, value []byte) error {
	k := storageKey(key)
	now := time.Now().Unix()

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.ReplaceInto(table).
		Cols("key", "value", "created_at", "accessed_at").
		Values(k, value, now, now)
	query, args := ib.Build()

	if _, err := s.db.Exec(query, args...); err != nil {
		slog.Warn("cache write error", "error", err, "key", truncate(k, 50))
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(key string) error {
	db := sqlbuilder.SQLite.NewDeleteBuilder()
	db.DeleteFrom(table).Where(db.Equal("key", storageKey(key)))
	query, args := db.Build()

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Clear removes all cache entries
func (s *SQLiteStore) Clear() error {
	query, args := sqlbuilder.SQLite.NewDeleteBuilder().DeleteFrom(table).Build()
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Stats() (Stats, error) {
	stats := Stats{Backend: BackendSQLite}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)", "COALESCE(SUM(LENGTH(value)), 0)", "MIN(created_at)").From(table)
	query, args := sb.Build()

	var oldestUnix sql.NullInt64
	if err := s.db.QueryRow(query, args...).Scan(&stats.Entries, &stats.Bytes, &oldestUnix); err != nil {
		return stats, fmt.Errorf("failed to read cache stats: %w", err)
	}
	if oldestUnix.Valid && oldestUnix.Int64 > 0 {
		stats.OldestEntry = time.Unix(oldestUnix.Int64, 0)
	}
	return stats, nil
}

// Close closes the cache database
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
