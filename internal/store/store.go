package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"perfume-admin/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
	CREATE TABLE IF NOT EXISTS local_cache (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// Store is a Postgres backed local cache store
type Store struct {
	db *sqlx.DB
}

// CacheEntry is one row of the local_cache table
type CacheEntry struct {
	Key       string    `db:"key"`
	Value     []byte    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewStore connects to Postgres and makes sure the cache table exists
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// Get returns the raw value of a cache key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var entry CacheEntry
	err := s.db.GetContext(ctx, &entry, "SELECT key, value, updated_at FROM local_cache WHERE key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// Set upserts a cache value
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_cache (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, string(value))
	return err
}

// Delete removes a cache key
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM local_cache WHERE key = $1", key)
	return err
}
