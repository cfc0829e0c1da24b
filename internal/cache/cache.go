// Package cache provides a sqlite-backed response cache for --cached reads.
//
// Unlike the client's in-memory TTL cache, this one survives across CLI
// invocations, which is where a per-process cache would be useless. Keys
// are xxhash digests of the request URL; values are the raw response data.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"
)

// ErrMiss is returned when no fresh entry exists for a key.
var ErrMiss = errors.New("cache miss")

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	key        INTEGER PRIMARY KEY,
	url        TEXT NOT NULL,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_responses_expires ON responses(expires_at);
`

// Store is a TTL response cache backed by a sqlite file.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (and bootstraps) the cache database at path.
func Open(path string, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %v", ttl)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	// The CLI is single-process; one connection avoids sqlite write locking.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap cache schema: %w", err)
	}

	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// key hashes a request URL to the sqlite integer primary key.
// sqlite INTEGER is signed 64-bit, so the digest is stored as int64.
func key(url string) int64 {
	return int64(xxhash.Sum64String(url))
}

// Get returns the cached data for a URL, or ErrMiss when the entry is
// absent or expired.
func (s *Store) Get(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM responses WHERE key = ?`, key(url),
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	if s.now().Unix() >= expiresAt {
		return nil, ErrMiss
	}
	return data, nil
}

// Put stores response data for a URL with the configured TTL.
func (s *Store) Put(ctx context.Context, url string, data []byte) error {
	expiresAt := s.now().Add(s.ttl).Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (key, url, data, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET url = excluded.url, data = excluded.data, expires_at = excluded.expires_at`,
		key(url), url, data, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Prune removes expired entries and returns how many were deleted.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM responses WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return n, nil
}

// Clear removes all entries.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM responses`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
