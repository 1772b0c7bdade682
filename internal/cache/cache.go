// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores fetched map images on disk with TTL expiry and a
// size cap. Image bytes live as files in the cache directory; a SQLite
// index tracks key, size, and fetch time so pruning does not rescan the
// filesystem.
package cache

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	dbFile = "atlas-cache.db"

	// DefaultTTL is how long a cached image stays valid.
	DefaultTTL = 24 * time.Hour

	// DefaultMaxBytes caps the cache directory size before pruning.
	DefaultMaxBytes = 100 << 20
)

// Options tune a cache. Zero values select the defaults.
type Options struct {
	TTL      time.Duration
	MaxBytes int64
}

// Cache is a disk-backed map-image store keyed by collision-resistant
// cache keys (see Key).
type Cache struct {
	dir      string
	ttl      time.Duration
	maxBytes int64
	db       *sql.DB

	now func() time.Time
}

// Open opens or creates a cache in dir.
func Open(dir string, opts Options) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache index: %w", err)
	}

	c := &Cache{
		dir:      dir,
		ttl:      opts.TTL,
		maxBytes: opts.MaxBytes,
		db:       db,
		now:      time.Now,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.maxBytes <= 0 {
		c.maxBytes = DefaultMaxBytes
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS images (
		key TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		fetched_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return c, nil
}

// Close releases the index database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives the cache key for a map request: a readable place prefix for
// debugging plus an md5 of all request parameters for collision resistance.
// External fetchers must use the same derivation so the embedder's matcher
// can resolve place names against the cache.
func Key(place string, zoom int, size, mapType string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%s|%s", place, zoom, size, mapType)))
	return safePrefix(place) + "_" + hex.EncodeToString(sum[:]) + ".png"
}

// safePrefix keeps ASCII alphanumerics, dash, and dot from the place name,
// replaces the rest with underscores, and truncates to 20 bytes.
func safePrefix(place string) string {
	var b strings.Builder
	for _, r := range place {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if len(s) > 20 {
		s = s[:20]
	}
	return s
}

// Put stores image bytes under key and prunes the cache if it grew past
// its size cap.
func (c *Cache) Put(key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("empty cache key")
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("writing cache file %s: %w", key, err)
	}
	_, err := c.db.Exec(
		`INSERT INTO images (key, size, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET size = excluded.size, fetched_at = excluded.fetched_at`,
		key, len(data), c.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("indexing cache entry %s: %w", key, err)
	}
	return c.prune()
}

// Get returns the cached bytes for key. Expired or missing entries report
// ok=false and are evicted from the index.
func (c *Cache) Get(key string) (data []byte, ok bool, err error) {
	var fetchedAt string
	row := c.db.QueryRow(`SELECT fetched_at FROM images WHERE key = ?`, key)
	if err := row.Scan(&fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying cache entry %s: %w", key, err)
	}

	t, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil || c.now().Sub(t) > c.ttl {
		if err := c.evict(key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	data, err = os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			if err := c.evict(key); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache file %s: %w", key, err)
	}
	return data, true, nil
}

// Keys returns all indexed cache keys in sorted order, including entries
// that may since have expired.
func (c *Cache) Keys() ([]string, error) {
	rows, err := c.db.Query(`SELECT key FROM images ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing cache keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning cache key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Snapshot loads every live entry into memory for an embedding run,
// silently dropping entries that expired since they were indexed.
func (c *Cache) Snapshot() (map[string][]byte, error) {
	keys, err := c.Keys()
	if err != nil {
		return nil, err
	}
	images := make(map[string][]byte, len(keys))
	for _, k := range keys {
		data, ok, err := c.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			images[k] = data
		}
	}
	return images, nil
}

// prune drops expired entries, then evicts oldest-fetched entries until
// the cache fits its size cap.
func (c *Cache) prune() error {
	cutoff := c.now().Add(-c.ttl).UTC().Format(time.RFC3339Nano)
	rows, err := c.db.Query(`SELECT key FROM images WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("querying expired entries: %w", err)
	}
	expired, err := collectKeys(rows)
	if err != nil {
		return err
	}
	for _, k := range expired {
		if err := c.evict(k); err != nil {
			return err
		}
	}

	for {
		var total sql.NullInt64
		if err := c.db.QueryRow(`SELECT SUM(size) FROM images`).Scan(&total); err != nil {
			return fmt.Errorf("summing cache size: %w", err)
		}
		if !total.Valid || total.Int64 <= c.maxBytes {
			return nil
		}
		var oldest string
		if err := c.db.QueryRow(`SELECT key FROM images ORDER BY fetched_at ASC LIMIT 1`).Scan(&oldest); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return fmt.Errorf("finding oldest entry: %w", err)
		}
		if err := c.evict(oldest); err != nil {
			return err
		}
	}
}

func (c *Cache) evict(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file %s: %w", key, err)
	}
	if _, err := c.db.Exec(`DELETE FROM images WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting cache entry %s: %w", key, err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key)
}

func collectKeys(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning cache key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
