// Package database is the on-disk sqlite cache for weather responses and
// content-folder scans. Payloads are stored zstd-compressed.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// DBPath returns the default location of the cache database
func DBPath() string {
	return filepath.Join("data", "weatherlink.db")
}

// Cache is a handle on the cache database. It is safe for concurrent use.
type Cache struct {
	db       *sql.DB
	encoder  *zstd.Encoder
	decoders sync.Pool

	// Now is the clock used for expiry; tests replace it
	Now func() time.Time
}

// Open opens (creating if needed) the cache database at dbPath
func Open(dbPath string) (*Cache, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout=5000")

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}

	return &Cache{
		db:      db,
		encoder: enc,
		decoders: sync.Pool{
			New: func() any {
				d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				if err != nil {
					panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
				}
				return d
			},
		},
		Now: time.Now,
	}, nil
}

// EnsureSchema creates the cache tables if they do not exist
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS forecast_cache (
			cache_key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			fetched_at INTEGER NOT NULL,
			expires_at INTEGER
		);
		CREATE TABLE IF NOT EXISTS route_cache (
			content_path TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			payload BLOB NOT NULL,
			scanned_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating cache tables: %w", err)
	}
	return nil
}

// Close releases the database and compressor
func (c *Cache) Close() error {
	c.encoder.Close()
	return c.db.Close()
}

// GetForecast returns the cached payload for key if present and unexpired
func (c *Cache) GetForecast(key string) ([]byte, bool, error) {
	var (
		blob    []byte
		expires sql.NullInt64
	)
	err := c.db.QueryRow(
		"SELECT payload, expires_at FROM forecast_cache WHERE cache_key = ?", key,
	).Scan(&blob, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying forecast cache: %w", err)
	}
	if expires.Valid && c.Now().Unix() >= expires.Int64 {
		return nil, false, nil
	}

	payload, err := c.decompress(blob)
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// PutForecast stores payload under key. A ttl of zero never expires.
func (c *Cache) PutForecast(key string, payload []byte, ttl time.Duration) error {
	now := c.Now()
	var expires sql.NullInt64
	if ttl > 0 {
		expires = sql.NullInt64{Int64: now.Add(ttl).Unix(), Valid: true}
	}
	_, err := c.db.Exec(`
		INSERT INTO forecast_cache (cache_key, payload, fetched_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at
	`, key, c.encoder.EncodeAll(payload, nil), now.Unix(), expires)
	if err != nil {
		return fmt.Errorf("writing forecast cache: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired forecast entries and returns how many went
func (c *Cache) PurgeExpired() (int64, error) {
	res, err := c.db.Exec(
		"DELETE FROM forecast_cache WHERE expires_at IS NOT NULL AND expires_at <= ?", c.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging forecast cache: %w", err)
	}
	return res.RowsAffected()
}

// GetRoutes returns the scan stored for contentPath when its fingerprint
// still matches
func (c *Cache) GetRoutes(contentPath, fingerprint string) ([]byte, bool, error) {
	var (
		stored string
		blob   []byte
	)
	err := c.db.QueryRow(
		"SELECT fingerprint, payload FROM route_cache WHERE content_path = ?", contentPath,
	).Scan(&stored, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying route cache: %w", err)
	}
	if stored != fingerprint {
		return nil, false, nil
	}

	payload, err := c.decompress(blob)
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// PutRoutes stores the scan of contentPath
func (c *Cache) PutRoutes(contentPath, fingerprint string, payload []byte) error {
	_, err := c.db.Exec(`
		INSERT INTO route_cache (content_path, fingerprint, payload, scanned_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(content_path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			payload = excluded.payload,
			scanned_at = excluded.scanned_at
	`, contentPath, fingerprint, c.encoder.EncodeAll(payload, nil), c.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing route cache: %w", err)
	}
	return nil
}

func (c *Cache) decompress(blob []byte) ([]byte, error) {
	d := c.decoders.Get().(*zstd.Decoder)
	defer c.decoders.Put(d)

	out, err := d.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	return out, nil
}
