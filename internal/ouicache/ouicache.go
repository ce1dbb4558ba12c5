// Package ouicache persists resolved vendor records keyed by OUI. Reads are
// served from an in-memory LRU in front of a sqlite store so records survive
// process restarts without paying a disk read per lookup.
package ouicache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	// sqlite driver registration.
	_ "github.com/mattn/go-sqlite3"

	"github.com/bavix/macscope/internal/vendordb"
)

// Result classifies a cache read.
type Result int

const (
	// Miss means no record exists for the OUI.
	Miss Result = iota
	// Hit means a fresh record was found.
	Hit
	// Stale means a record exists but its TTL has expired; callers should
	// refresh but may fall back to the stale value.
	Stale
)

func (r Result) String() string {
	switch r {
	case Hit:
		return "hit"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

const (
	// DefaultTTL is how long a vendor record stays fresh. Vendor assignment
	// rarely changes, so a month is conservative.
	DefaultTTL = 30 * 24 * time.Hour
	// DefaultMaxEntries bounds the in-memory layer. OUI space is finite but
	// pathological input should not grow the process unboundedly.
	DefaultMaxEntries = 16384

	defaultDirPerm = 0o755
)

var errCachePathEmpty = errors.New("cache path is empty")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS vendors (
    oui         TEXT PRIMARY KEY CHECK (length(oui) = 6),
    vendor      TEXT NOT NULL,
    source      TEXT NOT NULL,
    confidence  TEXT NOT NULL,
    resolved_at INTEGER NOT NULL,
    ttl_seconds INTEGER NOT NULL
);`

type entry struct {
	record    vendordb.Record
	expiresAt time.Time
}

// Store is a durable OUI → vendor record cache, safe for concurrent use.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	mem *lru.LRU[string, entry]
}

// Open creates or opens the cache database at path. The parent directory is
// created when missing. TTL and maxEntries fall back to package defaults.
func Open(path string, ttl time.Duration, maxEntries int) (*Store, error) {
	if path == "" {
		return nil, errCachePathEmpty
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return newStore(db, ttl, maxEntries), nil
}

// OpenEphemeral builds a memory-only store with no durable layer, for tests
// and one-shot CLI runs.
func OpenEphemeral(ttl time.Duration, maxEntries int) *Store {
	return newStore(nil, ttl, maxEntries)
}

func newStore(db *sql.DB, ttl time.Duration, maxEntries int) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	// Per-entry expiry is handled manually so stale entries can still be
	// distinguished from misses.
	return &Store{
		db:  db,
		ttl: ttl,
		mem: lru.NewLRU[string, entry](maxEntries, nil, 0),
	}
}

// Get reads the record for an OUI. The result tells the caller whether the
// record is fresh, expired or absent.
func (s *Store) Get(ctx context.Context, oui string) (vendordb.Record, Result) {
	if it, ok := s.mem.Get(oui); ok {
		return it.record, freshness(it.expiresAt)
	}

	if s.db == nil {
		return vendordb.Record{}, Miss
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT vendor, source, confidence, resolved_at, ttl_seconds FROM vendors WHERE oui = ?`, oui)

	var (
		rec        vendordb.Record
		resolvedAt int64
		ttlSeconds int64
	)

	rec.OUI = oui

	err := row.Scan(&rec.Vendor, &rec.Source, (*string)(&rec.Confidence), &resolvedAt, &ttlSeconds)
	if err != nil {
		return vendordb.Record{}, Miss
	}

	rec.ResolvedAt = time.Unix(resolvedAt, 0)
	expiresAt := rec.ResolvedAt.Add(time.Duration(ttlSeconds) * time.Second)

	s.mem.Add(oui, entry{record: rec, expiresAt: expiresAt})

	return rec, freshness(expiresAt)
}

// Put writes a record through both layers, stamping ResolvedAt when unset.
func (s *Store) Put(ctx context.Context, rec vendordb.Record) error {
	if rec.ResolvedAt.IsZero() {
		rec.ResolvedAt = time.Now()
	}

	s.mem.Add(rec.OUI, entry{record: rec, expiresAt: rec.ResolvedAt.Add(s.ttl)})

	if s.db == nil {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO vendors (oui, vendor, source, confidence, resolved_at, ttl_seconds)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.OUI, rec.Vendor, rec.Source, string(rec.Confidence),
		rec.ResolvedAt.Unix(), int64(s.ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}

	return nil
}

// Len reports the number of durable entries, or the in-memory count when no
// database is attached.
func (s *Store) Len(ctx context.Context) (int, error) {
	if s.db == nil {
		return s.mem.Len(), nil
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vendors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache len: %w", err)
	}

	return n, nil
}

// Flush removes all entries from both layers.
func (s *Store) Flush(ctx context.Context) error {
	s.mem.Purge()

	if s.db == nil {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM vendors`); err != nil {
		return fmt.Errorf("cache flush: %w", err)
	}

	return nil
}

// Close releases the durable layer.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

func freshness(expiresAt time.Time) Result {
	if time.Now().After(expiresAt) {
		return Stale
	}

	return Hit
}
