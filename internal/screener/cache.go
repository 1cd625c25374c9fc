// Package screener runs the universe screen (spec.md §4.1/§4.3): it sends
// screen_stocks through the router (market-cap band splitting and
// de-duplication happen inside the fundamentals adapter), post-filters and
// sorts the results, and caches the result set by a content hash of the
// criteria for PMCC_SCREEN_CACHE_TTL_HOURS.
//
// The cache is grounded on internal/clientdata/repository.go's
// Store/GetIfFresh pattern (JSON blob + expires_at column; the table name
// is a package constant, never caller input) and
// internal/database/db.go's modernc.org/sqlite connection setup — both
// re-purposed from the teacher's broker-data cache to this screening cache.
package screener

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pmccscan/pmccscan/internal/domain"
)

const cacheTable = "screen_results"

// Cache is the TTL-based screening result cache backed by a local sqlite
// file, the one piece of cross-run state the scanner keeps (spec.md §4.3).
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if necessary) the screening cache database
// under dataDir/screen_cache.db.
func OpenCache(dataDir string) (*Cache, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(absDir, "screen_cache.db")

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open screening cache: %w", err)
	}
	conn.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping screening cache: %w", err)
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		criteria_hash TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`, cacheTable)
	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize screening cache schema: %w", err)
	}

	return &Cache{db: conn}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// HashCriteria derives the cache key: a stable content hash of the criteria
// so two equivalent screens (same filters, different object identity) share
// a cache entry.
func HashCriteria(criteria domain.ScreeningCriteria) string {
	b, _ := json.Marshal(criteria)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result set if it is still fresh, (nil, false) otherwise.
func (c *Cache) Get(key string) ([]domain.ScreenerResult, bool) {
	var data string
	var expiresAt int64
	err := c.db.QueryRow(
		fmt.Sprintf("SELECT data, expires_at FROM %s WHERE criteria_hash = ?", cacheTable), key,
	).Scan(&data, &expiresAt)
	if err != nil {
		return nil, false
	}
	if expiresAt < time.Now().Unix() {
		return nil, false
	}
	var results []domain.ScreenerResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, false
	}
	return results, true
}

// Store upserts a result set with expiration = now + ttl.
func (c *Cache) Store(key string, results []domain.ScreenerResult, ttl time.Duration) error {
	b, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal screening results: %w", err)
	}
	expiresAt := time.Now().Add(ttl).Unix()
	_, err = c.db.Exec(
		fmt.Sprintf("INSERT OR REPLACE INTO %s (criteria_hash, data, expires_at) VALUES (?, ?, ?)", cacheTable),
		key, string(b), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store screening results: %w", err)
	}
	return nil
}
