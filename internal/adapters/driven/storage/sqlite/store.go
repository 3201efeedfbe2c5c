package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docflow/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.KVStore = (*Store)(nil)

// Store is a SQLite-backed key-value store with hash and set tables.
// It also hands out the scheduler store over the same connection.
type Store struct {
	db   *sql.DB
	path string

	mu  sync.RWMutex
	now func() time.Time
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docflow/data/docflow.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docflow", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docflow.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SetClock overrides the time source used for expiry.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{db: s.db}
}

// Ping validates the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_kv.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Hashes ====================

// SetHash replaces the hash at key in a single upsert.
func (s *Store) SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshalling hash fields: %w", err)
	}

	var expiresAt any
	if ttl > 0 {
		expiresAt = s.clock().Add(ttl).UnixNano()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv_hashes (key, fields, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			fields = excluded.fields,
			expires_at = excluded.expires_at
	`, key, string(fieldsJSON), expiresAt)
	if err != nil {
		return fmt.Errorf("saving hash %s: %w", key, err)
	}
	return nil
}

// GetHash returns the hash at key. Expired rows are deleted on read.
func (s *Store) GetHash(ctx context.Context, key string) (map[string]string, error) {
	var fieldsJSON string
	var expiresAt sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		"SELECT fields, expires_at FROM kv_hashes WHERE key = ?", key,
	).Scan(&fieldsJSON, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading hash %s: %w", key, err)
	}

	if expiresAt.Valid && expiresAt.Int64 <= s.clock().UnixNano() {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM kv_hashes WHERE key = ? AND expires_at = ?", key, expiresAt.Int64); err != nil {
			return nil, fmt.Errorf("expiring hash %s: %w", key, err)
		}
		return map[string]string{}, nil
	}

	fields := map[string]string{}
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return nil, fmt.Errorf("unmarshalling hash %s: %w", key, err)
	}
	return fields, nil
}

// ==================== Sets ====================

// AddToSet inserts members in one transaction and counts the new ones.
func (s *Store) AddToSet(ctx context.Context, key string, members ...string) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO kv_sets (key, member) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing set insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, m := range members {
		res, err := stmt.ExecContext(ctx, key, m)
		if err != nil {
			return 0, fmt.Errorf("adding to set %s: %w", key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("adding to set %s: %w", key, err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing set insert: %w", err)
	}
	return added, nil
}

// SetMembers returns the members of the set at key, sorted.
func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT member FROM kv_sets WHERE key = ? ORDER BY member", key)
	if err != nil {
		return nil, fmt.Errorf("querying set %s: %w", key, err)
	}
	return scanStrings(rows)
}

// RemoveFromSet deletes members in one transaction.
func (s *Store) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, m := range members {
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv_sets WHERE key = ? AND member = ?", key, m); err != nil {
			return fmt.Errorf("removing from set %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing set delete: %w", err)
	}
	return nil
}

// ==================== Keys ====================

// KeysWithPrefix lists live hash and set keys with the given prefix.
// Expired hashes are purged first.
func (s *Store) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	now := s.clock().UnixNano()

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM kv_hashes WHERE expires_at IS NOT NULL AND expires_at <= ?", now); err != nil {
		return nil, fmt.Errorf("purging expired hashes: %w", err)
	}

	pattern := escapeLike(prefix) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM kv_hashes WHERE key LIKE ? ESCAPE '\'
		UNION
		SELECT key FROM kv_sets WHERE key LIKE ? ESCAPE '\'
		ORDER BY key
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	return scanStrings(rows)
}

// ==================== Helper Functions ====================

func (s *Store) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

// escapeLike escapes LIKE wildcards so prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// scanStrings drains single-column string rows.
func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}
