package artifact

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	name       TEXT PRIMARY KEY,
	content    BLOB NOT NULL,
	created_at INTEGER NOT NULL
);`

// SQLiteStore persists artifacts across builds in a single sqlite file.
// With a persistent store an incremental rebuild only renders pages whose
// artifacts are not present yet.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the artifact database at
// path and ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open artifact database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize artifact schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Has reports whether name is present. Lookup failures are logged and
// treated as absent; the claim ledger upstream still prevents duplicate
// writes within a build.
func (s *SQLiteStore) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM artifacts WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		slog.Warn("artifact lookup failed", "name", name, "error", err)
		return false
	}
	return true
}

// Set inserts content under name. An existing row wins: the insert is a
// silent no-op when the name is already present.
func (s *SQLiteStore) Set(name string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO artifacts (name, content, created_at) VALUES (?, ?, ?)`,
		name, content, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store artifact %q: %w", name, err)
	}
	return nil
}

// Get returns the content stored under name.
func (s *SQLiteStore) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var content []byte
	err := s.db.QueryRow(`SELECT content FROM artifacts WHERE name = ?`, name).Scan(&content)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("artifact read failed", "name", name, "error", err)
		}
		return nil, false
	}
	return content, true
}

// Names returns all stored artifact names in sorted order.
func (s *SQLiteStore) Names() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT name FROM artifacts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan artifact name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
