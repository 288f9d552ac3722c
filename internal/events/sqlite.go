package events

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteJournal opens the journal database at dbPath.
// Use ":memory:" for an in-memory journal, or a file path for persistence.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	j := &SQLiteJournal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_events_build_id ON events(build_id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append adds a new event row.
func (j *SQLiteJournal) Append(ctx context.Context, buildID, eventType string, payload []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO events (build_id, event_type, timestamp, payload) VALUES (?, ?, ?, ?)",
		buildID, eventType, time.Now().Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Entry is one journaled event row.
type Entry struct {
	ID        int64
	BuildID   string
	EventType string
	Timestamp time.Time
	Payload   []byte
}

// ByBuild retrieves all events for a build in insertion order.
func (j *SQLiteJournal) ByBuild(ctx context.Context, buildID string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, build_id, event_type, timestamp, payload FROM events WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.BuildID, &e.EventType, &ts, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
