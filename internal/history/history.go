// Package history provides SQLite-backed persistence of decompose and
// plan results. Each run is stored as a JSON payload so a later `flowplan
// plan` can pick up where the last `flowplan decompose` left off.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run kinds stored in the database.
const (
	KindDecompose = "decompose"
	KindPlan      = "plan"
)

// ErrNoHistory is returned when no run of the requested kind exists.
var ErrNoHistory = errors.New("no history recorded")

// Entry is a single stored run.
type Entry struct {
	ID        string
	Kind      string
	Title     string
	Engine    string
	CreatedAt time.Time
	Payload   json.RawMessage
}

// Store wraps an SQLite database holding run history.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultPath returns the project-local history database path.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".flowplan", "history.db")
}

// Open opens the history database at the given path, creating parent
// directories and the schema as needed. WAL mode is enabled for
// concurrent reads.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{
		conn: conn,
		path: path,
	}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.path
}

const schemaRuns = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	engine TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_kind_created ON runs(kind, created_at);
`

func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.conn.Exec(schemaRuns); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

// Save records a run and returns its generated ID. The payload must be
// valid JSON; it is stored as-is.
func (s *Store) Save(kind, title, engine string, payload json.RawMessage) (string, error) {
	if kind != KindDecompose && kind != KindPlan {
		return "", fmt.Errorf("unknown run kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	_, err := s.conn.Exec(`
		INSERT INTO runs (id, kind, title, engine, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, kind, title, engine, formatTime(time.Now()), string(payload))
	if err != nil {
		return "", fmt.Errorf("save %s run: %w", kind, err)
	}

	return id, nil
}

// Latest returns the most recent run of the given kind.
func (s *Store) Latest(kind string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.conn.QueryRow(`
		SELECT id, kind, title, engine, created_at, payload
		FROM runs WHERE kind = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, kind)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("load latest %s run: %w", kind, err)
	}
	return entry, nil
}

// List returns up to limit runs of the given kind, newest first.
func (s *Store) List(kind string, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`
		SELECT id, kind, title, engine, created_at, payload
		FROM runs WHERE kind = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s runs: %w", kind, err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Purge deletes runs older than the given duration and returns how many
// were removed.
func (s *Store) Purge(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.conn.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old runs: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var createdAt, payload string
	if err := row.Scan(&entry.ID, &entry.Kind, &entry.Title, &entry.Engine, &createdAt, &payload); err != nil {
		return nil, err
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	entry.CreatedAt = t
	entry.Payload = json.RawMessage(payload)
	return &entry, nil
}

// timeLayout keeps the fractional seconds fixed-width so stored strings
// sort lexicographically in chronological order. RFC3339Nano drops
// trailing zeros, which would sort "…:00.5Z" before "…:00Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
