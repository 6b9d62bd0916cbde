package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vthunder/cube/internal/logging"
	"github.com/vthunder/cube/internal/types"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names
const (
	DriverCGO  = "sqlite3" // mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// ErrNotFound is returned when an object has never been seen
var ErrNotFound = errors.New("object not found")

// Store persists object sightings for the "where is my X" lookups
type Store struct {
	db     *sql.DB
	path   string
	driver string
}

// Open opens or creates the spatial memory database at path
func Open(driver, path string) (*Store, error) {
	dsn, err := dataSource(driver, path)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, path: path, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	logging.Debug("memory", "Opened %s (%s)", path, driver)
	return s, nil
}

// dataSource builds the DSN; the two drivers spell pragmas differently
func dataSource(driver, path string) (string, error) {
	switch driver {
	case DriverCGO, "":
		return path + "?_journal_mode=WAL&_busy_timeout=5000", nil
	case DriverPure:
		return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	}
	return "", fmt.Errorf("unsupported sqlite driver %q", driver)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS objects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 1.0,
		seen_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_objects_name_seen ON objects(name, seen_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// AddObject records a sighting. Names are matched case-insensitively.
func (s *Store) AddObject(ctx context.Context, obj types.ObjectMemory) error {
	name := normalizeName(obj.Name)
	if name == "" {
		return errors.New("object name is required")
	}
	if obj.Timestamp.IsZero() {
		obj.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO objects (name, location, confidence, seen_at) VALUES (?, ?, ?, ?)`,
		name, obj.Location, obj.Confidence, obj.Timestamp.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert object: %w", err)
	}
	return nil
}

// LatestObject returns the most recent sighting of name, or ErrNotFound
func (s *Store) LatestObject(ctx context.Context, name string) (*types.ObjectMemory, error) {
	list, err := s.History(ctx, name, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// History returns up to limit sightings of name, newest first
func (s *Store) History(ctx context.Context, name string, limit int) ([]types.ObjectMemory, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, location, confidence, seen_at
		FROM objects
		WHERE name = ?
		ORDER BY seen_at DESC, id DESC
		LIMIT ?`, normalizeName(name), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()

	var result []types.ObjectMemory
	for rows.Next() {
		var obj types.ObjectMemory
		var seenAt int64
		if err := rows.Scan(&obj.Name, &obj.Location, &obj.Confidence, &seenAt); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		obj.Timestamp = time.Unix(0, seenAt)
		result = append(result, obj)
	}
	return result, rows.Err()
}

// Count returns the number of stored sightings
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM objects`).Scan(&n)
	return n, err
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
