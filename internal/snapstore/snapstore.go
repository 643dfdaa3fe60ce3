package snapstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	url        TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	html       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// ErrNotFound indicates the requested snapshot id does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored page. List leaves HTML empty; Load fills it.
type Snapshot struct {
	ID        int64
	URL       string
	Title     string
	HTML      string
	CreatedAt time.Time
}

// Store persists page snapshots in a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens the store at path, creating the file and schema as needed.
// Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping snapshot database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores a page and returns its id.
func (s *Store) Save(url, title, html string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO snapshots (url, title, html, created_at) VALUES (?, ?, ?, ?)`,
		url, title, html, time.Now().UTC().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}
	return id, nil
}

// List returns all snapshots, oldest first, without their HTML.
func (s *Store) List() ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT id, url, title, created_at FROM snapshots ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var created int64
		if err := rows.Scan(&snap.ID, &snap.URL, &snap.Title, &created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return out, nil
}

// Load returns the snapshot with the given id, HTML included.
func (s *Store) Load(id int64) (*Snapshot, error) {
	var snap Snapshot
	var created int64
	err := s.db.QueryRow(
		`SELECT id, url, title, html, created_at FROM snapshots WHERE id = ?`,
		id,
	).Scan(&snap.ID, &snap.URL, &snap.Title, &snap.HTML, &created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	snap.CreatedAt = time.Unix(created, 0).UTC()
	return &snap, nil
}

// Delete removes the snapshot with the given id.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
