// Package store persists the engine session: which units were loaded and
// the jumps made between them.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

// Store is a SQLite-backed session store.
type Store struct {
	db   *sql.DB
	path string
}

// Jump is one recorded go-to-definition.
type Jump struct {
	ID         int64
	FromFile   string
	FromLine   int
	FromColumn int
	ToFile     string
	ToLine     int
	ToColumn   int
	Symbol     string
	Fallback   bool // landed on a declaration
	CreatedAt  time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if path != Memory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS units (
			file TEXT PRIMARY KEY,
			language TEXT NOT NULL,
			loaded_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jumps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_file TEXT NOT NULL,
			from_line INTEGER NOT NULL,
			from_column INTEGER NOT NULL,
			to_file TEXT NOT NULL,
			to_line INTEGER NOT NULL,
			to_column INTEGER NOT NULL,
			symbol TEXT NOT NULL DEFAULT '',
			fallback BOOLEAN NOT NULL DEFAULT FALSE,
			created_at INTEGER NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_jumps_created_at ON jumps(created_at)",
	}
	for _, stmt := range tables {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RememberUnit records that file was loaded. Loading it again keeps its
// original position in Units.
func (s *Store) RememberUnit(file, language string) error {
	_, err := s.db.Exec(
		`INSERT INTO units (file, language, loaded_at) VALUES (?, ?, ?)
		 ON CONFLICT(file) DO UPDATE SET language = excluded.language`,
		file, language, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to remember unit %s: %w", file, err)
	}
	return nil
}

// ForgetUnit removes file from the remembered units.
func (s *Store) ForgetUnit(file string) error {
	if _, err := s.db.Exec("DELETE FROM units WHERE file = ?", file); err != nil {
		return fmt.Errorf("failed to forget unit %s: %w", file, err)
	}
	return nil
}

// Units returns the remembered files, oldest first.
func (s *Store) Units() ([]string, error) {
	rows, err := s.db.Query("SELECT file FROM units ORDER BY loaded_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var file string
		if err := rows.Scan(&file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// RecordJump appends j to the history, filling in its ID and CreatedAt.
func (s *Store) RecordJump(j *Jump) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO jumps (from_file, from_line, from_column, to_file, to_line, to_column, symbol, fallback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.FromFile, j.FromLine, j.FromColumn,
		j.ToFile, j.ToLine, j.ToColumn,
		j.Symbol, j.Fallback, j.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record jump: %w", err)
	}
	j.ID, err = res.LastInsertId()
	return err
}

// Jumps returns up to limit jumps, newest first. A limit of zero or less
// returns all of them.
func (s *Store) Jumps(limit int) ([]Jump, error) {
	query := `SELECT id, from_file, from_line, from_column, to_file, to_line, to_column, symbol, fallback, created_at
		FROM jumps ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jumps: %w", err)
	}
	defer rows.Close()

	var jumps []Jump
	for rows.Next() {
		var j Jump
		var created int64
		if err := rows.Scan(&j.ID, &j.FromFile, &j.FromLine, &j.FromColumn,
			&j.ToFile, &j.ToLine, &j.ToColumn, &j.Symbol, &j.Fallback, &created); err != nil {
			return nil, err
		}
		j.CreatedAt = time.Unix(0, created)
		jumps = append(jumps, j)
	}
	return jumps, rows.Err()
}

// Prune keeps only the newest keep jumps.
func (s *Store) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.Exec(
		"DELETE FROM jumps WHERE id NOT IN (SELECT id FROM jumps ORDER BY id DESC LIMIT ?)",
		keep,
	)
	if err != nil {
		return fmt.Errorf("failed to prune jumps: %w", err)
	}
	return nil
}
