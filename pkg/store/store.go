// Package store persists decoded transactions and packets to a
// single-file WAL-mode SQLite database and serves the read paths needed
// by the stuck-packet monitor and the HTTP query surface.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite connection pool with the chainpulse-go schema.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and connects to the SQLite file at path in WAL
// mode, then applies table creation, additive migrations, and indexes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; one conn avoids lock contention

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.setup(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an in-memory database in shared-cache mode, used by
// tests. Every Store opened this way in the same process sees the same
// database for as long as any of them is still open.
func OpenInMemory() (*Store, error) {
	return Open("file::memory:?cache=shared")
}

func (s *Store) setup() error {
	for _, stmt := range tableStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, stmt := range migrationStatements {
		s.runMigration(stmt)
	}
	for _, stmt := range indexStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// runMigration applies an additive ALTER TABLE, swallowing the
// "duplicate column name" failure that results when it was already
// applied on a prior startup.
func (s *Store) runMigration(stmt string) {
	if _, err := s.db.Exec(stmt); err != nil {
		if strings.Contains(err.Error(), "duplicate column") {
			return
		}
		slog.Debug("migration did not apply, perhaps not needed", "stmt", stmt, "err", err)
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
