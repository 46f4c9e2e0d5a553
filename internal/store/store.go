// Package store persists aide event logs and cached snapshots in
// SQLite. The kernel itself does no I/O; everything durable lives
// here, behind the at-most-one-writer-per-aide discipline the reducer
// requires of its callers.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Store is a SQLite-backed event log keyed by aide id.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, applying pragmas and the
// schema. Safe to call repeatedly on the same file.
//
// The connection pool is capped at one connection: SQLite allows one
// writer at a time, and a single connection doubles as the per-process
// serialization point for appends. Transactions take the write lock up
// front so two processes never read the same max seq under deferred
// snapshots and collide on upgrade.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureAide registers an aide id, a no-op if it already exists.
func (s *Store) EnsureAide(ctx context.Context, aideID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO aides (id) VALUES (?)
		ON CONFLICT(id) DO NOTHING
	`, aideID)
	if err != nil {
		return fmt.Errorf("ensure aide: %w", err)
	}
	return nil
}

// Aides lists registered aide ids in creation order.
func (s *Store) Aides(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM aides ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list aides: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list aides: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list aides: %w", err)
	}
	return ids, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
