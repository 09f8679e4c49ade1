// Package store is the embedded local store for cached news, sync metadata
// and search history. It owns the sqlite schema (via goose migrations),
// the secondary indices and the FTS5 full-text index over article text.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/newssync/internal/logging"
	"github.com/dmitrijs2005/newssync/store/migrations"
)

// ErrNotFound is returned by keyed lookups when no row exists.
var ErrNotFound = errors.New("not found")

// Store wraps the sqlite database. All methods are safe for concurrent use;
// sqlite serializes writes internally.
type Store struct {
	db  *sql.DB
	log logging.Logger
}

// Open opens (or creates) the database at dsn and runs pending migrations.
// Use "file:...?mode=memory" style DSNs for tests.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Nop()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.ensureFTSPopulated(ctx); err != nil {
		// Degraded but usable: search falls back to LIKE queries.
		log.Warn(ctx, "full-text index maintenance failed", "error", err)
	}
	return s, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// DB exposes the raw handle for arbitrary parameterized reads/writes.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }
