// Package database owns the lifecycle of the single SQLite connection that
// backs the mirror: opening with the pragmas spec.md mandates, running
// migrations, and periodically checkpointing the WAL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/ravend/ravend/internal/logging"
	_ "modernc.org/sqlite"
)

// DB wraps the process-wide *sql.DB handle.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if necessary) the SQLite mirror at path with
// foreign_keys=ON, journal_mode=WAL, busy_timeout=5000, matching spec.md §6.
func Open(path string) (*DB, error) {
	log := logging.WithComponent("database")

	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		path,
	)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single physical connection: the mirror is serialized behind one
	// mutex at the Store layer, and SQLite itself does not support
	// concurrent writers from the same process usefully beyond this.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := os.Chmod(path, 0600); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to restrict database file permissions")
	}

	db := &DB{DB: sqlDB, path: path}
	log.Info().Str("path", path).Msg("database opened")
	return db, nil
}

// Checkpoint runs a passive WAL checkpoint.
func (d *DB) Checkpoint() error {
	_, err := d.Exec("PRAGMA wal_checkpoint(PASSIVE)")
	return err
}

// StartCheckpointRoutine periodically checkpoints the WAL until ctx is
// cancelled. Intended to be run in its own goroutine by main.
func (d *DB) StartCheckpointRoutine(ctx context.Context) {
	log := logging.WithComponent("database")
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Checkpoint(); err != nil {
				log.Warn().Err(err).Msg("wal checkpoint failed")
			}
		}
	}
}
