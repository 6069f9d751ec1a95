// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package catalogdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the relational catalog artifact (spec.md §4.6, C6).
type DB struct {
	conn *sql.DB
}

// Open creates (or reopens) the SQLite database at path and applies the
// schema. It uses WAL mode, a 5s busy timeout and a single open
// connection; WritePackages fills the FTS5 table itself, not via triggers.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening catalog database")
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "enabling WAL mode")
	}
	for _, name := range migrationFiles {
		sqlBytes, err := migrationsFS.ReadFile(name)
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "reading embedded migration %s", name)
		}
		if _, err := conn.Exec(string(sqlBytes)); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "applying migration %s", name)
		}
	}
	return &DB{conn: conn}, nil
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Vacuum reclaims space and refreshes the query planner's statistics,
// run once after a full catalog write (spec.md §4.6 "Finalization").
func (db *DB) Vacuum(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "ANALYZE"); err != nil {
		return errors.Wrap(err, "ANALYZE")
	}
	if _, err := db.conn.ExecContext(ctx, "VACUUM"); err != nil {
		return errors.Wrap(err, "VACUUM")
	}
	return nil
}
