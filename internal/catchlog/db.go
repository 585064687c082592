// Package catchlog records every fishing cycle in a local SQLite database.
// Uses pure-Go SQLite (modernc.org/sqlite), so no cgo is required.
package catchlog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
)

type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreFailed, "create catch log directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreFailed, "open catch log")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, apperrors.StoreFailed, "set WAL mode")
	}

	d := &DB{db: db}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, apperrors.StoreFailed, "migrate catch log")
	}
	return d, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cycles (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT NOT NULL,
			area        TEXT NOT NULL DEFAULT '',
			cycle       INTEGER NOT NULL,
			outcome     TEXT NOT NULL,
			found       INTEGER NOT NULL DEFAULT 0,
			target_x    INTEGER NOT NULL DEFAULT 0,
			target_y    INTEGER NOT NULL DEFAULT 0,
			confidence  REAL NOT NULL DEFAULT 0,
			started_at  TEXT NOT NULL,
			ended_at    TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS cycles_session ON cycles(session_id)`)
	return err
}
