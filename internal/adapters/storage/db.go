// Package storage is the sqlite-backed durable layer: room directory,
// song library and user accounts.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DB wraps the sqlite handle shared by every store.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database file at path and applies the schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps the pragmas in effect and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	log.Info().Str("module", "storage").Str("path", path).Msg("database ready")
	return &DB{db: db, path: path}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		phone         TEXT NOT NULL DEFAULT '',
		city          TEXT NOT NULL DEFAULT '',
		birth_date    INTEGER,
		gender        TEXT NOT NULL DEFAULT '',
		can_host      INTEGER NOT NULL DEFAULT 0,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at    INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id               TEXT PRIMARY KEY,
		code             TEXT NOT NULL UNIQUE,
		owner_id         TEXT NOT NULL DEFAULT '',
		tv_password_hash TEXT NOT NULL DEFAULT '',
		unique_visitors  INTEGER NOT NULL DEFAULT 0,
		created_at       INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS rooms_owner ON rooms(owner_id);`,
	`CREATE TABLE IF NOT EXISTS songs (
		id             TEXT PRIMARY KEY,
		video_id       TEXT NOT NULL UNIQUE,
		title          TEXT NOT NULL DEFAULT '',
		added_by       TEXT NOT NULL DEFAULT '',
		play_count     INTEGER NOT NULL DEFAULT 0,
		created_at     INTEGER NOT NULL,
		last_played_at INTEGER
	);`,
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms) }

func nullTime(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
