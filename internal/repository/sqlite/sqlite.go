// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// BLANK IMPORT:
	// The underscore import is a "side-effect only" import. The sqlite
	// package's init() registers itself with database/sql as a driver named
	// "sqlite"; after this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces for users, friend requests, and friendship edges.
//
// We control the lifecycle: New creates it (and migrates), Close destroys it.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/linguahub.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite permits one writer at a time, and a ":memory:" database
	// exists per connection. A single pooled connection keeps the PRAGMAs
	// below and the in-memory test databases on the connection every
	// query actually uses.
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works. Without this, a bad
	// path or permissions issue would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// important for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// friend_requests and friendships both reference users(id).
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Defer it wherever New is called.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository view of this database.
//
// WHY SUB-REPOSITORIES?
// UserRepository and FriendRequestRepository both declare Create and
// GetByID — one receiver type can't implement both. UserDB and
// FriendRequestDB share the same connection pool, they just namespace
// the methods.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// FriendRequests returns the friend-request repository view of this database.
func (db *DB) FriendRequests() *FriendRequestDB {
	return &FriendRequestDB{conn: db.conn}
}

// UserDB implements repository.UserRepository.
type UserDB struct {
	conn *sql.DB
}

// FriendRequestDB implements repository.FriendRequestRepository.
type FriendRequestDB struct {
	conn *sql.DB
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every startup.
func (db *DB) migrate() error {
	// Emails are unique case-insensitively: COLLATE NOCASE on the column
	// makes both the UNIQUE constraint and equality comparisons fold case.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			email             TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash     TEXT NOT NULL,
			full_name         TEXT NOT NULL,
			bio               TEXT NOT NULL DEFAULT '',
			profile_pic       TEXT NOT NULL DEFAULT '',
			native_language   TEXT NOT NULL DEFAULT '',
			learning_language TEXT NOT NULL DEFAULT '',
			location          TEXT NOT NULL DEFAULT '',
			is_onboarded      INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// pair_lo/pair_hi hold the two user IDs in lexicographic order, so the
	// UNIQUE index enforces at-most-one-request-per-unordered-pair at the
	// storage layer. Two concurrent sends for the same pair race on this
	// index and the loser gets a constraint violation, never a duplicate row.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS friend_requests (
			id           TEXT PRIMARY KEY,
			sender_id    TEXT NOT NULL REFERENCES users(id),
			recipient_id TEXT NOT NULL REFERENCES users(id),
			pair_lo      TEXT NOT NULL,
			pair_hi      TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'pending',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (status IN ('pending', 'accepted')),
			CHECK (sender_id <> recipient_id)
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_friend_requests_pair
			ON friend_requests(pair_lo, pair_hi);
		CREATE INDEX IF NOT EXISTS idx_friend_requests_recipient
			ON friend_requests(recipient_id, status);
		CREATE INDEX IF NOT EXISTS idx_friend_requests_sender
			ON friend_requests(sender_id, status);
	`)
	if err != nil {
		return fmt.Errorf("creating friend_requests table: %w", err)
	}

	// Friendship edges are stored in both directions (a→b and b→a), which
	// keeps "list my friends" a single indexed lookup. Both rows are written
	// in the same transaction as the accepting status flip.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS friendships (
			user_id    TEXT NOT NULL REFERENCES users(id),
			friend_id  TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, friend_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating friendships table: %w", err)
	}

	return nil
}

// pairKey returns the two IDs in lexicographic order, for the unordered
// pair uniqueness index.
func pairKey(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite doesn't export a typed error for this, so we
// match the stable message prefix the SQLite core produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
