// Package sqlite implements the repository interfaces using SQLite as
// the storage backend. modernc.org/sqlite is a pure Go driver, so the
// binary cross-compiles without CGo.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/codecache/codecache/internal/model"
)

// DB wraps a sql.DB connection pool and provides repository methods for
// snippets, users, invitations, and collaboration requests.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests), enables WAL
// and foreign keys, and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

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

// Close closes the connection pool. Callers should defer this right
// after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe
// to run on every start.
//
// The UNIQUE indexes on invitations and collaboration_requests are what
// make the share flow's check-then-act safe: two concurrent shares for
// the same key can at worst surface as a constraint error, never as a
// duplicate row.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			avatar_url    TEXT NOT NULL DEFAULT '',
			github_id     INTEGER NOT NULL DEFAULT 0,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			code             TEXT NOT NULL DEFAULT '',
			language         TEXT NOT NULL DEFAULT '',
			tags             TEXT NOT NULL DEFAULT '[]',
			is_public        INTEGER NOT NULL DEFAULT 1,
			owner_id         TEXT NOT NULL DEFAULT '',
			last_modified_by TEXT NOT NULL DEFAULT '',
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_owner_id  ON snippets(owner_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS invitations (
			id            TEXT PRIMARY KEY,
			snippet_id    TEXT NOT NULL,
			inviter_id    TEXT NOT NULL,
			invitee_email TEXT NOT NULL,
			permissions   TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'pending',
			token         TEXT NOT NULL,
			expires_at    DATETIME NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME,
			UNIQUE(snippet_id, invitee_email)
		);
		CREATE INDEX IF NOT EXISTS idx_invitations_invitee_email
			ON invitations(invitee_email);
		CREATE INDEX IF NOT EXISTS idx_invitations_snippet_id
			ON invitations(snippet_id);
	`)
	if err != nil {
		return fmt.Errorf("creating invitations table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS collaboration_requests (
			id           TEXT PRIMARY KEY,
			snippet_id   TEXT NOT NULL,
			requester_id TEXT NOT NULL,
			recipient_id TEXT NOT NULL,
			permissions  TEXT NOT NULL,
			message      TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'pending',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(snippet_id, requester_id, recipient_id)
		);
		CREATE INDEX IF NOT EXISTS idx_collab_requests_recipient_id
			ON collaboration_requests(recipient_id);
		CREATE INDEX IF NOT EXISTS idx_collab_requests_requester_id
			ON collaboration_requests(requester_id);
	`)
	if err != nil {
		return fmt.Errorf("creating collaboration_requests table: %w", err)
	}

	return nil
}

// encodeStrings serializes a string slice for a TEXT column.
func encodeStrings(vals []string) (string, error) {
	if vals == nil {
		vals = []string{}
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return "", fmt.Errorf("encoding string list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var vals []string
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return nil, fmt.Errorf("decoding string list: %w", err)
	}
	return vals, nil
}

func encodePermissions(perms []model.Permission) (string, error) {
	vals := make([]string, len(perms))
	for i, p := range perms {
		vals[i] = string(p)
	}
	return encodeStrings(vals)
}

func decodePermissions(raw string) ([]model.Permission, error) {
	vals, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	perms := make([]model.Permission, len(vals))
	for i, v := range vals {
		perms[i] = model.Permission(v)
	}
	return perms, nil
}
