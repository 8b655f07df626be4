package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id                INTEGER PRIMARY KEY,
    email             TEXT NOT NULL,
    password_hash     TEXT NOT NULL,
    full_name         TEXT NOT NULL,
    role              TEXT NOT NULL CHECK (role IN ('student', 'staff')),
    student_id_number TEXT,
    semester          TEXT,
    department        TEXT,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email);

CREATE TABLE IF NOT EXISTS found_items (
    id               INTEGER PRIMARY KEY,
    title            TEXT NOT NULL,
    description      TEXT,
    image_url        TEXT,
    found_location   TEXT NOT NULL,
    deposit_location TEXT NOT NULL,
    found_date       TEXT NOT NULL,
    found_time       TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'found' CHECK (status IN ('found', 'claimed', 'returned')),
    reporter_id      INTEGER NOT NULL REFERENCES profiles(id),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_found_items_reporter ON found_items(reporter_id);
CREATE INDEX IF NOT EXISTS idx_found_items_created ON found_items(created_at DESC);

CREATE TABLE IF NOT EXISTS status_events (
    id          INTEGER PRIMARY KEY,
    item_id     INTEGER NOT NULL REFERENCES found_items(id),
    from_status TEXT NOT NULL,
    to_status   TEXT NOT NULL,
    changed_by  INTEGER NOT NULL REFERENCES profiles(id),
    changed_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
