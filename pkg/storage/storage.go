// Package storage provides the sqlite-backed persistence for HabitFlow:
// the item store behind the HTTP API and the key-value state store used by
// the notification engine.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// Open connects to the sqlite database at file.
func Open(file string) (*sql.DB, error) {
	return sql.Open("sqlite", connectionString(file))
}

func connectionString(file string) string {
	busyTimeoutMs := 2000
	qs := url.Values{
		"_txlock": []string{"immediate"},
		"_pragma": []string{
			"journal_mode(WAL)",
			fmt.Sprintf("busy_timeout(%d)", busyTimeoutMs),
		},
	}

	return "file:" + file + "?" + qs.Encode()
}

// Migrate ensures all tables exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			date TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			repeat TEXT NOT NULL DEFAULT 'NONE'
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'NOT STARTED',
			tag TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS goals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT 'MEDIUM',
			date TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS habits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			streak INTEGER NOT NULL DEFAULT 0,
			date TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS push_tokens (
			token TEXT NOT NULL PRIMARY KEY,
			client_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS app_state (
			key TEXT NOT NULL PRIMARY KEY,
			value BLOB NOT NULL
		) WITHOUT ROWID;
		`,
	)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
