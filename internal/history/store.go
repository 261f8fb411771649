// Package history persists an audit log of executed commands. Every
// trigger source (webhook, web console, Telegram) records the commands it
// ran and whether they succeeded; the webhook server exposes the most
// recent entries under /history.
package history

import (
	"context"
	"fmt"
	"log"
	"time"

	// Pure-Go SQLite driver, imported for its database/sql registration.
	// No CGO keeps cross-compilation for the usual server targets trivial.
	"database/sql"

	_ "modernc.org/sqlite"
)

// Entry is one executed command.
type Entry struct {
	ID         int64     `json:"id"`
	Source     string    `json:"source"`         // "webhook", "console", "telegram"
	Hook       string    `json:"hook,omitempty"` // webhook name, if any
	Command    string    `json:"command"`
	OK         bool      `json:"ok"`
	Detail     string    `json:"detail,omitempty"` // error text on failure
	ExecutedAt time.Time `json:"executed_at"`
}

// Store is a SQLite-backed audit log. The zero value is not usable; open
// one with [Open]. A nil *Store is a valid no-op sink, so callers never
// have to branch on whether auditing is configured.
type Store struct {
	db *sql.DB
}

// Open creates or opens the audit database at path. Use ":memory:" for a
// non-persistent store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS command_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			hook TEXT NOT NULL DEFAULT '',
			command TEXT NOT NULL,
			ok INTEGER NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			executed_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS command_log_executed_at ON command_log (executed_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}

	log.Printf("history: audit log ready at %s", path)
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one entry. Failures are logged, not propagated: a broken
// audit trail must not block command execution.
func (s *Store) Record(ctx context.Context, e Entry) {
	if s == nil {
		return
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_log (source, hook, command, ok, detail, executed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Source, e.Hook, e.Command, e.OK, e.Detail, e.ExecutedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		log.Printf("history: failed to record command: %v", err)
	}
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, hook, command, ok, detail, executed_at
		 FROM command_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var executedAt string
		if err := rows.Scan(&e.ID, &e.Source, &e.Hook, &e.Command, &e.OK, &e.Detail, &executedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, executedAt); err == nil {
			e.ExecutedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
