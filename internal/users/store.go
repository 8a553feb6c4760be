package users

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Manager owns the user database. The preferences panel loads a working
// copy of all records, edits it in memory, and writes it back wholesale
// on commit.
type Manager struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(ctx context.Context, path string, logger *slog.Logger) (*Manager, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open user db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping user db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}
	if logger == nil {
		logger = slog.With("component", "users")
	}

	return &Manager{db: db, logger: logger}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			read_only INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	return nil
}

// Load returns a working copy of every stored record.
func (m *Manager) Load(ctx context.Context) (map[string]Record, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT username, password_hash, read_only, created_at
		FROM users
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Record)
	for rows.Next() {
		var (
			username  string
			record    Record
			readOnly  int64
			createdMs int64
		)
		if err := rows.Scan(&username, &record.PasswordHash, &readOnly, &createdMs); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		record.ReadOnly = readOnly != 0
		record.CreatedAt = fromUnixMillis(createdMs)
		out[username] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return out, nil
}

// Replace commits a working copy back wholesale, in one transaction.
func (m *Manager) Replace(ctx context.Context, records map[string]Record) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin user replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	for username, record := range records {
		readOnly := int64(0)
		if record.ReadOnly {
			readOnly = 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users(username, password_hash, read_only, created_at)
			VALUES (?, ?, ?, ?)
		`, username, record.PasswordHash, readOnly, toUnixMillis(record.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert user %s: %w", username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user replace: %w", err)
	}
	m.logger.Info("user database replaced", "count", len(records))

	return nil
}

// Refresh re-reads the database. Present for parity with callers that hold
// a long-lived working copy and want to discard it.
func (m *Manager) Refresh(ctx context.Context) (map[string]Record, error) {
	return m.Load(ctx)
}

// Count returns the number of stored accounts.
func (m *Manager) Count(ctx context.Context) (int, error) {
	var count int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// Authenticate checks a username/password pair against the stored records.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (bool, error) {
	var hash string
	err := m.db.QueryRowContext(ctx, `
		SELECT password_hash FROM users WHERE username = ?
	`, username).Scan(&hash)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up user %s: %w", username, err)
	}

	return Record{PasswordHash: hash}.VerifyPassword(password), nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}
