// Package sqlite provides a single-file SQLite backend for the waitlist.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"pumpscope/internal/domain"
	"pumpscope/internal/storage"
	"pumpscope/internal/storage/migrations"
)

// Open opens (creating if needed) the SQLite database at path and applies migrations.
// The pool is limited to one connection so writers are serialized.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// WaitlistStore implements storage.WaitlistStore on SQLite.
type WaitlistStore struct {
	db *sql.DB
}

// NewWaitlistStore creates a waitlist store over an opened database.
func NewWaitlistStore(db *sql.DB) *WaitlistStore {
	return &WaitlistStore{db: db}
}

// Insert appends a new entry. Returns ErrDuplicateKey if the email exists.
func (s *WaitlistStore) Insert(ctx context.Context, e *domain.WaitlistEntry) error {
	if e == nil || e.Email == "" {
		return storage.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO waitlist_entries (email, created_at) VALUES (?, ?) ON CONFLICT(email) DO NOTHING`,
		e.Email, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert waitlist entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	if n == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// Count returns the number of entries.
func (s *WaitlistStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count waitlist entries: %w", err)
	}
	return count, nil
}

// GetAll returns all entries in insertion order.
func (s *WaitlistStore) GetAll(ctx context.Context) ([]*domain.WaitlistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email, created_at FROM waitlist_entries ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query waitlist entries: %w", err)
	}
	defer rows.Close()

	var result []*domain.WaitlistEntry
	for rows.Next() {
		var e domain.WaitlistEntry
		if err := rows.Scan(&e.Email, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		result = append(result, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waitlist entries: %w", err)
	}

	return result, nil
}

var _ storage.WaitlistStore = (*WaitlistStore)(nil)
