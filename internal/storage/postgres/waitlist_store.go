package postgres

import (
	"context"
	"fmt"

	"pumpscope/internal/domain"
	"pumpscope/internal/storage"
)

// WaitlistStore implements storage.WaitlistStore using PostgreSQL.
// Uniqueness is enforced by the email UNIQUE constraint.
type WaitlistStore struct {
	pool *Pool
}

// NewWaitlistStore creates a new PostgreSQL-backed waitlist store.
func NewWaitlistStore(pool *Pool) *WaitlistStore {
	return &WaitlistStore{pool: pool}
}

// Insert appends a new entry. Returns ErrDuplicateKey if the email exists.
func (s *WaitlistStore) Insert(ctx context.Context, e *domain.WaitlistEntry) error {
	if e == nil || e.Email == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO waitlist_entries (email, created_at)
		VALUES ($1, $2)
	`

	_, err := s.pool.Exec(ctx, query, e.Email, e.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert waitlist entry: %w", err)
	}

	return nil
}

// Count returns the number of entries.
func (s *WaitlistStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM waitlist_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count waitlist entries: %w", err)
	}
	return count, nil
}

// GetAll returns all entries in insertion order.
func (s *WaitlistStore) GetAll(ctx context.Context) ([]*domain.WaitlistEntry, error) {
	query := `
		SELECT email, created_at
		FROM waitlist_entries
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
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
