package storage

import (
	"context"

	"pumpscope/internal/domain"
)

// WaitlistStore provides access to waitlist storage.
// Implementations must make Insert an atomic append-if-absent: concurrent inserts
// of distinct emails must all be persisted.
type WaitlistStore interface {
	// Insert appends a new entry. Returns ErrDuplicateKey if the email exists.
	// The entry is durable when Insert returns nil.
	Insert(ctx context.Context, e *domain.WaitlistEntry) error

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// GetAll returns all entries in insertion order.
	GetAll(ctx context.Context) ([]*domain.WaitlistEntry, error)
}
