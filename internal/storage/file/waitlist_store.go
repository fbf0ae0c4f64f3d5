// Package file stores the waitlist as a JSON array of email strings on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"pumpscope/internal/domain"
	"pumpscope/internal/storage"
)

// DefaultPath is the waitlist file location used when none is configured.
const DefaultPath = "data/waitlist.json"

const lockRetryDelay = 10 * time.Millisecond

// WaitlistStore implements storage.WaitlistStore on a single JSON file.
// Every access holds the in-process mutex and an exclusive flock on a sidecar
// "<path>.lock" file, so stores in other processes sharing the path see a
// serialized read-modify-write. The file is replaced atomically so a crash
// never leaves a partially written array.
// CreatedAt is not recorded in this format and is always 0 on read.
type WaitlistStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewWaitlistStore creates a store backed by path. The file is created on first insert.
func NewWaitlistStore(path string) *WaitlistStore {
	if path == "" {
		path = DefaultPath
	}
	return &WaitlistStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing file path.
func (s *WaitlistStore) Path() string {
	return s.path
}

// Insert appends a new entry. Returns ErrDuplicateKey if the email exists.
func (s *WaitlistStore) Insert(ctx context.Context, e *domain.WaitlistEntry) error {
	if e == nil || e.Email == "" {
		return storage.ErrInvalidInput
	}

	return s.locked(ctx, func() error {
		emails, err := s.load()
		if err != nil {
			return err
		}

		for _, existing := range emails {
			if existing == e.Email {
				return storage.ErrDuplicateKey
			}
		}

		return s.save(append(emails, e.Email))
	})
}

// Count returns the number of entries.
func (s *WaitlistStore) Count(ctx context.Context) (int, error) {
	var emails []string
	err := s.locked(ctx, func() error {
		var err error
		emails, err = s.load()
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(emails), nil
}

// GetAll returns all entries in insertion order.
func (s *WaitlistStore) GetAll(ctx context.Context) ([]*domain.WaitlistEntry, error) {
	var emails []string
	err := s.locked(ctx, func() error {
		var err error
		emails, err = s.load()
		return err
	})
	if err != nil {
		return nil, err
	}

	result := make([]*domain.WaitlistEntry, len(emails))
	for i, email := range emails {
		result[i] = &domain.WaitlistEntry{Email: email}
	}
	return result, nil
}

// locked runs fn under the mutex and the exclusive file lock.
// The lock wait is bounded by ctx.
func (s *WaitlistStore) locked(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create waitlist dir: %w", err)
	}

	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock waitlist file: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock waitlist file: %s", s.lock.Path())
	}
	defer s.lock.Unlock()

	return fn()
}

// load reads the array. A missing file is an empty waitlist; unparseable content is an error.
func (s *WaitlistStore) load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read waitlist file: %w", err)
	}

	var emails []string
	if err := json.Unmarshal(data, &emails); err != nil {
		return nil, fmt.Errorf("decode waitlist file: %w", err)
	}
	return emails, nil
}

// save writes emails to a temp file in the same directory, syncs it and renames it over path.
func (s *WaitlistStore) save(emails []string) error {
	dir := filepath.Dir(s.path)

	data, err := json.MarshalIndent(emails, "", "  ")
	if err != nil {
		return fmt.Errorf("encode waitlist: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".waitlist-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace waitlist file: %w", err)
	}
	return nil
}

var _ storage.WaitlistStore = (*WaitlistStore)(nil)
