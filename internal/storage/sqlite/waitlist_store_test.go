package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpscope/internal/domain"
	"pumpscope/internal/storage"
	"pumpscope/internal/storage/storagetest"
)

func openTestStore(t *testing.T, path string) *WaitlistStore {
	t.Helper()
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWaitlistStore(db)
}

func TestWaitlistStore_Contract(t *testing.T) {
	storagetest.RunWaitlistStoreTests(t, func(t *testing.T) storage.WaitlistStore {
		return openTestStore(t, filepath.Join(t.TempDir(), "waitlist.db"))
	})
}

func TestWaitlistStore_SharedFile(t *testing.T) {
	storagetest.RunSharedWaitlistStoreTests(t, func(t *testing.T) (storage.WaitlistStore, storage.WaitlistStore) {
		path := filepath.Join(t.TempDir(), "waitlist.db")
		return openTestStore(t, path), openTestStore(t, path)
	})
}

func TestWaitlistStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "waitlist.db")
	ctx := context.Background()

	db, err := Open(ctx, path)
	require.NoError(t, err)
	store := NewWaitlistStore(db)
	require.NoError(t, store.Insert(ctx, &domain.WaitlistEntry{Email: "a@example.com", CreatedAt: 42}))
	require.NoError(t, db.Close())

	reopened := openTestStore(t, path)
	entries, err := reopened.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a@example.com", entries[0].Email)
	assert.Equal(t, int64(42), entries[0].CreatedAt)

	err = reopened.Insert(ctx, &domain.WaitlistEntry{Email: "a@example.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
