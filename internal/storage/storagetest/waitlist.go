// Package storagetest holds behavioural tests shared by every storage.WaitlistStore backend.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpscope/internal/domain"
	"pumpscope/internal/storage"
)

// RunWaitlistStoreTests runs the shared contract tests against stores built by newStore.
// newStore must return an empty store.
func RunWaitlistStoreTests(t *testing.T, newStore func(t *testing.T) storage.WaitlistStore) {
	t.Run("InsertAndCount", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		require.NoError(t, store.Insert(ctx, &domain.WaitlistEntry{Email: "a@example.com", CreatedAt: 1}))
		require.NoError(t, store.Insert(ctx, &domain.WaitlistEntry{Email: "b@example.com", CreatedAt: 2}))

		count, err = store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx, &domain.WaitlistEntry{Email: "dup@example.com"}))
		err := store.Insert(ctx, &domain.WaitlistEntry{Email: "dup@example.com"})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
		assert.ErrorIs(t, store.Insert(ctx, &domain.WaitlistEntry{}), storage.ErrInvalidInput)
	})

	t.Run("GetAllInsertionOrder", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		emails := []string{"z@example.com", "a@example.com", "m@example.com"}
		for _, email := range emails {
			require.NoError(t, store.Insert(ctx, &domain.WaitlistEntry{Email: email}))
		}

		entries, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, entries, len(emails))
		for i, e := range entries {
			assert.Equal(t, emails[i], e.Email)
		}
	})

	t.Run("ConcurrentDistinctInserts", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const n = 50
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- store.Insert(ctx, &domain.WaitlistEntry{Email: fmt.Sprintf("user%d@example.com", i)})
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, n, count)
	})

	t.Run("ConcurrentSameEmail", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const n = 20
		var wg sync.WaitGroup
		var mu sync.Mutex
		inserted := 0
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.Insert(ctx, &domain.WaitlistEntry{Email: "same@example.com"})
				if err == nil {
					mu.Lock()
					inserted++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, storage.ErrDuplicateKey)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, inserted)
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

// RunSharedWaitlistStoreTests checks that two independently opened stores over the
// same backing data never lose each other's writes. newPair must return two empty
// stores that share storage, as two processes would.
func RunSharedWaitlistStoreTests(t *testing.T, newPair func(t *testing.T) (storage.WaitlistStore, storage.WaitlistStore)) {
	t.Run("ConcurrentDistinctInsertsAcrossStores", func(t *testing.T) {
		a, b := newPair(t)
		stores := []storage.WaitlistStore{a, b}
		ctx := context.Background()

		const n = 100
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- stores[i%2].Insert(ctx, &domain.WaitlistEntry{Email: fmt.Sprintf("user%d@example.com", i)})
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		for _, store := range stores {
			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, n, count)
		}
	})

	t.Run("ConcurrentSameEmailAcrossStores", func(t *testing.T) {
		a, b := newPair(t)
		stores := []storage.WaitlistStore{a, b}
		ctx := context.Background()

		const n = 20
		var wg sync.WaitGroup
		var mu sync.Mutex
		inserted := 0
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := stores[i%2].Insert(ctx, &domain.WaitlistEntry{Email: "same@example.com"})
				if err == nil {
					mu.Lock()
					inserted++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, storage.ErrDuplicateKey)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, inserted)
		count, err := b.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
