package tokens

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"io.winapps.pushrelay/internal/apperr"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestMemoryStore() *MemoryStore {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	return NewMemoryStore(WithClock(clock.Now))
}

func TestMemoryStore_UpsertKeepsOneRecordPerUser(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore()

	first, err := store.Upsert(ctx, "u1", "ExponentPushToken[one]")
	require.NoError(t, err)

	var last string
	for i := 0; i < 3; i++ {
		last = fmt.Sprintf("ExponentPushToken[%d]", i)
		_, err := store.Upsert(ctx, "u1", last)
		require.NoError(t, err)
	}

	got, err := store.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, last, got.ExpoPushToken)
	assert.Equal(t, first.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(first.UpdatedAt))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_ReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore()

	rec, err := store.Upsert(ctx, "u1", "ExponentPushToken[a]")
	require.NoError(t, err)
	rec.ExpoPushToken = "mutated"

	got, err := store.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[a]", got.ExpoPushToken)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore()

	a, err := store.Upsert(ctx, "u1", "ExponentPushToken[a]")
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "u2", "ExponentPushToken[b]")
	require.NoError(t, err)

	t.Run("no fields", func(t *testing.T) {
		_, err := store.Update(ctx, a.ID, UpdateFields{})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
	})

	t.Run("unknown id", func(t *testing.T) {
		token := "ExponentPushToken[x]"
		_, err := store.Update(ctx, "missing", UpdateFields{Token: &token})
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})

	t.Run("user already taken", func(t *testing.T) {
		taken := "u2"
		_, err := store.Update(ctx, a.ID, UpdateFields{UserID: &taken})
		assert.True(t, apperr.Is(err, apperr.CodeConflict))

		got, err := store.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
	})

	t.Run("move to new user", func(t *testing.T) {
		user := "u3"
		token := "ExponentPushToken[c]"
		updated, err := store.Update(ctx, a.ID, UpdateFields{UserID: &user, Token: &token})
		require.NoError(t, err)
		assert.Equal(t, "u3", updated.UserID)
		assert.Equal(t, token, updated.ExpoPushToken)
		assert.Equal(t, a.CreatedAt, updated.CreatedAt)

		_, err = store.GetByUserID(ctx, "u1")
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))

		got, err := store.GetByUserID(ctx, "u3")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
	})
}

func TestMemoryStore_Deletes(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore()

	a, err := store.Upsert(ctx, "u1", "ExponentPushToken[a]")
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "u2", "ExponentPushToken[b]")
	require.NoError(t, err)

	deleted, err := store.DeleteByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", deleted.UserID)

	_, err = store.DeleteByID(ctx, a.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = store.GetByUserID(ctx, "u1")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	deleted, err = store.DeleteByUserID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[b]", deleted.ExpoPushToken)

	_, err = store.DeleteByUserID(ctx, "u2")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStore_ConcurrentUpsertsSameUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Upsert(ctx, "shared", fmt.Sprintf("ExponentPushToken[%d]", i))
			assert.NoError(t, err)
		}(i)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Upsert(ctx, fmt.Sprintf("user-%d", i), "ExponentPushToken[x]")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(51), n)
}

func TestMemoryStore_ConcurrentUpsertsKeepUpdatedAtMonotonic(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithClock(func() time.Time {
		now := clock.Now()
		runtime.Gosched()
		return now
	}))

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Upsert(ctx, "shared", fmt.Sprintf("ExponentPushToken[%d]", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rec, err := store.GetByUserID(ctx, "shared")
	require.NoError(t, err)

	clock.mu.Lock()
	latest := clock.now
	clock.mu.Unlock()
	assert.Equal(t, latest, rec.UpdatedAt, "the last write carries the latest timestamp")
}
