package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"io.winapps.pushrelay/internal/apperr"
	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
)

// --- Mocks ---

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) error {
	return m.Called(ctx, key, dest).Error(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

// memoryCache mimics Redis GET/SET/SETNX with expiry, round-tripping values
// through JSON like RedisClient does.
type memoryCache struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	value   []byte
	expires time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		now:     time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		entries: make(map[string]memoryCacheEntry),
	}
}

func (c *memoryCache) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *memoryCache) live(key string) (memoryCacheEntry, bool) {
	e, ok := c.entries[key]
	if !ok || !c.now.Before(e.expires) {
		return memoryCacheEntry{}, false
	}
	return e, true
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(e.value, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCacheEntry{value: b, expires: c.now.Add(ttl)}
	return nil
}

func (c *memoryCache) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live(key); ok {
		return false, nil
	}
	c.entries[key] = memoryCacheEntry{value: b, expires: c.now.Add(ttl)}
	return true, nil
}

// steppedStore runs afterRead once, between the backing read of
// GetByUserID and its return, and counts backing reads.
type steppedStore struct {
	*MemoryStore
	afterRead func()
	reads     int
}

func (s *steppedStore) GetByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error) {
	rec, err := s.MemoryStore.GetByUserID(ctx, userID)
	s.reads++
	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook()
	}
	return rec, err
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) record(args mock.Arguments) (*notificationsmodels.ExpoToken, error) {
	if rec := args.Get(0); rec != nil {
		return rec.(*notificationsmodels.ExpoToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Upsert(ctx context.Context, userID, token string) (*notificationsmodels.ExpoToken, error) {
	return m.record(m.Called(ctx, userID, token))
}
func (m *MockStore) GetByID(ctx context.Context, id string) (*notificationsmodels.ExpoToken, error) {
	return m.record(m.Called(ctx, id))
}
func (m *MockStore) GetByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error) {
	return m.record(m.Called(ctx, userID))
}
func (m *MockStore) List(ctx context.Context) ([]notificationsmodels.ExpoToken, error) {
	args := m.Called(ctx)
	return args.Get(0).([]notificationsmodels.ExpoToken), args.Error(1)
}
func (m *MockStore) Update(ctx context.Context, id string, fields UpdateFields) (*notificationsmodels.ExpoToken, error) {
	return m.record(m.Called(ctx, id, fields))
}
func (m *MockStore) DeleteByID(ctx context.Context, id string) (*notificationsmodels.ExpoToken, error) {
	return m.record(m.Called(ctx, id))
}
func (m *MockStore) DeleteByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error) {
	return m.record(m.Called(ctx, userID))
}
func (m *MockStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStore) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockStore) Close()                         { m.Called() }

func TestCachedStore_GetByUserID(t *testing.T) {
	ctx := context.Background()
	rec := sampleToken()

	t.Run("hit skips the store", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockStore)
		store := NewCachedStore(mockDB, mockCache, time.Hour, nil)

		mockCache.On("Get", ctx, "expo_token:u1", mock.AnythingOfType("*tokens.cacheEntry")).
			Run(func(args mock.Arguments) {
				entry := rec
				args.Get(2).(*cacheEntry).Token = &entry
			}).
			Return(nil)

		got, err := store.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, rec, *got)
		mockDB.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
	})

	t.Run("miss fills an empty key", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockStore)
		store := NewCachedStore(mockDB, mockCache, time.Hour, nil)

		mockCache.On("Get", ctx, "expo_token:u1", mock.Anything).Return(redis.Nil)
		mockDB.On("GetByUserID", ctx, "u1").Return(&rec, nil)
		mockCache.On("SetNX", ctx, "expo_token:u1", cacheEntry{Token: &rec}, time.Hour).Return(true, nil)

		got, err := store.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, rec, *got)
		mockDB.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("tombstone reads through to the store", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockStore)
		store := NewCachedStore(mockDB, mockCache, time.Hour, nil)

		mockCache.On("Get", ctx, "expo_token:u1", mock.Anything).Return(nil)
		mockDB.On("GetByUserID", ctx, "u1").Return(&rec, nil)
		mockCache.On("SetNX", ctx, "expo_token:u1", cacheEntry{Token: &rec}, time.Hour).Return(false, nil)

		got, err := store.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		mockDB.AssertExpectations(t)
	})

	t.Run("cache failure falls back to the store", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockStore)
		store := NewCachedStore(mockDB, mockCache, time.Hour, nil)

		mockCache.On("Get", ctx, "expo_token:u1", mock.Anything).Return(errors.New("redis down"))
		mockDB.On("GetByUserID", ctx, "u1").Return(&rec, nil)
		mockCache.On("SetNX", ctx, "expo_token:u1", cacheEntry{Token: &rec}, time.Hour).Return(false, errors.New("redis down"))

		got, err := store.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
	})
}

func TestCachedStore_WritesLeaveTombstones(t *testing.T) {
	ctx := context.Background()
	rec := sampleToken()

	t.Run("upsert", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockStore)
		store := NewCachedStore(mockDB, mockCache, time.Hour, nil)

		mockDB.On("Upsert", ctx, "u1", "ExponentPushToken[abc]").Return(&rec, nil)
		mockCache.On("Set", ctx, "expo_token:u1", cacheEntry{}, tombstoneTTL).Return(nil)

		_, err := store.Upsert(ctx, "u1", "ExponentPushToken[abc]")
		require.NoError(t, err)
		mockCache.AssertExpectations(t)
	})

	t.Run("update moving user marks both keys", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockStore)
		store := NewCachedStore(mockDB, mockCache, time.Hour, nil)

		moved := rec
		moved.UserID = "u9"
		user := "u9"
		fields := UpdateFields{UserID: &user}

		mockDB.On("GetByID", ctx, rec.ID).Return(&rec, nil)
		mockDB.On("Update", ctx, rec.ID, fields).Return(&moved, nil)
		mockCache.On("Set", ctx, "expo_token:u9", cacheEntry{}, tombstoneTTL).Return(nil)
		mockCache.On("Set", ctx, "expo_token:u1", cacheEntry{}, tombstoneTTL).Return(nil)

		got, err := store.Update(ctx, rec.ID, fields)
		require.NoError(t, err)
		assert.Equal(t, "u9", got.UserID)
		mockCache.AssertExpectations(t)
	})

	t.Run("tombstone never outlives the entry ttl", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockStore)
		store := NewCachedStore(mockDB, mockCache, 5*time.Second, nil)

		mockDB.On("DeleteByID", ctx, rec.ID).Return(&rec, nil)
		mockCache.On("Set", ctx, "expo_token:u1", cacheEntry{}, 5*time.Second).Return(nil)

		_, err := store.DeleteByID(ctx, rec.ID)
		require.NoError(t, err)
		mockCache.AssertExpectations(t)
	})

	t.Run("delete by user even if redis fails", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockStore)
		store := NewCachedStore(mockDB, mockCache, time.Hour, nil)

		mockDB.On("DeleteByUserID", ctx, "u1").Return(&rec, nil)
		mockCache.On("Set", ctx, "expo_token:u1", cacheEntry{}, tombstoneTTL).Return(errors.New("redis down"))

		got, err := store.DeleteByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
	})

	t.Run("failed write leaves cache alone", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockStore)
		store := NewCachedStore(mockDB, mockCache, time.Hour, nil)

		mockDB.On("DeleteByID", ctx, "missing").Return(nil, errNotFound())

		_, err := store.DeleteByID(ctx, "missing")
		require.Error(t, err)
		mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCachedStore_WriteDuringLookupIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	backing := &steppedStore{MemoryStore: newTestMemoryStore()}
	_, err := backing.Upsert(ctx, "u1", "ExponentPushToken[old]")
	require.NoError(t, err)

	cache := newMemoryCache()
	store := NewCachedStore(backing, cache, 24*time.Hour, nil)

	backing.afterRead = func() {
		_, err := store.Upsert(ctx, "u1", "ExponentPushToken[new]")
		require.NoError(t, err)
	}

	first, err := store.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[old]", first.ExpoPushToken, "read completed before the write")

	second, err := store.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[new]", second.ExpoPushToken)

	cache.advance(tombstoneTTL)
	third, err := store.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[new]", third.ExpoPushToken)

	reads := backing.reads
	fourth, err := store.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[new]", fourth.ExpoPushToken)
	assert.Equal(t, reads, backing.reads, "refilled after the tombstone expired")
}

func TestCachedStore_DeleteDuringLookupIsNotResurrected(t *testing.T) {
	ctx := context.Background()
	backing := &steppedStore{MemoryStore: newTestMemoryStore()}
	_, err := backing.Upsert(ctx, "u1", "ExponentPushToken[old]")
	require.NoError(t, err)

	store := NewCachedStore(backing, newMemoryCache(), 24*time.Hour, nil)
	backing.afterRead = func() {
		_, err := store.DeleteByUserID(ctx, "u1")
		require.NoError(t, err)
	}

	_, err = store.GetByUserID(ctx, "u1")
	require.NoError(t, err)

	_, err = store.GetByUserID(ctx, "u1")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
