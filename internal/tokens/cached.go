package tokens

import (
	"context"
	"time"

	"go.uber.org/zap"

	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
)

// CacheClient is the subset of Redis commands the cache needs.
type CacheClient interface {
	// Get decodes the cached value into dest, or returns an error on a miss.
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// SetNX stores value only if key does not exist and reports whether it did.
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
}

// tombstoneTTL bounds how long a write keeps lookups from refilling its key.
const tombstoneTTL = 30 * time.Second

// cacheEntry is the value stored under a user's key. An entry without a
// Token is a tombstone left by a write.
type cacheEntry struct {
	Token *notificationsmodels.ExpoToken `json:"token,omitempty"`
}

// CachedStore adds read-aside caching of per-user lookups to any Store.
// Writes replace the key with a tombstone and lookups only fill empty keys,
// so a lookup that read the store before a write cannot cache what it read.
// Cache failures are logged and never fail the call.
type CachedStore struct {
	Store
	cache  CacheClient
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewCachedStore decorates store.
func NewCachedStore(store Store, cache CacheClient, ttl time.Duration, logger *zap.SugaredLogger) *CachedStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CachedStore{Store: store, cache: cache, ttl: ttl, logger: logger}
}

func (s *CachedStore) GetByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error) {
	key := cacheKey(userID)

	var cached cacheEntry
	if err := s.cache.Get(ctx, key, &cached); err == nil && cached.Token != nil {
		return cached.Token, nil
	}

	rec, err := s.Store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.cache.SetNX(ctx, key, cacheEntry{Token: rec}, s.ttl); err != nil {
		s.logger.Warnw("Failed to cache expo token", "user_id", userID, "error", err)
	}
	return rec, nil
}

func (s *CachedStore) Upsert(ctx context.Context, userID, token string) (*notificationsmodels.ExpoToken, error) {
	rec, err := s.Store.Upsert(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return rec, nil
}

func (s *CachedStore) Update(ctx context.Context, id string, fields UpdateFields) (*notificationsmodels.ExpoToken, error) {
	var previous string
	if fields.UserID != nil {
		if old, err := s.Store.GetByID(ctx, id); err == nil {
			previous = old.UserID
		}
	}

	rec, err := s.Store.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, rec.UserID, previous)
	return rec, nil
}

func (s *CachedStore) DeleteByID(ctx context.Context, id string) (*notificationsmodels.ExpoToken, error) {
	rec, err := s.Store.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, rec.UserID)
	return rec, nil
}

func (s *CachedStore) DeleteByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error) {
	rec, err := s.Store.DeleteByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return rec, nil
}

func (s *CachedStore) invalidate(ctx context.Context, userIDs ...string) {
	ttl := tombstoneTTL
	if s.ttl > 0 && s.ttl < ttl {
		ttl = s.ttl
	}
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if err := s.cache.Set(ctx, cacheKey(id), cacheEntry{}, ttl); err != nil {
			s.logger.Warnw("Failed to invalidate cached expo token", "user_id", id, "error", err)
		}
	}
}

func cacheKey(userID string) string {
	return "expo_token:" + userID
}

var _ Store = (*CachedStore)(nil)
