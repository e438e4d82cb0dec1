package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
)

// MemoryStore is the embedded backend. Every operation is a single short
// critical section with no I/O inside it, so an upsert is atomic per user and
// writers for different users only contend for the map itself.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*notificationsmodels.ExpoToken
	byUser map[string]string

	now   func() time.Time
	newID func() string
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore returns an empty embedded store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		byID:   make(map[string]*notificationsmodels.ExpoToken),
		byUser: make(map[string]string),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Upsert(_ context.Context, userID, token string) (*notificationsmodels.ExpoToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if id, ok := s.byUser[userID]; ok {
		rec := *s.byID[id]
		rec.ExpoPushToken = token
		rec.UpdatedAt = now
		s.byID[id] = &rec
		out := rec
		return &out, nil
	}

	rec := notificationsmodels.ExpoToken{
		ID:            s.newID(),
		UserID:        userID,
		ExpoPushToken: token,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.byID[rec.ID] = &rec
	s.byUser[userID] = rec.ID
	out := rec
	return &out, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*notificationsmodels.ExpoToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, errNotFound()
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) GetByUserID(_ context.Context, userID string) (*notificationsmodels.ExpoToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUser[userID]
	if !ok {
		return nil, errUserNotFound(userID)
	}
	out := *s.byID[id]
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]notificationsmodels.ExpoToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]notificationsmodels.ExpoToken, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, *rec)
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fields UpdateFields) (*notificationsmodels.ExpoToken, error) {
	if fields.Empty() {
		return nil, errNoFields()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[id]
	if !ok {
		return nil, errNotFound()
	}

	rec := *existing
	if fields.UserID != nil && *fields.UserID != rec.UserID {
		if other, taken := s.byUser[*fields.UserID]; taken && other != id {
			return nil, errUserTaken(*fields.UserID)
		}
		delete(s.byUser, rec.UserID)
		rec.UserID = *fields.UserID
		s.byUser[rec.UserID] = id
	}
	if fields.Token != nil {
		rec.ExpoPushToken = *fields.Token
	}
	rec.UpdatedAt = s.now()
	s.byID[id] = &rec

	out := rec
	return &out, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id string) (*notificationsmodels.ExpoToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, errNotFound()
	}
	delete(s.byID, id)
	delete(s.byUser, rec.UserID)
	return rec, nil
}

func (s *MemoryStore) DeleteByUserID(_ context.Context, userID string) (*notificationsmodels.ExpoToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUser[userID]
	if !ok {
		return nil, errUserNotFound(userID)
	}
	rec := s.byID[id]
	delete(s.byID, id)
	delete(s.byUser, userID)
	return rec, nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() {}

var _ Store = (*MemoryStore)(nil)
