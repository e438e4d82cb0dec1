// Package tokens persists Expo push tokens, one record per user.
package tokens

import (
	"context"

	"io.winapps.pushrelay/internal/apperr"
	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
)

// Store is the token registry. Implementations are safe for concurrent use
// and serialize concurrent upserts for the same user.
type Store interface {
	// Upsert creates the record for userID or overwrites its token,
	// preserving ID and CreatedAt.
	Upsert(ctx context.Context, userID, token string) (*notificationsmodels.ExpoToken, error)
	GetByID(ctx context.Context, id string) (*notificationsmodels.ExpoToken, error)
	GetByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error)
	List(ctx context.Context) ([]notificationsmodels.ExpoToken, error)
	Update(ctx context.Context, id string, fields UpdateFields) (*notificationsmodels.ExpoToken, error)
	DeleteByID(ctx context.Context, id string) (*notificationsmodels.ExpoToken, error)
	DeleteByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

// UpdateFields is a partial update. Nil fields are left untouched.
type UpdateFields struct {
	UserID *string
	Token  *string
}

// Empty reports whether no field is set.
func (f UpdateFields) Empty() bool {
	return f.UserID == nil && f.Token == nil
}

func errNotFound() error {
	return apperr.New(apperr.CodeNotFound, "Expo token not found")
}

func errUserNotFound(userID string) error {
	return apperr.New(apperr.CodeNotFound, "No Expo token found for user: "+userID)
}

func errNoFields() error {
	return apperr.New(apperr.CodeInvalidArgument, "At least one field (expo_token or user_id) is required")
}

func errUserTaken(userID string) error {
	return apperr.New(apperr.CodeConflict, "An expo token is already registered for user_id: "+userID)
}
