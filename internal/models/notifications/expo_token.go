package models

import "time"

// ExpoToken is the persisted push registration of a single user. A user owns
// at most one record; re-registering overwrites ExpoPushToken in place.
type ExpoToken struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	ExpoPushToken string    `json:"expo_token" db:"expo_token"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
