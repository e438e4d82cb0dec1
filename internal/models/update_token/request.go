package models

// UpdateTokenRequest is a partial update; at least one field must be set.
type UpdateTokenRequest struct {
	UserID    *string `json:"user_id,omitempty"`
	ExpoToken *string `json:"expo_token,omitempty"`
}
