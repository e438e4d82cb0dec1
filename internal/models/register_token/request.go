package models

// RegisterTokenRequest creates or replaces the token of one user.
type RegisterTokenRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ExpoToken string `json:"expo_token" binding:"required"`
}
