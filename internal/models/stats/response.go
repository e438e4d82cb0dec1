package models

import "time"

// Stats summarizes the token registry. TotalUsers always equals TotalTokens
// because a user holds at most one token.
type Stats struct {
	TotalUsers  int64     `json:"totalUsers"`
	TotalTokens int64     `json:"totalTokens"`
	Timestamp   time.Time `json:"timestamp"`
}
