package models

import "io.winapps.pushrelay/internal/expo"

// DispatchResult aggregates the gateway's answer to one dispatch. Tickets are
// ordered exactly like the submitted messages.
type DispatchResult struct {
	Success   bool          `json:"success"`
	SentCount int           `json:"sentCount"`
	Message   string        `json:"message"`
	Tickets   []expo.Ticket `json:"tickets,omitempty"`
	Error     string        `json:"error,omitempty"`
}
