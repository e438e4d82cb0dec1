package models

const (
	SoundDefault = "default"
	SoundNone    = "none"

	PriorityDefault = "default"
	PriorityNormal  = "normal"
	PriorityHigh    = "high"
)

// Payload is the content of one notification, independent of its recipients.
type Payload struct {
	Title    string         `json:"title" validate:"required"`
	Body     string         `json:"body" validate:"required"`
	Data     map[string]any `json:"data,omitempty"`
	Sound    string         `json:"sound,omitempty" validate:"omitempty,oneof=default none"`
	Badge    *int           `json:"badge,omitempty" validate:"omitempty,gte=0"`
	Priority string         `json:"priority,omitempty" validate:"omitempty,oneof=default normal high"`
}

// WithDefaults returns a copy of p with unset optional fields filled in.
func (p Payload) WithDefaults() Payload {
	if p.Sound == "" {
		p.Sound = SoundDefault
	}
	if p.Priority == "" {
		p.Priority = PriorityDefault
	}
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	return p
}
