// Package expo is a client for the Expo push gateway.
package expo

// DefaultPushURL is the public Expo push endpoint.
const DefaultPushURL = "https://exp.host/--/api/v2/push/send"

// MaxBatchSize is the largest number of messages Expo accepts in one request.
const MaxBatchSize = 100

// Message is one push notification addressed to a single token. A nil Sound
// is sent as JSON null, which plays no sound on the device.
type Message struct {
	To       string         `json:"to"`
	Title    string         `json:"title,omitempty"`
	Body     string         `json:"body,omitempty"`
	Data     map[string]any `json:"data"`
	Sound    *string        `json:"sound"`
	Badge    *int           `json:"badge,omitempty"`
	Priority string         `json:"priority,omitempty"`
}

const (
	TicketStatusOK    = "ok"
	TicketStatusError = "error"
)

// Ticket is the gateway's initial acceptance or rejection of one message.
type Ticket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Chunk splits messages into consecutive batches of at most size messages,
// preserving order. A non-positive size falls back to MaxBatchSize.
func Chunk(messages []Message, size int) [][]Message {
	if size <= 0 {
		size = MaxBatchSize
	}
	chunks := make([][]Message, 0, (len(messages)+size-1)/size)
	for start := 0; start < len(messages); start += size {
		end := min(start+size, len(messages))
		chunks = append(chunks, messages[start:end])
	}
	return chunks
}
