package domain

import "time"

// Message roles as they appear in transcripts and on the wire.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleError     = "error"
)

// HistoryLimit caps how many prior turns are sent to the backend as
// conversation context. The locally rendered transcript is unbounded.
const HistoryLimit = 10

// Message is one entry in a conversation transcript
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user, assistant, error
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is the wire form of a prior message sent as context
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LastTurns returns up to limit most recent user/assistant messages in
// chronological order, converted to wire form. Error bubbles are local
// UI artifacts and are never replayed to the backend.
func LastTurns(messages []Message, limit int) []Turn {
	turns := make([]Turn, 0, limit)
	for _, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			continue
		}
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}
