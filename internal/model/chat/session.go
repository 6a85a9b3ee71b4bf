package chat

import "time"

// Session captures a transient anonymous conversation.
type Session struct {
	ID               string    `json:"id"`
	Messages         []Message `json:"messages"`
	CurrentProfessor string    `json:"currentProfessor,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// History returns a copy of the transcript safe to hand to prompt builders.
func (s Session) History() []Message {
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}
