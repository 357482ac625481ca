package mesh

import (
	"time"

	"github.com/google/uuid"
)

// Message is an immutable routed message between two agents.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message from sender to recipient.
func NewMessage(from, to, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
