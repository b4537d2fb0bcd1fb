package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one chat message. Its live-collection scope is the
// conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMessage returns a message with a fresh id, stamped now.
func NewMessage(conversationID, senderID, body string) *Message {
	return &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      time.Now().UTC(),
	}
}

func (m *Message) RecordID() string       { return m.ID }
func (m *Message) ScopeID() string        { return m.ConversationID }
func (m *Message) CreatedTime() time.Time { return m.CreatedAt }
