package domain

import "time"

// AuthorType represents who wrote a message
type AuthorType string

const (
	AuthorTypeStaff    AuthorType = "staff"
	AuthorTypeCustomer AuthorType = "customer"
	AuthorTypeSystem   AuthorType = "system"
)

// MessageContentText is the content type for plain text messages.
const MessageContentText = "text"

// MessageContent is the structured message payload.
type MessageContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextContent builds a text-typed content payload.
func TextContent(text string) MessageContent {
	return MessageContent{Type: MessageContentText, Text: text}
}

// Message represents a message entity.
//
// ProviderMessageID is the identity assigned by the external provider. It is
// unique when set: the store holds at most one row per non-empty provider
// message identity, whichever write path creates it first.
type Message struct {
	ID                int64             `json:"id"`
	ConversationID    int64             `json:"conversation_id"`
	Content           MessageContent    `json:"content"`
	AuthorType        AuthorType        `json:"author_type"`
	AuthorID          string            `json:"author_id,omitempty"`
	ProviderMessageID string            `json:"provider_message_id,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// IsAfter checks if the message is after the specified time
func (m *Message) IsAfter(t time.Time) bool {
	return m.CreatedAt.After(t)
}
