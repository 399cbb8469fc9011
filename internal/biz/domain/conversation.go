package domain

import "time"

// ConversationType represents the conversation type
type ConversationType string

const (
	// ConversationTypeCustomer is a customer-facing conversation, bridged to
	// the external messaging provider.
	ConversationTypeCustomer ConversationType = "customer"
	// ConversationTypeInternal is a staff-only conversation with no external
	// counterpart.
	ConversationTypeInternal ConversationType = "internal"
)

// Conversation represents a message thread.
//
// ExternalID is the provider-assigned chat identity. It is unique when set
// and is never rewritten once present. CustomerID and Source are fill-once:
// they may move from empty to a value exactly once and are never replaced
// afterwards.
type Conversation struct {
	ID         int64             `json:"id"`
	ExternalID string            `json:"external_id,omitempty"`
	Type       ConversationType  `json:"type"`
	CustomerID string            `json:"customer_id,omitempty"`
	Source     string            `json:"source,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Bridged reports whether the conversation has an external counterpart.
func (c *Conversation) Bridged() bool {
	return c.ExternalID != ""
}
