package repo

import "context"

// StaffConversationRepo is the staff/conversation join store interface
type StaffConversationRepo interface {
	// EnsureJoined idempotently records that the staff member participates
	// in the conversation. Repeated calls leave exactly one row.
	EnsureJoined(ctx context.Context, staffID string, conversationID int64) error
}
