package domain

import "time"

// StaffConversation records that a staff member participates in a
// conversation. The (StaffID, ConversationID) pair is unique; repeated joins
// are no-ops.
type StaffConversation struct {
	StaffID        string
	ConversationID int64
	JoinedAt       time.Time
}
