package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
)

// staffConversationRepo implements the staff/conversation join store on SQLite
type staffConversationRepo struct {
	db *sql.DB
}

// NewStaffConversationRepo creates a new staff-conversation repository
func NewStaffConversationRepo(db *sql.DB) repo.StaffConversationRepo {
	return &staffConversationRepo{db: db}
}

func (r *staffConversationRepo) EnsureJoined(ctx context.Context, staffID string, conversationID int64) error {
	// The composite primary key makes repeated joins no-ops.
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO staff_conversations (staff_id, conversation_id, joined_at)
		VALUES (?, ?, ?)
	`, staffID, conversationID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to join conversation: %w", err)
	}
	return nil
}
