package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
)

// messageRepo implements the message store on SQLite
type messageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new message repository
func NewMessageRepo(db *sql.DB) repo.MessageRepo {
	return &messageRepo{db: db}
}

const messageCols = `id, conversation_id, content, author_type, author_id, provider_message_id, metadata, created_at`

func scanMessage(row rowScanner) (*domain.Message, error) {
	var m domain.Message
	var content, metadata string
	var providerID sql.NullString
	var createdAt int64
	err := row.Scan(&m.ID, &m.ConversationID, &content, &m.AuthorType, &m.AuthorID, &providerID, &metadata, &createdAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &m.Content); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	m.ProviderMessageID = providerID.String
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	m.CreatedAt = time.UnixMilli(createdAt)
	return &m, nil
}

func (r *messageRepo) FindMany(ctx context.Context, q repo.MessageQuery) ([]domain.Message, error) {
	// The conversation scope applies transitively: a message is readable
	// only when its owning conversation is.
	scopeWhere, args := scopeSQL(q.Scope)
	where := fmt.Sprintf("conversation_id IN (SELECT id FROM conversations WHERE %s)", scopeWhere)

	if q.Filter.ID != nil {
		where += " AND id = ?"
		args = append(args, *q.Filter.ID)
	}
	if q.Filter.ConversationID != nil {
		where += " AND conversation_id = ?"
		args = append(args, *q.Filter.ConversationID)
	}
	if q.Filter.AuthorType != nil {
		where += " AND author_type = ?"
		args = append(args, string(*q.Filter.AuthorType))
	}

	dir := "ASC"
	if q.Order == repo.SortDesc {
		dir = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE %s
		ORDER BY created_at %s, id %s
		LIMIT ? OFFSET ?
	`, messageCols, where, dir, dir)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *messageRepo) Create(ctx context.Context, in repo.MessageCreate) (*domain.Message, error) {
	content, metadata, err := encodeMessage(in)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, content, author_type, author_id, provider_message_id, metadata, created_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, ?)
	`, in.ConversationID, content, string(in.AuthorType), in.AuthorID, in.ProviderMessageID, metadata, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read message id: %w", err)
	}
	return r.findByID(ctx, id)
}

func (r *messageRepo) UpsertByProviderID(ctx context.Context, in repo.MessageCreate) (*domain.Message, error) {
	if in.ProviderMessageID == "" {
		return r.Create(ctx, in)
	}

	content, metadata, err := encodeMessage(in)
	if err != nil {
		return nil, err
	}

	// Create-or-noop keyed on the unique provider identity. The outbound
	// send and the inbound webhook echo both land here; whichever commits
	// first owns the row and the other observes it.
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, content, author_type, author_id, provider_message_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider_message_id) DO NOTHING
	`, in.ConversationID, content, string(in.AuthorType), in.AuthorID, in.ProviderMessageID, metadata, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert message: %w", err)
	}

	row := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM messages WHERE provider_message_id = ?`, messageCols), in.ProviderMessageID)
	m, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upserted message: %w", err)
	}
	return m, nil
}

func (r *messageRepo) findByID(ctx context.Context, id int64) (*domain.Message, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM messages WHERE id = ?`, messageCols), id)
	m, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return m, nil
}

func encodeMessage(in repo.MessageCreate) (content string, metadata string, err error) {
	b, err := json.Marshal(in.Content)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode content: %w", err)
	}
	metadata, err = encodeMetadata(in.Metadata)
	if err != nil {
		return "", "", err
	}
	return string(b), metadata, nil
}
