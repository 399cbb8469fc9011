package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
)

// conversationRepo implements the conversation store on SQLite
type conversationRepo struct {
	db *sql.DB
}

// NewConversationRepo creates a new conversation repository
func NewConversationRepo(db *sql.DB) repo.ConversationRepo {
	return &conversationRepo{db: db}
}

const conversationCols = `id, external_id, type, customer_id, source, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var c domain.Conversation
	var externalID sql.NullString
	var metadata string
	var createdAt, updatedAt int64
	err := row.Scan(&c.ID, &externalID, &c.Type, &c.CustomerID, &c.Source, &metadata, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.ExternalID = externalID.String
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	c.CreatedAt = time.UnixMilli(createdAt)
	c.UpdatedAt = time.UnixMilli(updatedAt)
	return &c, nil
}

// scopeSQL compiles an authorization scope into a WHERE fragment over the
// conversations table. The zero scope compiles to a contradiction, so an
// unknown role reads nothing.
func scopeSQL(scope repo.ConversationScope) (string, []any) {
	if scope.All {
		return "1 = 1", nil
	}
	if len(scope.Types) == 0 {
		return "1 = 0", nil
	}
	placeholders := make([]string, len(scope.Types))
	args := make([]any, len(scope.Types))
	for i, t := range scope.Types {
		placeholders[i] = "?"
		args[i] = string(t)
	}
	clause := fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ", "))
	if scope.RequireCustomer {
		clause += " AND customer_id <> ''"
	}
	return clause, args
}

func (r *conversationRepo) FindMany(ctx context.Context, q repo.ConversationQuery) ([]domain.Conversation, error) {
	where, args := scopeSQL(q.Scope)

	// Caller filters join the scope by AND; absent (nil) filters contribute
	// nothing.
	if q.Filter.ID != nil {
		where += " AND id = ?"
		args = append(args, *q.Filter.ID)
	}
	if q.Filter.Type != nil {
		where += " AND type = ?"
		args = append(args, string(*q.Filter.Type))
	}
	if q.Filter.CustomerID != nil {
		where += " AND customer_id = ?"
		args = append(args, *q.Filter.CustomerID)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM conversations
		WHERE %s
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, conversationCols, where)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *conversationRepo) Create(ctx context.Context, in repo.ConversationUpsert) (*domain.Conversation, error) {
	metadata, err := encodeMetadata(in.Metadata)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()

	// Empty external identities store as NULL so the unique index only
	// constrains real provider identities.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (external_id, type, customer_id, source, metadata, created_at, updated_at)
		VALUES (NULLIF(?, ''), ?, ?, ?, ?, ?, ?)
	`, in.ExternalID, string(in.Type), in.CustomerID, in.Source, metadata, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation id: %w", err)
	}
	return r.findByID(ctx, id)
}

func (r *conversationRepo) UpsertByExternalID(ctx context.Context, in repo.ConversationUpsert) (*domain.Conversation, error) {
	if in.ExternalID == "" {
		return nil, fmt.Errorf("external id required for upsert")
	}
	metadata, err := encodeMetadata(in.Metadata)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()

	// Create-or-noop keyed on the unique external identity; the follow-up
	// fetch returns whichever row holds the key, first writer wins.
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversations (external_id, type, customer_id, source, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO NOTHING
	`, in.ExternalID, string(in.Type), in.CustomerID, in.Source, metadata, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert conversation: %w", err)
	}

	row := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM conversations WHERE external_id = ?`, conversationCols), in.ExternalID)
	c, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upserted conversation: %w", err)
	}
	return c, nil
}

func (r *conversationRepo) SetCustomerID(ctx context.Context, id int64, customerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET customer_id = ? WHERE id = ?`, customerID, id)
	if err != nil {
		return fmt.Errorf("failed to set customer: %w", err)
	}
	return nil
}

func (r *conversationRepo) SetSource(ctx context.Context, id int64, source string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET source = ? WHERE id = ?`, source, id)
	if err != nil {
		return fmt.Errorf("failed to set source: %w", err)
	}
	return nil
}

func (r *conversationRepo) Touch(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

func (r *conversationRepo) findByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM conversations WHERE id = ?`, conversationCols), id)
	c, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	return c, nil
}

func encodeMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(b), nil
}
