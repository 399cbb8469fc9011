package repo

import (
	"context"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
)

// SortOrder is the creation-time ordering for message reads.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// MessageFilter holds caller-supplied equality filters. Nil fields are absent
// and must not be compiled into constraints.
type MessageFilter struct {
	ID             *int64
	ConversationID *int64
	AuthorType     *domain.AuthorType
}

// MessageQuery combines the owning conversation's authorization scope with
// caller filters, ordering and pagination. The scope applies transitively: a
// message is visible only when its conversation is.
type MessageQuery struct {
	Scope  ConversationScope
	Filter MessageFilter
	Order  SortOrder
	Limit  int
	Offset int
}

// MessageCreate is the candidate record for message persistence.
type MessageCreate struct {
	ConversationID    int64
	Content           domain.MessageContent
	AuthorType        domain.AuthorType
	AuthorID          string
	ProviderMessageID string
	Metadata          map[string]string
}

// MessageRepo is the message store interface
type MessageRepo interface {
	// FindMany returns the messages matching the query, scoped through the
	// owning conversation.
	FindMany(ctx context.Context, q MessageQuery) ([]domain.Message, error)

	// Create inserts a fresh row. Used for messages with no provider
	// identity, where no concurrent writer can produce the same record.
	Create(ctx context.Context, in MessageCreate) (*domain.Message, error)

	// UpsertByProviderID atomically creates the message keyed on
	// in.ProviderMessageID, or returns the existing row unmodified. The
	// update branch is a deliberate no-op: whichever write path arrives
	// first is authoritative.
	UpsertByProviderID(ctx context.Context, in MessageCreate) (*domain.Message, error)
}
