package repo

import (
	"context"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
)

// ConversationScope is the authorization predicate a staff principal's role
// compiles to. Constraints are ANDed; the zero value matches nothing, so an
// unknown role is denied by default.
type ConversationScope struct {
	// All matches every conversation regardless of the other fields.
	All bool
	// Types restricts to the given conversation types.
	Types []domain.ConversationType
	// RequireCustomer restricts to conversations with a linked customer.
	RequireCustomer bool
}

// Matches reports whether a conversation falls inside the scope.
func (s ConversationScope) Matches(c *domain.Conversation) bool {
	if s.All {
		return true
	}
	if s.RequireCustomer && c.CustomerID == "" {
		return false
	}
	for _, t := range s.Types {
		if c.Type == t {
			return true
		}
	}
	return false
}

// ConversationFilter holds caller-supplied equality filters. Nil fields are
// absent and must not be compiled into constraints.
type ConversationFilter struct {
	ID         *int64
	Type       *domain.ConversationType
	CustomerID *string
}

// ConversationQuery combines the authorization scope with caller filters and
// pagination. Results order by updated_at descending, then id descending, so
// pagination stays deterministic across rows with equal update timestamps.
type ConversationQuery struct {
	Scope  ConversationScope
	Filter ConversationFilter
	Limit  int
	Offset int
}

// ConversationUpsert is the candidate record for create-or-fetch keyed on the
// external conversation identity. On an existing row every field is ignored;
// fill-once follow-ups are the reconciler's job, not the store's.
type ConversationUpsert struct {
	ExternalID string
	Type       domain.ConversationType
	CustomerID string
	Source     string
	Metadata   map[string]string
}

// ConversationRepo is the conversation store interface
type ConversationRepo interface {
	// FindMany returns the conversations visible through the query's scope
	// that match its filters, paginated.
	FindMany(ctx context.Context, q ConversationQuery) ([]domain.Conversation, error)

	// Create inserts a new conversation. ExternalID may be empty for
	// conversations with no provider counterpart.
	Create(ctx context.Context, in ConversationUpsert) (*domain.Conversation, error)

	// UpsertByExternalID atomically creates the conversation keyed on
	// in.ExternalID, or fetches the existing row untouched.
	UpsertByExternalID(ctx context.Context, in ConversationUpsert) (*domain.Conversation, error)

	// SetCustomerID and SetSource write the fill-once fields. Callers decide
	// whether the field is still empty; the store just writes.
	SetCustomerID(ctx context.Context, id int64, customerID string) error
	SetSource(ctx context.Context, id int64, source string) error

	// Touch bumps the conversation's updated_at to now.
	Touch(ctx context.Context, id int64) error
}
