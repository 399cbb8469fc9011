package usecase

import (
	"context"
	"fmt"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
)

// Dispatcher persists staff-sent messages, bridging customer conversations
// through the external provider. Its persistence step funnels through the
// same provider-identity-keyed upsert as the webhook ingest path, so a sent
// message and its webhook echo collapse into one row no matter which side
// commits first.
type Dispatcher struct {
	conversations repo.ConversationRepo
	messages      repo.MessageRepo
	provider      repo.ProviderRepo // nil when no bridge is configured
}

// NewDispatcher creates a new message dispatcher
func NewDispatcher(
	conversations repo.ConversationRepo,
	messages repo.MessageRepo,
	provider repo.ProviderRepo,
) *Dispatcher {
	return &Dispatcher{
		conversations: conversations,
		messages:      messages,
		provider:      provider,
	}
}

// Dispatch sends and persists one staff message to an already-resolved,
// already-authorized conversation.
//
// Unbridged conversations (internal type, no configured provider, or no
// external identity yet) persist directly with an empty provider identity;
// no other writer can produce that row. Bridged conversations submit to the
// provider first and persist under the returned identity. A provider failure
// propagates and leaves no local row.
func (d *Dispatcher) Dispatch(ctx context.Context, staff domain.Staff, conv *domain.Conversation, content domain.MessageContent) (*domain.Message, error) {
	create := repo.MessageCreate{
		ConversationID: conv.ID,
		Content:        content,
		AuthorType:     domain.AuthorTypeStaff,
		AuthorID:       staff.ID,
	}

	if conv.Type != domain.ConversationTypeCustomer || d.provider == nil || !conv.Bridged() {
		msg, err := d.messages.Create(ctx, create)
		if err != nil {
			return nil, fmt.Errorf("persist message: %w", err)
		}
		d.touch(ctx, conv.ID)
		return msg, nil
	}

	providerID, err := d.provider.PostMessage(ctx, conv.ExternalID, content)
	if err != nil {
		return nil, fmt.Errorf("post message to provider: %w", err)
	}

	create.ProviderMessageID = providerID
	msg, err := d.messages.UpsertByProviderID(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	d.touch(ctx, conv.ID)
	return msg, nil
}

func (d *Dispatcher) touch(ctx context.Context, conversationID int64) {
	if err := d.conversations.Touch(ctx, conversationID); err != nil {
		fmt.Printf("[Dispatch] Failed to touch conversation %d: %v\n", conversationID, err)
	}
}
