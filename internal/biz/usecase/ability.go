package usecase

import (
	"context"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
)

// Ability is the capability-scoped entry point into the conversation store.
// One value is constructed per authenticated staff principal; every read and
// write through it is bounded by that principal's role. Reads outside the
// principal's scope return nil/empty rather than an error, so callers cannot
// distinguish a conversation that does not exist from one they may not see.
type Ability struct {
	staff         domain.Staff
	conversations repo.ConversationRepo
	messages      repo.MessageRepo
	participants  repo.StaffConversationRepo
	dispatcher    *Dispatcher
}

// NewAbility creates the ability facade for a staff principal
func NewAbility(
	staff domain.Staff,
	conversations repo.ConversationRepo,
	messages repo.MessageRepo,
	participants repo.StaffConversationRepo,
	dispatcher *Dispatcher,
) *Ability {
	return &Ability{
		staff:         staff,
		conversations: conversations,
		messages:      messages,
		participants:  participants,
		dispatcher:    dispatcher,
	}
}

// Staff returns the principal this ability is bound to.
func (a *Ability) Staff() domain.Staff {
	return a.staff
}

// ConversationListArgs are the caller-supplied filters for conversation
// reads. Nil fields are absent and never become constraints.
type ConversationListArgs struct {
	ID         *int64
	Type       *domain.ConversationType
	CustomerID *string
	Limit      *int
	Offset     *int
}

// GetConversations returns the conversations visible to the principal that
// match the given filters, ordered by most recently updated.
func (a *Ability) GetConversations(ctx context.Context, args ConversationListArgs) ([]domain.Conversation, error) {
	limit, offset := NormalizePage(args.Limit, args.Offset)
	return a.conversations.FindMany(ctx, repo.ConversationQuery{
		Scope: ConversationScopeFor(&a.staff),
		Filter: repo.ConversationFilter{
			ID:         args.ID,
			Type:       args.Type,
			CustomerID: args.CustomerID,
		},
		Limit:  limit,
		Offset: offset,
	})
}

// GetConversationByID returns a single visible conversation, or nil when it
// is absent or out of scope.
func (a *Ability) GetConversationByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	one := 1
	convs, err := a.GetConversations(ctx, ConversationListArgs{ID: &id, Limit: &one})
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, nil
	}
	return &convs[0], nil
}

// MessageListArgs are the caller-supplied filters for message reads. Order
// defaults to ascending creation time when empty.
type MessageListArgs struct {
	ID             *int64
	ConversationID *int64
	AuthorType     *domain.AuthorType
	Order          repo.SortOrder
	Limit          *int
	Offset         *int
}

// GetMessages returns messages scoped transitively through their owning
// conversation: only messages of conversations the principal may read come
// back.
func (a *Ability) GetMessages(ctx context.Context, args MessageListArgs) ([]domain.Message, error) {
	limit, offset := NormalizePage(args.Limit, args.Offset)
	order := args.Order
	if order == "" {
		order = repo.SortAsc
	}
	return a.messages.FindMany(ctx, repo.MessageQuery{
		Scope: ConversationScopeFor(&a.staff),
		Filter: repo.MessageFilter{
			ID:             args.ID,
			ConversationID: args.ConversationID,
			AuthorType:     args.AuthorType,
		},
		Order:  order,
		Limit:  limit,
		Offset: offset,
	})
}

// GetMessageByID returns a single visible message, or nil when it is absent
// or out of scope.
func (a *Ability) GetMessageByID(ctx context.Context, id int64) (*domain.Message, error) {
	one := 1
	msgs, err := a.GetMessages(ctx, MessageListArgs{ID: &id, Limit: &one})
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

// AddToConversation adds the target staff member to a conversation. Two
// independent checks must both pass: the acting principal must be able to
// see the conversation, and the conversation's type must be one the target
// principal is permitted to join. The join row is created idempotently.
func (a *Ability) AddToConversation(ctx context.Context, conversationID int64, target domain.Staff) error {
	conv, err := a.GetConversationByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return domain.ErrAccessDenied
	}
	return a.addJoined(ctx, conv, target)
}

func (a *Ability) addJoined(ctx context.Context, conv *domain.Conversation, target domain.Staff) error {
	if !canJoin(&target, conv.Type) {
		return domain.ErrAccessDenied
	}
	return a.participants.EnsureJoined(ctx, target.ID, conv.ID)
}

// JoinConversation adds the acting principal itself to the conversation.
func (a *Ability) JoinConversation(ctx context.Context, conversationID int64) error {
	return a.AddToConversation(ctx, conversationID, a.staff)
}

// SendMessage sends content to a conversation as the acting principal.
// Sending implies joining: the principal's participation row is ensured
// before dispatch. Delivery and persistence are the dispatcher's job.
func (a *Ability) SendMessage(ctx context.Context, conversationID int64, content domain.MessageContent) (*domain.Message, error) {
	conv, err := a.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrAccessDenied
	}
	if err := a.addJoined(ctx, conv, a.staff); err != nil {
		return nil, err
	}
	return a.dispatcher.Dispatch(ctx, a.staff, conv, content)
}

// SendTextMessage sends a plain text message.
func (a *Ability) SendTextMessage(ctx context.Context, conversationID int64, text string) (*domain.Message, error) {
	return a.SendMessage(ctx, conversationID, domain.TextContent(text))
}
