package usecase

import (
	"context"
	"fmt"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
)

// Reconciler merges provider-originated conversation and message state into
// the store. It is the write path behind webhook ingest and the second
// writer in the send/echo race.
type Reconciler struct {
	conversations repo.ConversationRepo
	messages      repo.MessageRepo
}

// NewReconciler creates a new conversation reconciler
func NewReconciler(conversations repo.ConversationRepo, messages repo.MessageRepo) *Reconciler {
	return &Reconciler{
		conversations: conversations,
		messages:      messages,
	}
}

// UpsertConversation create-or-fetches the conversation keyed on the
// candidate's external identity, then applies the fill-once fields (customer
// reference, source). Candidate fields are authoritative only at creation;
// on an existing row everything except a still-empty fill-once field is
// ignored.
//
// The follow-up updates are read-modify-write rather than one statement: the
// store's upsert cannot express "set X only when X is empty" atomically. The
// window is benign because the fields only ever move from empty to set.
func (r *Reconciler) UpsertConversation(ctx context.Context, in repo.ConversationUpsert) (*domain.Conversation, error) {
	if in.ExternalID == "" {
		return nil, fmt.Errorf("external conversation id required")
	}

	conv, err := r.conversations.UpsertByExternalID(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("upsert conversation: %w", err)
	}

	if conv.CustomerID == "" && in.CustomerID != "" {
		if err := r.conversations.SetCustomerID(ctx, conv.ID, in.CustomerID); err != nil {
			return nil, fmt.Errorf("set customer: %w", err)
		}
		conv.CustomerID = in.CustomerID
	}
	if conv.Source == "" && in.Source != "" {
		if err := r.conversations.SetSource(ctx, conv.ID, in.Source); err != nil {
			return nil, fmt.Errorf("set source: %w", err)
		}
		conv.Source = in.Source
	}

	return conv, nil
}

// InboundMessage is a provider-delivered message event.
type InboundMessage struct {
	ExternalConversationID string
	ProviderMessageID      string
	Content                domain.MessageContent
	AuthorType             domain.AuthorType
	AuthorID               string
	CustomerID             string
	Source                 string
	Metadata               map[string]string
}

// RecordInbound persists a webhook-delivered message: the conversation is
// upserted by its external identity, then the message by its provider
// identity. If the staff-initiated send of the same logical message already
// committed, the existing row comes back untouched.
func (r *Reconciler) RecordInbound(ctx context.Context, in InboundMessage) (*domain.Message, error) {
	if in.ProviderMessageID == "" {
		return nil, fmt.Errorf("provider message id required")
	}

	conv, err := r.UpsertConversation(ctx, repo.ConversationUpsert{
		ExternalID: in.ExternalConversationID,
		Type:       domain.ConversationTypeCustomer,
		CustomerID: in.CustomerID,
		Source:     in.Source,
	})
	if err != nil {
		return nil, err
	}

	msg, err := r.messages.UpsertByProviderID(ctx, repo.MessageCreate{
		ConversationID:    conv.ID,
		Content:           in.Content,
		AuthorType:        in.AuthorType,
		AuthorID:          in.AuthorID,
		ProviderMessageID: in.ProviderMessageID,
		Metadata:          in.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("persist inbound message: %w", err)
	}

	if err := r.conversations.Touch(ctx, conv.ID); err != nil {
		fmt.Printf("[Reconcile] Failed to touch conversation %d: %v\n", conv.ID, err)
	}

	return msg, nil
}
