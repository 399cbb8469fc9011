package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
)

func TestUpsertConversationIdempotent(t *testing.T) {
	env := newTestEnv()
	rec := env.reconciler()
	ctx := context.Background()

	in := repo.ConversationUpsert{
		ExternalID: "ext-1",
		Type:       domain.ConversationTypeCustomer,
		CustomerID: "cust-1",
		Source:     "feishu",
	}

	first, err := rec.UpsertConversation(ctx, in)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := rec.UpsertConversation(ctx, in)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("upserts produced two rows: %d and %d", first.ID, second.ID)
	}
	if n := env.store.conversationCount(); n != 1 {
		t.Errorf("expected 1 conversation, got %d", n)
	}
}

func TestUpsertConversationFillOnceNeverOverwrites(t *testing.T) {
	env := newTestEnv()
	rec := env.reconciler()
	ctx := context.Background()

	if _, err := rec.UpsertConversation(ctx, repo.ConversationUpsert{
		ExternalID: "ext-1",
		Type:       domain.ConversationTypeCustomer,
		CustomerID: "cust-1",
		Source:     "feishu",
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	conv, err := rec.UpsertConversation(ctx, repo.ConversationUpsert{
		ExternalID: "ext-1",
		Type:       domain.ConversationTypeCustomer,
		CustomerID: "cust-other",
		Source:     "import",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if conv.CustomerID != "cust-1" {
		t.Errorf("customer overwritten: %q", conv.CustomerID)
	}
	if conv.Source != "feishu" {
		t.Errorf("source overwritten: %q", conv.Source)
	}
}

func TestUpsertConversationFillsEmptyFields(t *testing.T) {
	env := newTestEnv()
	rec := env.reconciler()
	ctx := context.Background()

	if _, err := rec.UpsertConversation(ctx, repo.ConversationUpsert{
		ExternalID: "ext-1",
		Type:       domain.ConversationTypeCustomer,
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	conv, err := rec.UpsertConversation(ctx, repo.ConversationUpsert{
		ExternalID: "ext-1",
		Type:       domain.ConversationTypeCustomer,
		CustomerID: "cust-1",
		Source:     "feishu",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if conv.CustomerID != "cust-1" {
		t.Errorf("customer not filled: %q", conv.CustomerID)
	}
	if conv.Source != "feishu" {
		t.Errorf("source not filled: %q", conv.Source)
	}
}

func TestUpsertConversationRequiresExternalID(t *testing.T) {
	env := newTestEnv()
	if _, err := env.reconciler().UpsertConversation(context.Background(), repo.ConversationUpsert{
		Type: domain.ConversationTypeCustomer,
	}); err == nil {
		t.Error("expected error for empty external id")
	}
}

func TestUpsertConversationConcurrent(t *testing.T) {
	env := newTestEnv()
	rec := env.reconciler()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rec.UpsertConversation(ctx, repo.ConversationUpsert{
				ExternalID: "ext-1",
				Type:       domain.ConversationTypeCustomer,
				CustomerID: "cust-1",
			})
			if err != nil {
				t.Errorf("UpsertConversation: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := env.store.conversationCount(); n != 1 {
		t.Errorf("expected 1 conversation after concurrent upserts, got %d", n)
	}
}

func TestRecordInboundIdempotent(t *testing.T) {
	env := newTestEnv()
	rec := env.reconciler()
	ctx := context.Background()

	in := InboundMessage{
		ExternalConversationID: "ext-1",
		ProviderMessageID:      "prov-1",
		Content:                domain.TextContent("hi"),
		AuthorType:             domain.AuthorTypeCustomer,
		AuthorID:               "cust-1",
		CustomerID:             "cust-1",
		Source:                 "feishu",
	}

	first, err := rec.RecordInbound(ctx, in)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	second, err := rec.RecordInbound(ctx, in)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("redelivered message created a second row: %d and %d", first.ID, second.ID)
	}
	if n := env.store.messagesWithProviderID("prov-1"); n != 1 {
		t.Errorf("expected 1 row for prov-1, got %d", n)
	}
}

func TestRecordInboundRequiresProviderID(t *testing.T) {
	env := newTestEnv()
	if _, err := env.reconciler().RecordInbound(context.Background(), InboundMessage{
		ExternalConversationID: "ext-1",
		Content:                domain.TextContent("hi"),
	}); err == nil {
		t.Error("expected error for empty provider message id")
	}
}
