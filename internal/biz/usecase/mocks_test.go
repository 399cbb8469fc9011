package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
)

// memStore is an in-memory store implementing the conversation, message and
// staff-conversation repositories with the same keyed-upsert semantics as the
// SQL layer. It is safe for concurrent use so race tests can hit it from
// multiple goroutines.
type memStore struct {
	mu sync.Mutex

	convs          map[int64]*domain.Conversation
	convByExternal map[string]int64
	nextConvID     int64

	msgs          map[int64]*domain.Message
	msgByProvider map[string]int64
	nextMsgID     int64

	joins map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		convs:          make(map[int64]*domain.Conversation),
		convByExternal: make(map[string]int64),
		msgs:           make(map[int64]*domain.Message),
		msgByProvider:  make(map[string]int64),
		joins:          make(map[string]time.Time),
	}
}

func copyConv(c *domain.Conversation) *domain.Conversation {
	out := *c
	return &out
}

func copyMsg(m *domain.Message) *domain.Message {
	out := *m
	return &out
}

func (s *memStore) FindMany(ctx context.Context, q repo.ConversationQuery) ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []*domain.Conversation
	for _, c := range s.convs {
		if !q.Scope.Matches(c) {
			continue
		}
		if q.Filter.ID != nil && c.ID != *q.Filter.ID {
			continue
		}
		if q.Filter.Type != nil && c.Type != *q.Filter.Type {
			continue
		}
		if q.Filter.CustomerID != nil && c.CustomerID != *q.Filter.CustomerID {
			continue
		}
		rows = append(rows, c)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].UpdatedAt.Equal(rows[j].UpdatedAt) {
			return rows[i].UpdatedAt.After(rows[j].UpdatedAt)
		}
		return rows[i].ID > rows[j].ID
	})

	rows = page(rows, q.Limit, q.Offset)
	out := make([]domain.Conversation, 0, len(rows))
	for _, c := range rows {
		out = append(out, *copyConv(c))
	}
	return out, nil
}

func (s *memStore) Create(ctx context.Context, in repo.ConversationUpsert) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(in), nil
}

func (s *memStore) createLocked(in repo.ConversationUpsert) *domain.Conversation {
	s.nextConvID++
	now := time.Now()
	c := &domain.Conversation{
		ID:         s.nextConvID,
		ExternalID: in.ExternalID,
		Type:       in.Type,
		CustomerID: in.CustomerID,
		Source:     in.Source,
		Metadata:   in.Metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.convs[c.ID] = c
	if c.ExternalID != "" {
		s.convByExternal[c.ExternalID] = c.ID
	}
	return copyConv(c)
}

func (s *memStore) UpsertByExternalID(ctx context.Context, in repo.ConversationUpsert) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.convByExternal[in.ExternalID]; ok {
		return copyConv(s.convs[id]), nil
	}
	return s.createLocked(in), nil
}

func (s *memStore) SetCustomerID(ctx context.Context, id int64, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return errors.New("conversation not found")
	}
	c.CustomerID = customerID
	return nil
}

func (s *memStore) SetSource(ctx context.Context, id int64, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return errors.New("conversation not found")
	}
	c.Source = source
	return nil
}

func (s *memStore) Touch(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return errors.New("conversation not found")
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) FindManyMessages(ctx context.Context, q repo.MessageQuery) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []*domain.Message
	for _, m := range s.msgs {
		conv, ok := s.convs[m.ConversationID]
		if !ok || !q.Scope.Matches(conv) {
			continue
		}
		if q.Filter.ID != nil && m.ID != *q.Filter.ID {
			continue
		}
		if q.Filter.ConversationID != nil && m.ConversationID != *q.Filter.ConversationID {
			continue
		}
		if q.Filter.AuthorType != nil && m.AuthorType != *q.Filter.AuthorType {
			continue
		}
		rows = append(rows, m)
	}

	desc := q.Order == repo.SortDesc
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			if desc {
				return rows[i].CreatedAt.After(rows[j].CreatedAt)
			}
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		if desc {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].ID < rows[j].ID
	})

	rows = page(rows, q.Limit, q.Offset)
	out := make([]domain.Message, 0, len(rows))
	for _, m := range rows {
		out = append(out, *copyMsg(m))
	}
	return out, nil
}

func (s *memStore) CreateMessage(ctx context.Context, in repo.MessageCreate) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createMessageLocked(in), nil
}

func (s *memStore) createMessageLocked(in repo.MessageCreate) *domain.Message {
	s.nextMsgID++
	m := &domain.Message{
		ID:                s.nextMsgID,
		ConversationID:    in.ConversationID,
		Content:           in.Content,
		AuthorType:        in.AuthorType,
		AuthorID:          in.AuthorID,
		ProviderMessageID: in.ProviderMessageID,
		Metadata:          in.Metadata,
		CreatedAt:         time.Now(),
	}
	s.msgs[m.ID] = m
	if m.ProviderMessageID != "" {
		s.msgByProvider[m.ProviderMessageID] = m.ID
	}
	return copyMsg(m)
}

func (s *memStore) UpsertMessageByProviderID(ctx context.Context, in repo.MessageCreate) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.ProviderMessageID != "" {
		if id, ok := s.msgByProvider[in.ProviderMessageID]; ok {
			return copyMsg(s.msgs[id]), nil
		}
	}
	return s.createMessageLocked(in), nil
}

func (s *memStore) EnsureJoined(ctx context.Context, staffID string, conversationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s/%d", staffID, conversationID)
	if _, ok := s.joins[key]; !ok {
		s.joins[key] = time.Now()
	}
	return nil
}

func (s *memStore) joinCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.joins)
}

func (s *memStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *memStore) conversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

func (s *memStore) messagesWithProviderID(providerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.msgs {
		if m.ProviderMessageID == providerID {
			n++
		}
	}
	return n
}

func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// messageRepoAdapter exposes memStore under the MessageRepo method names.
type messageRepoAdapter struct {
	store *memStore
}

func (a *messageRepoAdapter) FindMany(ctx context.Context, q repo.MessageQuery) ([]domain.Message, error) {
	return a.store.FindManyMessages(ctx, q)
}

func (a *messageRepoAdapter) Create(ctx context.Context, in repo.MessageCreate) (*domain.Message, error) {
	return a.store.CreateMessage(ctx, in)
}

func (a *messageRepoAdapter) UpsertByProviderID(ctx context.Context, in repo.MessageCreate) (*domain.Message, error) {
	return a.store.UpsertMessageByProviderID(ctx, in)
}

// mockProvider is a scripted external provider.
type mockProvider struct {
	mu             sync.Mutex
	nextID         string
	err            error
	calls          int
	lastExternalID string
	lastContent    domain.MessageContent
}

func (p *mockProvider) PostMessage(ctx context.Context, externalConversationID string, content domain.MessageContent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastExternalID = externalConversationID
	p.lastContent = content
	if p.err != nil {
		return "", p.err
	}
	return p.nextID, nil
}

func (p *mockProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
