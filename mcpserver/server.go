package mcpserver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/usecase"
)

// InboxMCPServer exposes the inbox to an agent over MCP. Every tool
// call runs as the staff member the server was started for, so the
// agent can never see past that staff member's authorization.
type InboxMCPServer struct {
	server  *mcp.Server
	ability *usecase.Ability
}

var (
	globalServer *InboxMCPServer
	serverMu     sync.Mutex
)

// NewServer creates a new inbox MCP server acting as the given staff member
func NewServer(ability *usecase.Ability) *InboxMCPServer {
	serverMu.Lock()
	defer serverMu.Unlock()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "inbox-tools",
		Version: "v1.0.0",
	}, nil)

	s := &InboxMCPServer{
		server:  server,
		ability: ability,
	}

	globalServer = s

	// Register tools
	s.registerTools()

	return s
}

// registerTools registers all inbox-related MCP tools
func (s *InboxMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inbox_whoami",
		Description: "Get the staff identity this server acts as, including its role.",
	}, handleWhoami)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inbox_list_conversations",
		Description: "List conversations visible to you, most recently active first. Optional filters: id, type (customer/internal), customer_id.",
	}, handleListConversations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inbox_list_messages",
		Description: "List messages from conversations visible to you. Optional filters: id, conversation_id, author_type (staff/customer/system). Order is asc or desc by creation time.",
	}, handleListMessages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inbox_send_message",
		Description: "Send a text message to a conversation as yourself. Joins you to the conversation and delivers to the external provider when the conversation is bridged.",
	}, handleSendMessage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inbox_join_conversation",
		Description: "Join a conversation so it appears among your conversations.",
	}, handleJoinConversation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inbox_add_staff",
		Description: "Add another staff member to a conversation. The target's own role must permit that conversation type.",
	}, handleAddStaff)
}

// ConversationInfo is the wire shape of a conversation
type ConversationInfo struct {
	ID         int64             `json:"id"`
	ExternalID string            `json:"external_id,omitempty"`
	Type       string            `json:"type"`
	CustomerID string            `json:"customer_id,omitempty"`
	Source     string            `json:"source,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	UpdatedAt  string            `json:"updated_at"`
}

// MessageInfo is the wire shape of a message
type MessageInfo struct {
	ID                int64  `json:"id"`
	ConversationID    int64  `json:"conversation_id"`
	Text              string `json:"text"`
	ContentType       string `json:"content_type"`
	AuthorType        string `json:"author_type"`
	AuthorID          string `json:"author_id,omitempty"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	CreatedAt         string `json:"created_at"`
}

func conversationInfo(c *domain.Conversation) ConversationInfo {
	return ConversationInfo{
		ID:         c.ID,
		ExternalID: c.ExternalID,
		Type:       string(c.Type),
		CustomerID: c.CustomerID,
		Source:     c.Source,
		Metadata:   c.Metadata,
		UpdatedAt:  c.UpdatedAt.Format(time.RFC3339),
	}
}

func messageInfo(m *domain.Message) MessageInfo {
	return MessageInfo{
		ID:                m.ID,
		ConversationID:    m.ConversationID,
		Text:              m.Content.Text,
		ContentType:       string(m.Content.Type),
		AuthorType:        string(m.AuthorType),
		AuthorID:          m.AuthorID,
		ProviderMessageID: m.ProviderMessageID,
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
	}
}

// errorString flattens tool errors; access denials come back as a
// stable message the agent can recognize.
func errorString(err error) string {
	if errors.Is(err, domain.ErrAccessDenied) {
		return "access denied"
	}
	return err.Error()
}

// WhoamiInput is empty - no input needed
type WhoamiInput struct{}

// WhoamiOutput describes the acting staff member
type WhoamiOutput struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

func handleWhoami(ctx context.Context, req *mcp.CallToolRequest, input WhoamiInput) (*mcp.CallToolResult, WhoamiOutput, error) {
	staff := globalServer.ability.Staff()
	return nil, WhoamiOutput{ID: staff.ID, Name: staff.Name, Type: string(staff.Type)}, nil
}

// ListConversationsInput is the input for list_conversations
type ListConversationsInput struct {
	ID         *int64  `json:"id,omitempty" jsonschema:"description=Filter to a single conversation id"`
	Type       *string `json:"type,omitempty" jsonschema:"description=Filter by conversation type: customer or internal"`
	CustomerID *string `json:"customer_id,omitempty" jsonschema:"description=Filter by linked customer id"`
	Limit      *int    `json:"limit,omitempty" jsonschema:"description=Page size, 1-100 (default 25)"`
	Offset     *int    `json:"offset,omitempty" jsonschema:"description=Rows to skip, 0-100"`
}

// ListConversationsOutput contains the visible conversations
type ListConversationsOutput struct {
	Conversations []ConversationInfo `json:"conversations"`
	Error         string             `json:"error,omitempty"`
}

func handleListConversations(ctx context.Context, req *mcp.CallToolRequest, input ListConversationsInput) (*mcp.CallToolResult, ListConversationsOutput, error) {
	args := usecase.ConversationListArgs{
		ID:         input.ID,
		CustomerID: input.CustomerID,
		Limit:      input.Limit,
		Offset:     input.Offset,
	}
	if input.Type != nil {
		ct := domain.ConversationType(*input.Type)
		args.Type = &ct
	}

	convs, err := globalServer.ability.GetConversations(ctx, args)
	if err != nil {
		return nil, ListConversationsOutput{Error: errorString(err)}, nil
	}

	out := ListConversationsOutput{Conversations: make([]ConversationInfo, 0, len(convs))}
	for i := range convs {
		out.Conversations = append(out.Conversations, conversationInfo(&convs[i]))
	}
	return nil, out, nil
}

// ListMessagesInput is the input for list_messages
type ListMessagesInput struct {
	ID             *int64  `json:"id,omitempty" jsonschema:"description=Filter to a single message id"`
	ConversationID *int64  `json:"conversation_id,omitempty" jsonschema:"description=Filter by conversation id"`
	AuthorType     *string `json:"author_type,omitempty" jsonschema:"description=Filter by author type: staff, customer or system"`
	Order          string  `json:"order,omitempty" jsonschema:"description=Sort by creation time: asc (default) or desc"`
	Limit          *int    `json:"limit,omitempty" jsonschema:"description=Page size, 1-100 (default 25)"`
	Offset         *int    `json:"offset,omitempty" jsonschema:"description=Rows to skip, 0-100"`
}

// ListMessagesOutput contains the visible messages
type ListMessagesOutput struct {
	Messages []MessageInfo `json:"messages"`
	Error    string        `json:"error,omitempty"`
}

func handleListMessages(ctx context.Context, req *mcp.CallToolRequest, input ListMessagesInput) (*mcp.CallToolResult, ListMessagesOutput, error) {
	args := usecase.MessageListArgs{
		ID:             input.ID,
		ConversationID: input.ConversationID,
		Order:          repo.SortOrder(input.Order),
		Limit:          input.Limit,
		Offset:         input.Offset,
	}
	if input.AuthorType != nil {
		at := domain.AuthorType(*input.AuthorType)
		args.AuthorType = &at
	}

	msgs, err := globalServer.ability.GetMessages(ctx, args)
	if err != nil {
		return nil, ListMessagesOutput{Error: errorString(err)}, nil
	}

	out := ListMessagesOutput{Messages: make([]MessageInfo, 0, len(msgs))}
	for i := range msgs {
		out.Messages = append(out.Messages, messageInfo(&msgs[i]))
	}
	return nil, out, nil
}

// SendMessageInput is the input for send_message
type SendMessageInput struct {
	ConversationID int64  `json:"conversation_id" jsonschema:"description=The conversation to send into"`
	Text           string `json:"text" jsonschema:"description=The message text to send"`
}

// SendMessageOutput is the output for send_message
type SendMessageOutput struct {
	Message *MessageInfo `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func handleSendMessage(ctx context.Context, req *mcp.CallToolRequest, input SendMessageInput) (*mcp.CallToolResult, SendMessageOutput, error) {
	msg, err := globalServer.ability.SendTextMessage(ctx, input.ConversationID, input.Text)
	if err != nil {
		return nil, SendMessageOutput{Error: errorString(err)}, nil
	}
	info := messageInfo(msg)
	return nil, SendMessageOutput{Message: &info}, nil
}

// JoinConversationInput is the input for join_conversation
type JoinConversationInput struct {
	ConversationID int64 `json:"conversation_id" jsonschema:"description=The conversation to join"`
}

// JoinConversationOutput is the output for join_conversation
type JoinConversationOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func handleJoinConversation(ctx context.Context, req *mcp.CallToolRequest, input JoinConversationInput) (*mcp.CallToolResult, JoinConversationOutput, error) {
	if err := globalServer.ability.JoinConversation(ctx, input.ConversationID); err != nil {
		return nil, JoinConversationOutput{Success: false, Error: errorString(err)}, nil
	}
	return nil, JoinConversationOutput{Success: true}, nil
}

// AddStaffInput is the input for add_staff
type AddStaffInput struct {
	ConversationID int64  `json:"conversation_id" jsonschema:"description=The conversation to add the staff member to"`
	StaffID        string `json:"staff_id" jsonschema:"description=The staff member to add"`
	StaffType      string `json:"staff_type" jsonschema:"description=The target's role: admin, agent or bot"`
}

// AddStaffOutput is the output for add_staff
type AddStaffOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func handleAddStaff(ctx context.Context, req *mcp.CallToolRequest, input AddStaffInput) (*mcp.CallToolResult, AddStaffOutput, error) {
	target := domain.Staff{
		ID:   input.StaffID,
		Type: domain.StaffType(input.StaffType),
	}
	if err := globalServer.ability.AddToConversation(ctx, input.ConversationID, target); err != nil {
		return nil, AddStaffOutput{Success: false, Error: errorString(err)}, nil
	}
	return nil, AddStaffOutput{Success: true}, nil
}

// Run starts the MCP server with stdio transport
func (s *InboxMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetServer returns the underlying MCP server
func (s *InboxMCPServer) GetServer() *mcp.Server {
	return s.server
}
