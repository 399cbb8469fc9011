package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/usecase"
	"github.com/nimbusdesk/inbox-bridge/internal/infra/feishu"
)

// FeishuServer subscribes to Feishu message events and records them
// into the local store through the reconciler.
type FeishuServer struct {
	feishuClient *feishu.Client
	reconciler   *usecase.Reconciler
	source       string

	// Message deduplication cache
	seenMsgsMu sync.RWMutex
	seenMsgs   map[string]time.Time // msgID -> timestamp
}

// NewFeishuServer creates a new Feishu server
func NewFeishuServer(feishuClient *feishu.Client, reconciler *usecase.Reconciler) *FeishuServer {
	return &FeishuServer{
		feishuClient: feishuClient,
		reconciler:   reconciler,
		source:       "feishu",
		seenMsgs:     make(map[string]time.Time),
	}
}

// Start starts the server
func (s *FeishuServer) Start() error {
	s.feishuClient.OnMessage(s.handleMessage)
	return s.feishuClient.Start()
}

// Stop stops the server
func (s *FeishuServer) Stop() {
	s.feishuClient.Stop()
}

// handleMessage records one Feishu message event. The provider retries
// delivery, so the same event can arrive more than once; the in-memory
// seen set filters fast repeats and the store dedupes the rest by
// provider message id.
func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	fmt.Printf("[Server] Received %s from %s (chatType=%s): %s\n",
		msg.MsgType, msg.ChatID, msg.ChatType, truncate(msg.Content, 50))

	if s.isMessageSeen(msg.MsgID) {
		fmt.Printf("[Server] Duplicate message ignored: %s\n", msg.MsgID)
		return
	}
	s.markMessageSeen(msg.MsgID)

	in := s.inboundFor(msg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.reconciler.RecordInbound(ctx, in); err != nil {
		fmt.Printf("[Server] Record inbound error: %v\n", err)
	}
}

// inboundFor maps a provider event onto a store record. Human senders
// are treated as customers and also link the conversation to them; app
// senders are echoes of our own or another bot's sends.
func (s *FeishuServer) inboundFor(msg *feishu.Message) usecase.InboundMessage {
	authorType := domain.AuthorTypeSystem
	customerID := ""
	if msg.SenderType == "user" {
		authorType = domain.AuthorTypeCustomer
		customerID = msg.SenderID
	}

	return usecase.InboundMessage{
		ExternalConversationID: msg.ChatID,
		ProviderMessageID:      msg.MsgID,
		Content:                domain.TextContent(msg.Content),
		AuthorType:             authorType,
		AuthorID:               msg.SenderID,
		CustomerID:             customerID,
		Source:                 s.source,
		Metadata: map[string]string{
			"chat_type": msg.ChatType,
			"msg_type":  msg.MsgType,
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// isMessageSeen checks if a message has been processed
func (s *FeishuServer) isMessageSeen(msgID string) bool {
	s.seenMsgsMu.RLock()
	defer s.seenMsgsMu.RUnlock()
	_, exists := s.seenMsgs[msgID]
	return exists
}

// markMessageSeen marks a message as processed
func (s *FeishuServer) markMessageSeen(msgID string) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	s.seenMsgs[msgID] = time.Now()

	// Clean up expired message records (older than 5 minutes)
	// Clean up when marking new messages to prevent memory leaks
	cutoff := time.Now().Add(-5 * time.Minute)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
