package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

// Message represents a received Feishu message event
type Message struct {
	ChatID     string
	MsgID      string
	MsgType    string // text, image, post
	ChatType   string // p2p (private), group
	Content    string // Text content extracted from the payload
	SenderID   string
	SenderType string // user, app
	CreateTime int64  // Milliseconds Unix timestamp from Feishu
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// Client is the Feishu API client
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	wsCli     *larkws.Client
	onMessage MessageHandler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start connects to Feishu via WebSocket and starts listening for message
// events. Blocks until the connection ends or Stop is called.
func (c *Client) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	// Register event handler
	// Note: Must return quickly so SDK can send ACK, otherwise Feishu will retry due to timeout
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			// Process message asynchronously, return immediately to let SDK send ACK
			go c.handleMessage(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	fmt.Println("[Feishu] Starting WebSocket connection...")

	// Start WebSocket (blocking)
	return c.wsCli.Start(c.ctx)
}

// Stop stops the event loop
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// handleMessage converts an incoming event and hands it to the handler
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	rawMsg := event.Event.Message
	if rawMsg == nil {
		return
	}

	msg := &Message{
		ChatID:  *rawMsg.ChatId,
		MsgID:   *rawMsg.MessageId,
		MsgType: *rawMsg.MessageType,
	}

	if rawMsg.ChatType != nil {
		msg.ChatType = *rawMsg.ChatType
	}
	if rawMsg.CreateTime != nil {
		// Feishu timestamp is a millisecond string
		if ts, err := strconv.ParseInt(*rawMsg.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}

	if event.Event.Sender != nil {
		if event.Event.Sender.SenderId != nil && event.Event.Sender.SenderId.OpenId != nil {
			msg.SenderID = *event.Event.Sender.SenderId.OpenId
		}
		if event.Event.Sender.SenderType != nil {
			msg.SenderType = *event.Event.Sender.SenderType
		}
	}

	msg.Content = parseContent(msg.MsgType, *rawMsg.Content)

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// PostText sends a text message to a chat and returns the provider-assigned
// message id. The per-request uuid lets Feishu deduplicate retried creates.
func (c *Client) PostText(ctx context.Context, chatID, text string) (string, error) {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Uuid(uuid.NewString()).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("send message error: %s", resp.Msg)
	}
	if resp.Data == nil || resp.Data.MessageId == nil {
		return "", fmt.Errorf("send message: response carries no message id")
	}

	return *resp.Data.MessageId, nil
}

// parseContent extracts readable text from a message payload
func parseContent(msgType, rawContent string) string {
	switch msgType {
	case "text":
		var parsed struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(rawContent), &parsed); err == nil {
			return parsed.Text
		}
	case "image":
		return "[Image]"
	case "file":
		return "[File]"
	case "audio":
		return "[Audio]"
	case "sticker":
		return "[Sticker]"
	}
	// Default: return raw content
	return rawContent
}
