package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
	"github.com/nimbusdesk/inbox-bridge/internal/infra/feishu"
)

// providerRepo implements the outbound provider interface over the Feishu
// client
type providerRepo struct {
	client *feishu.Client
}

// NewProviderRepo creates a new provider repository
func NewProviderRepo(client *feishu.Client) repo.ProviderRepo {
	return &providerRepo{client: client}
}

// PostMessage delivers content to the external conversation and returns the
// provider-assigned message id. Non-text payloads fall back to their JSON
// rendering; Feishu only receives text from this system today.
func (r *providerRepo) PostMessage(ctx context.Context, externalConversationID string, content domain.MessageContent) (string, error) {
	text := content.Text
	if content.Type != domain.MessageContentText {
		b, err := json.Marshal(content)
		if err != nil {
			return "", fmt.Errorf("encode content: %w", err)
		}
		text = string(b)
	}
	return r.client.PostText(ctx, externalConversationID, text)
}
