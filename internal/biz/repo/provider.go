package repo

import (
	"context"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
)

// ProviderRepo is the outbound interface to the external messaging provider.
// Failures propagate to the caller unchanged; no retry happens at this layer.
type ProviderRepo interface {
	// PostMessage delivers content to the external conversation and returns
	// the provider-assigned message identity.
	PostMessage(ctx context.Context, externalConversationID string, content domain.MessageContent) (string, error)
}
