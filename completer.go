package docdex

import (
	"context"
	"fmt"

	"github.com/docdex-io/docdex/internal/domain"
)

// Chat roles understood by Completer implementations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the exchange sent to a Completer.
type ChatMessage struct {
	Role    string
	Content string
}

// Completer generates the assistant reply behind Session.Ask. Wire one
// with WithCompleter; implementations typically call a chat completion
// API with the supplied messages.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// completerAdapter bridges the public Completer to the internal
// assist contract.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	converted := make([]ChatMessage, len(messages))
	for i, msg := range messages {
		converted[i] = ChatMessage{Role: msg.Role, Content: msg.Content}
	}
	reply, err := a.inner.Complete(ctx, converted)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return reply, nil
}
