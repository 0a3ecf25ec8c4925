package assist

import (
	"context"

	"github.com/docdex-io/docdex/internal/domain"
)

// stubPrefix opens every stub answer so callers can tell no external
// model was reached.
const stubPrefix = "[stub-model] Unable to contact external LLM. Input summary: "

const stubSummaryChars = 200

// StubCompleter is an offline completion provider. It answers with a
// truncated echo of the newest user message.
type StubCompleter struct{}

// Complete implements Completer without any network access.
func (StubCompleter) Complete(_ context.Context, messages []domain.ChatMessage) (string, error) {
	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.ChatRoleUser {
			last = messages[i].Content
			break
		}
	}
	summary := []rune(last)
	if len(summary) > stubSummaryChars {
		summary = summary[:stubSummaryChars]
	}
	return stubPrefix + string(summary), nil
}
