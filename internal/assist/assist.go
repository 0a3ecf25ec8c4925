// Package assist answers questions about a session's documents through
// a chat-completion provider, grounding the prompt in retrieved chunks
// and the attachment digest.
package assist

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/session"
)

// FeatureName tags assist answers in the session transcript.
const FeatureName = "assist"

// DefaultContextChunks is how many retrieved chunks ground the prompt
// when the caller does not choose.
const DefaultContextChunks = 5

const systemPrompt = "You are a document assistant. Answer using only the supporting " +
	"documents and passages provided. When the context does not contain the answer, " +
	"say so instead of guessing."

// Completer produces a chat completion for the given messages.
type Completer interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// Answer is an assist result: the provider's answer plus the retrieved
// chunks that grounded it.
type Answer struct {
	Answer  string
	Sources []domain.SearchHit
}

// Service runs retrieval-grounded question answering over sessions.
type Service struct {
	completer Completer
	log       *zap.Logger
}

// New creates an assist service. A nil completer falls back to the
// offline stub.
func New(completer Completer, log *zap.Logger) *Service {
	if completer == nil {
		completer = StubCompleter{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{completer: completer, log: log}
}

// Ask retrieves the chunks most relevant to the question, folds them
// with the attachment digest and prior conversation into a prompt, and
// records the exchange in the session transcript. The transcript gains
// the raw question and the answer only after the provider succeeds.
func (s *Service) Ask(ctx context.Context, sess *session.Session, question string, topK int) (Answer, error) {
	question = strings.TrimSpace(question)
	if topK <= 0 {
		topK = DefaultContextChunks
	}
	hits, err := sess.Search(question, topK)
	if err != nil {
		return Answer{}, err
	}

	prompt := buildPrompt(sess.Digest(session.DigestChars), hits, question)

	history := sess.Transcript().Context()
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleSystem, Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, domain.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleUser, Content: prompt})

	answer, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return Answer{}, err
	}

	tr := sess.Transcript()
	tr.Append(session.RoleUser, question)
	tr.AppendFeature(FeatureName, answer)

	s.log.Debug("assist answered",
		zap.String("session_id", sess.ID()),
		zap.Int("sources", len(hits)))

	return Answer{Answer: answer, Sources: hits}, nil
}

// Health reports provider availability. Providers without a health
// check, the stub included, count as healthy.
func (s *Service) Health(ctx context.Context) error {
	if hc, ok := s.completer.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func buildPrompt(digest string, hits []domain.SearchHit, question string) string {
	var b strings.Builder
	if digest != "" {
		b.WriteString("Supporting documents summary:\n")
		b.WriteString(digest)
		b.WriteString("\n\n")
	}
	if len(hits) > 0 {
		b.WriteString("Relevant passages:\n")
		for i, hit := range hits {
			label := hit.Meta.SectionRank
			if label == "" {
				label = hit.Meta.SectionHeading
			}
			if label == "" {
				label = "General"
			}
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, label, hit.Chunk)
		}
		b.WriteString("\n")
	}
	b.WriteString("New user input: ")
	b.WriteString(question)
	return b.String()
}
