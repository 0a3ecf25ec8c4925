package domain

// Chat roles understood by completion providers.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of a chat-completion exchange.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
