package session

import "sync"

// Role classifies a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFeature   Role = "feature"
)

// Message is a single transcript entry. Feature names the pipeline
// feature that produced a feature-role message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Feature string `json:"feature,omitempty"`
}

// Transcript is the rolling conversation log of a session.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

// Append records a message.
func (t *Transcript) Append(role Role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, Message{Role: role, Content: content})
}

// AppendFeature records a feature-produced message.
func (t *Transcript) AppendFeature(feature, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, Message{Role: RoleFeature, Content: content, Feature: feature})
}

// Last returns the newest message.
func (t *Transcript) Last() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Len returns the number of recorded messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// Truncate keeps only the newest max messages. A non-positive max
// clears the transcript.
func (t *Transcript) Truncate(max int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if max <= 0 {
		t.messages = nil
		return
	}
	if len(t.messages) > max {
		t.messages = append([]Message(nil), t.messages[len(t.messages)-max:]...)
	}
}

// Clear drops all messages.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

// Context renders the transcript as chat-completion messages. Feature
// messages surface as assistant turns.
func (t *Transcript) Context() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	for i, msg := range t.messages {
		role := msg.Role
		if role == RoleFeature {
			role = RoleAssistant
		}
		out[i] = Message{Role: role, Content: msg.Content}
	}
	return out
}
