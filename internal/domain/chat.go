package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the relay,
// the chat session and the gateway client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
