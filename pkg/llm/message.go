package llm

// RoleUser is the only role the relay ever sends upstream.
const RoleUser = "user"

// Message represents a single role-tagged message sent to the provider.
type Message struct {
	Role    string `json:"role"`    // always "user" for relayed messages
	Content string `json:"content"` // The message content, verbatim
}

// NewUserMessage wraps content as a user message without transforming it.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
