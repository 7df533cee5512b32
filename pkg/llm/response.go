package llm

// ChatResponse is the body returned by a successful POST /chat.
type ChatResponse struct {
	Reply string `json:"reply"` // Text content of the first completion choice
}
