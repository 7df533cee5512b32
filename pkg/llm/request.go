package llm

// ChatRequest is the body accepted by POST /chat.
// A missing "message" key decodes to the empty string.
type ChatRequest struct {
	Message string `json:"message"`
}
