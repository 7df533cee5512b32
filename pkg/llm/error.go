// Package llm provides the wire representations of relay chat requests and
// responses, and the provider-side messages they are translated into.
package llm

// ErrorResponse is the body returned for any failed relay request.
type ErrorResponse struct {
	Error string `json:"error"`
}
