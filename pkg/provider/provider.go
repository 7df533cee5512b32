// Package provider defines the completion capability the relay depends on and
// an OpenAI-compatible implementation of it.
package provider

import (
	"context"
	"errors"
)

// Model is the fixed model every relayed message is completed with.
const Model = "gpt-4.1-mini-2025-04-14"

var (
	// ErrMissingAPIKey is returned by calls made without a configured credential.
	ErrMissingAPIKey = errors.New("the api_key client option must be set, either in the config file or via the OPEN_API_KEY environment variable")

	// ErrNoChoices is returned when the provider answers with zero completion choices.
	ErrNoChoices = errors.New("provider returned no completion choices")
)

// Completer turns one user message into the text of the first generated choice.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, message string) (string, error)

// Complete calls f(ctx, message).
func (f CompleterFunc) Complete(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}
