package provider

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/chatrelay/pkg/config"
	"github.com/papercomputeco/chatrelay/pkg/llm"
)

// OpenAIClient completes messages against an OpenAI-compatible chat API.
type OpenAIClient struct {
	conf   config.ProviderConfig
	client *openai.Client
}

// NewOpenAIClient builds the SDK client once from conf. An empty API key is
// accepted; Complete then fails with ErrMissingAPIKey without any network call.
func NewOpenAIClient(conf config.ProviderConfig) *OpenAIClient {
	oc := openai.DefaultConfig(conf.APIKey)
	if conf.BaseURL != "" {
		oc.BaseURL = conf.BaseURL
	}

	// Per-call deadlines come from the request context.
	oc.HTTPClient = &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
	}

	return &OpenAIClient{
		conf:   conf,
		client: openai.NewClientWithConfig(oc),
	}
}

// Complete sends message as the single user message and returns choices[0]'s
// content. SDK errors are returned as-is so their text reaches the caller.
func (c *OpenAIClient) Complete(ctx context.Context, message string) (string, error) {
	if c.conf.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	msg := llm.NewUserMessage(message)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: msg.Role, Content: msg.Content},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
