package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/chatrelay/pkg/config"
	"github.com/papercomputeco/chatrelay/pkg/provider"
)

var _ = Describe("OpenAIClient", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		handler  http.HandlerFunc
		captured openai.ChatCompletionRequest
		authz    string
		calls    atomic.Int32
	)

	BeforeEach(func() {
		ctx = context.Background()
		captured = openai.ChatCompletionRequest{}
		authz = ""
		calls.Store(0)

		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"model": "gpt-4.1-mini-2025-04-14",
				"choices": [
					{"index": 0, "message": {"role": "assistant", "content": "Hi there!"}, "finish_reason": "stop"},
					{"index": 1, "message": {"role": "assistant", "content": "second"}, "finish_reason": "stop"}
				]
			}`))
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			authz = r.Header.Get("Authorization")
			if r.URL.Path == "/v1/chat/completions" {
				_ = json.NewDecoder(r.Body).Decode(&captured)
			}
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newClient := func(apiKey string) *provider.OpenAIClient {
		return provider.NewOpenAIClient(config.ProviderConfig{
			APIKey:  apiKey,
			BaseURL: server.URL + "/v1",
			Timeout: time.Second,
		})
	}

	It("returns the content of the first choice", func() {
		reply, err := newClient("sk-test").Complete(ctx, "Hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("Hi there!"))
	})

	It("sends a single verbatim user message to the fixed model with a bearer credential", func() {
		input := "  keep  \n whitespace\t"
		_, err := newClient("sk-test").Complete(ctx, input)
		Expect(err).NotTo(HaveOccurred())

		Expect(authz).To(Equal("Bearer sk-test"))
		Expect(captured.Model).To(Equal(provider.Model))
		Expect(captured.Messages).To(HaveLen(1))
		Expect(captured.Messages[0].Role).To(Equal(openai.ChatMessageRoleUser))
		Expect(captured.Messages[0].Content).To(Equal(input))
	})

	It("fails without a network call when no API key is configured", func() {
		_, err := newClient("").Complete(ctx, "Hello")
		Expect(err).To(MatchError(provider.ErrMissingAPIKey))
		Expect(calls.Load()).To(BeZero())
	})

	It("returns the provider's API error unwrapped", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
		}

		_, err := newClient("sk-bad").Complete(ctx, "Hello")
		Expect(err).To(HaveOccurred())

		var apiErr *openai.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.HTTPStatusCode).To(Equal(http.StatusUnauthorized))
		Expect(err.Error()).To(ContainSubstring("Incorrect API key provided"))
	})

	It("reports an empty choices list", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`))
		}

		_, err := newClient("sk-test").Complete(ctx, "Hello")
		Expect(err).To(MatchError(provider.ErrNoChoices))
	})

	It("honours the caller's deadline", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}

		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := newClient("sk-test").Complete(ctx, "Hello")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
	})
})

var _ = Describe("CompleterFunc", func() {
	It("adapts a function", func() {
		var got string
		c := provider.CompleterFunc(func(_ context.Context, message string) (string, error) {
			got = message
			return "pong", nil
		})

		reply, err := c.Complete(context.Background(), "ping")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("pong"))
		Expect(got).To(Equal("ping"))
	})
})
