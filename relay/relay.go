// Package relay provides the HTTP server that forwards chat messages to a
// completion provider and returns the generated reply.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatrelay/pkg/llm"
	"github.com/papercomputeco/chatrelay/pkg/provider"
)

const (
	errMissingMessage = "Missing message"
	errInvalidBody    = "Invalid request body"
)

// Relay is a stateless HTTP relay in front of a provider.Completer.
// Each request is validated, completed with a single provider call, and
// mapped to a JSON response; nothing is kept between requests.
type Relay struct {
	config    Config
	completer provider.Completer
	logger    *zap.Logger
	metrics   *metrics
	server    *fiber.App
}

// New creates a new Relay serving completions from completer.
func New(config Config, completer provider.Completer, logger *zap.Logger) (*Relay, error) {
	if completer == nil {
		return nil, errors.New("relay requires a completer")
	}
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = DefaultProviderTimeout
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		ErrorHandler:          jsonErrorHandler,
	})

	r := &Relay{
		config:    config,
		completer: completer,
		logger:    logger,
		metrics:   newMetrics(),
		server:    app,
	}

	app.Post("/chat", r.handleChat)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	if config.Metrics {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(r.metrics.registry, promhttp.HandlerOpts{}),
		))
	}

	return r, nil
}

// Run starts the relay server on the configured listening address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		zap.String("listen", r.config.ListenAddr),
		zap.Duration("provider_timeout", r.config.ProviderTimeout),
		zap.Bool("metrics", r.config.Metrics),
	)

	return r.server.Listen(r.config.ListenAddr)
}

// RunWithListener serves on an already bound listener.
func (r *Relay) RunWithListener(ln net.Listener) error {
	r.logger.Info("starting relay server", zap.String("listen", ln.Addr().String()))

	return r.server.Listener(ln)
}

// Shutdown stops the server, waiting for in-flight requests.
func (r *Relay) Shutdown() error {
	return r.server.Shutdown()
}

// ShutdownWithContext stops the server, giving up on in-flight requests when ctx ends.
func (r *Relay) ShutdownWithContext(ctx context.Context) error {
	return r.server.ShutdownWithContext(ctx)
}

// handleChat relays one message to the completer.
//
// A missing or empty "message" is answered with 400 before any provider call.
// Every completer failure is answered with 500 and the error's text, verbatim.
func (r *Relay) handleChat(c *fiber.Ctx) error {
	var req llm.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		r.logger.Debug("failed to parse request", zap.Error(err))
		return r.reply(c, fiber.StatusBadRequest, llm.ErrorResponse{Error: errInvalidBody})
	}

	if req.Message == "" {
		return r.reply(c, fiber.StatusBadRequest, llm.ErrorResponse{Error: errMissingMessage})
	}

	r.logger.Debug("received chat request",
		zap.Int("message_length", len(req.Message)),
		zap.String("message_preview", truncate(req.Message, 50)),
	)

	ctx, cancel := context.WithTimeout(c.UserContext(), r.config.ProviderTimeout)
	defer cancel()

	startTime := time.Now()
	text, err := r.completer.Complete(ctx, req.Message)
	duration := time.Since(startTime)
	r.metrics.observeProvider(err, duration)

	if err != nil {
		r.logger.Error("provider call failed",
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return r.reply(c, fiber.StatusInternalServerError, llm.ErrorResponse{Error: err.Error()})
	}

	r.logger.Debug("received reply from provider",
		zap.String("reply_preview", truncate(text, 100)),
		zap.Duration("duration", duration),
	)

	return r.reply(c, fiber.StatusOK, llm.ChatResponse{Reply: text})
}

// reply writes body as JSON with status and counts the response.
func (r *Relay) reply(c *fiber.Ctx, status int, body any) error {
	r.metrics.observeRequest(status)
	return c.Status(status).JSON(body)
}

// jsonErrorHandler keeps fiber's own errors (unknown route, wrong method,
// oversized body) in the same {"error": ...} shape as the relay's.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(llm.ErrorResponse{Error: err.Error()})
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
