package servecmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatrelay/pkg/config"
	"github.com/papercomputeco/chatrelay/pkg/logger"
	"github.com/papercomputeco/chatrelay/pkg/provider"
	"github.com/papercomputeco/chatrelay/relay"
)

const serveLongDesc string = `Run the chat relay server.

Accepts POST /chat with {"message": "..."} and answers with the
provider's reply as {"reply": "..."}. The provider credential is read
once at startup from OPEN_API_KEY (or OPENAI_API_KEY), a .env file,
or the [provider] section of the config file.

Examples:
  chatrelay serve
  chatrelay serve --listen 0.0.0.0:5000 --debug
  chatrelay serve --config /etc/chatrelay.toml`

const serveShortDesc string = "Run the chat relay server"

const shutdownTimeout = 10 * time.Second

type serveCommander struct {
	configPath string
	listen     string
	timeout    time.Duration
	debug      bool
	noMetrics  bool
}

func NewServeCmd() *cobra.Command {
	return newServeCmd(&serveCommander{})
}

func newServeCmd(cmder *serveCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", config.DefaultListenAddr, "Address to listen on")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", config.DefaultProviderTimeout, "Timeout for each provider call")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&cmder.noMetrics, "no-metrics", false, "Do not expose GET /metrics")

	return cmd
}

// loadConfig merges explicitly set flags over the file and environment.
func (c *serveCommander) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = c.listen
	}
	if flags.Changed("timeout") {
		cfg.Provider.Timeout = c.timeout
	}
	if flags.Changed("debug") {
		cfg.Debug = c.debug
	}
	if flags.Changed("no-metrics") {
		cfg.Metrics = !c.noMetrics
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}

	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	log.Info("chatrelay starting",
		zap.String("listen", cfg.Listen),
		zap.String("model", provider.Model),
		zap.Bool("debug", cfg.Debug),
	)

	if !cfg.HasAPIKey() {
		log.Warn("no provider API key configured; chat requests will fail until one is set")
	}

	r, err := relay.New(relay.Config{
		ListenAddr:      cfg.Listen,
		ProviderTimeout: cfg.Provider.Timeout,
		Metrics:         cfg.Metrics,
	}, provider.NewOpenAIClient(cfg.Provider), log)
	if err != nil {
		return fmt.Errorf("could not create relay: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("relay server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down relay server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := r.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("could not shut down cleanly: %w", err)
	}

	return nil
}
