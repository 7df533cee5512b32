// Package config loads the chatrelay process configuration.
//
// Values are layered: built-in defaults, then an optional TOML file, then the
// process environment (including a .env file in the working directory, if
// present). CLI flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// DefaultListenAddr matches the port the relay has always served on.
	DefaultListenAddr = "127.0.0.1:5000"

	// DefaultProviderTimeout bounds a single completion call.
	DefaultProviderTimeout = 60 * time.Second
)

// Config is the full process configuration.
type Config struct {
	// Address to listen on (e.g., "127.0.0.1:5000")
	Listen string `toml:"listen"`

	// Debug enables debug logging.
	Debug bool `toml:"debug"`

	// Metrics exposes GET /metrics.
	Metrics bool `toml:"metrics"`

	Provider ProviderConfig `toml:"provider"`
}

// ProviderConfig configures the upstream chat-completion provider.
type ProviderConfig struct {
	// APIKey is the bearer credential. It may be empty; calls then fail per request.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible). Empty uses the SDK default.
	BaseURL string `toml:"base_url"`

	// Timeout bounds each provider call.
	Timeout time.Duration `toml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:  DefaultListenAddr,
		Metrics: true,
		Provider: ProviderConfig{
			Timeout: DefaultProviderTimeout,
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path (skipped
// when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("could not decode config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file: %w", err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides fields from environment variables looked up with getenv.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
	if v := getenv("CHATRELAY_LISTEN"); v != "" {
		c.Listen = v
	}

	// OPEN_API_KEY is the name deployed relays already use.
	if v := getenv("OPEN_API_KEY"); v != "" {
		c.Provider.APIKey = v
	} else if v := getenv("OPENAI_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}

	if v := getenv("OPENAI_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}

	if v := getenv("CHATRELAY_PROVIDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CHATRELAY_PROVIDER_TIMEOUT %q: %w", v, err)
		}
		c.Provider.Timeout = d
	}

	if v := getenv("CHATRELAY_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CHATRELAY_DEBUG %q: %w", v, err)
		}
		c.Debug = b
	}

	if v := getenv("CHATRELAY_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CHATRELAY_METRICS %q: %w", v, err)
		}
		c.Metrics = b
	}

	return nil
}

// Validate reports configuration that cannot run a server.
// A missing API key is not an error; provider calls fail per request instead.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.Provider.Timeout)
	}
	return nil
}

// HasAPIKey reports whether a provider credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.Provider.APIKey != ""
}
