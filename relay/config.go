package relay

import "time"

// Config is the relay server configuration.
type Config struct {
	// Address to listen on (e.g., "127.0.0.1:5000")
	ListenAddr string

	// ProviderTimeout bounds each completion call. Zero uses DefaultProviderTimeout.
	ProviderTimeout time.Duration

	// Metrics mounts GET /metrics when set.
	Metrics bool
}

// DefaultProviderTimeout is used when Config.ProviderTimeout is unset.
const DefaultProviderTimeout = 60 * time.Second
