package sse

import "time"

// Config holds configuration for SSE connections, separating configuration
// concerns from handler logic.
type Config struct {
	// KeepAliveInterval is how often to send keep-alive pings to prevent
	// intermediary timeouts.
	KeepAliveInterval time.Duration
}

// DefaultConfig returns the default SSE configuration: 10 seconds is safe
// for most proxies and edge runtimes.
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
	}
}
