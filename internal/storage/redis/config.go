package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Namespace prefixes every key so several profiles can share one server
	Namespace string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// SessionTTL expires persisted credentials; zero keeps them until logout
	SessionTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		Namespace:    "ttt",
		PoolSize:     2,
		MinIdleConns: 0,
		SessionTTL:   0,
	}
}
