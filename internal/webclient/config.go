package webclient

import "time"

// Config tunes the net/http backed client.
type Config struct {
	// Timeout bounds every request. Zero leaves requests unbounded.
	Timeout time.Duration

	// UserAgent is sent when a request doesn't set its own.
	UserAgent string

	// RequestIDHeader names the header carrying a per-request id. Empty disables it.
	RequestIDHeader string
}

// DefaultConfig returns the client defaults used by the capture tools.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		UserAgent:       "hoarder-capture/1.0",
		RequestIDHeader: "X-Request-ID",
	}
}
