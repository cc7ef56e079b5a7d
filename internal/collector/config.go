package collector

import "github.com/raysh454/hoarder-capture/internal/logging"

// Config holds configuration for the collection service.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string

	// DSN selects the store, see OpenStore.
	DSN string

	Logger logging.Logger
}

// DefaultConfig matches the address the capture tool talks to by default.
func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8000",
		DSN:        "memory",
	}
}
