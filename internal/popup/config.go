package popup

import "github.com/raysh454/hoarder-capture/internal/logging"

type Config struct {
	// ListenAddr is where the popup page and its API are served.
	ListenAddr string
	Logger     logging.Logger
}

func DefaultConfig() Config {
	return Config{ListenAddr: "127.0.0.1:8765"}
}
