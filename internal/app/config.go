package app

import (
	"os"
	"strconv"
	"time"

	"github.com/raysh454/hoarder-capture/internal/browser"
	"github.com/raysh454/hoarder-capture/internal/cli"
	"github.com/raysh454/hoarder-capture/internal/collection"
	"github.com/raysh454/hoarder-capture/internal/collector"
	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/popup"
	"github.com/raysh454/hoarder-capture/internal/webclient"
)

// Config contains the runtime configuration of the capture tool and the
// stand-in collection service.
type Config struct {
	Logging logging.Config

	// WebClient configuration, shared by the page fetcher and the
	// collection client.
	WebClient webclient.Config

	Browser    browser.Config
	Collection collection.Config

	// PopupAddr is where the popup page is served in popup mode.
	PopupAddr string

	// Collector configures cmd/collectord.
	Collector collector.Config
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: logging.Config{
			Backend: "zerolog",
			Level:   "info",
			Console: true,
		},
		WebClient:  webclient.DefaultConfig(),
		Browser:    browser.DefaultConfig(),
		Collection: collection.DefaultConfig(),
		PopupAddr:  popup.DefaultConfig().ListenAddr,
		Collector:  collector.DefaultConfig(),
	}
}

// LoadConfig returns the defaults overridden by the process environment.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv(os.Getenv)
	return cfg
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	c.Collection.SubmitURL = getEnv(getenv, "HOARDER_COLLECTION_URL", c.Collection.SubmitURL)
	c.Collection.HealthURL = getEnv(getenv, "HOARDER_HEALTH_URL", c.Collection.HealthURL)
	c.Browser.DevToolsURL = getEnv(getenv, "HOARDER_DEVTOOLS_URL", c.Browser.DevToolsURL)
	c.Browser.Backend = browser.Backend(getEnv(getenv, "HOARDER_BROWSER_BACKEND", string(c.Browser.Backend)))
	c.Logging.Level = getEnv(getenv, "HOARDER_LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv(getenv, "HOARDER_LOG_FILE", c.Logging.File)
	c.PopupAddr = getEnv(getenv, "HOARDER_POPUP_ADDR", c.PopupAddr)

	if secs := getEnvAsInt(getenv, "HOARDER_HTTP_TIMEOUT_SECONDS", -1); secs >= 0 {
		c.WebClient.Timeout = time.Duration(secs) * time.Second
	}

	c.Collector.ListenAddr = getEnv(getenv, "COLLECTOR_ADDR", c.Collector.ListenAddr)
	c.Collector.DSN = getEnv(getenv, "COLLECTOR_DSN", c.Collector.DSN)
}

// ApplyArgs lets command-line flags win over config and environment.
func (c *Config) ApplyArgs(args *cli.CLIArgs) {
	if args == nil {
		return
	}
	if args.CollectURL != "" {
		c.Collection.SubmitURL = args.CollectURL
	}
	if args.HealthURL != "" {
		c.Collection.HealthURL = args.HealthURL
	}
	if args.DevToolsURL != "" {
		c.Browser.DevToolsURL = args.DevToolsURL
	}
	if args.Browser != "" {
		c.Browser.Backend = browser.Backend(args.Browser)
	}
	if args.Listen != "" {
		c.PopupAddr = args.Listen
	}
}

func getEnv(getenv func(string) string, key, fallback string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(getenv func(string) string, key string, fallback int) int {
	valueStr := getEnv(getenv, key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
