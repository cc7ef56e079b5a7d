package app

import (
	"fmt"

	"github.com/raysh454/hoarder-capture/internal/browser"
	"github.com/raysh454/hoarder-capture/internal/collection"
	"github.com/raysh454/hoarder-capture/internal/fetcher"
	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/webclient"
)

// Components are the I/O pieces the capture controller runs on.
type Components struct {
	WebClient  webclient.WebClient
	Tabs       browser.TabSource
	Fetcher    *fetcher.Fetcher
	Collection *collection.Client
}

// NewComponents builds the web client, tab source, page fetcher and
// collection client described by cfg.
func NewComponents(cfg *Config, logger logging.Logger) (*Components, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	wc, err := webclient.NewNetHTTPClient(cfg.WebClient, logger, nil)
	if err != nil {
		return nil, fmt.Errorf("new webclient: %w", err)
	}

	tabs, err := browser.NewTabSource(cfg.Browser, logger)
	if err != nil {
		_ = wc.Close()
		return nil, fmt.Errorf("new tab source: %w", err)
	}

	f, err := fetcher.New(wc, logger)
	if err != nil {
		_ = tabs.Close()
		_ = wc.Close()
		return nil, fmt.Errorf("new fetcher: %w", err)
	}

	coll, err := collection.New(cfg.Collection, wc, logger)
	if err != nil {
		_ = tabs.Close()
		_ = wc.Close()
		return nil, fmt.Errorf("new collection client: %w", err)
	}

	return &Components{
		WebClient:  wc,
		Tabs:       tabs,
		Fetcher:    f,
		Collection: coll,
	}, nil
}

// Close releases the browser connection and idle HTTP connections.
func (c *Components) Close() error {
	var firstErr error
	if err := c.Tabs.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close tab source: %w", err)
	}
	if err := c.WebClient.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close webclient: %w", err)
	}
	return firstErr
}
