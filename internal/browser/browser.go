// Package browser reads the user's active tab over the Chrome DevTools
// protocol: its URL, and its serialized DOM as a page script would see it.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/raysh454/hoarder-capture/internal/model"
)

// SerializeDocument is evaluated inside the tab to read its DOM.
const SerializeDocument = `document.documentElement.outerHTML`

// TabSource is the browser tab capability the capture controller needs.
type TabSource interface {
	// ActiveTab returns the tab the user is looking at. When the browser
	// reports no page tab the error wraps model.ErrNoActiveTab.
	ActiveTab(ctx context.Context) (*model.Tab, error)

	// OuterHTML serializes the tab's document.
	OuterHTML(ctx context.Context, tab *model.Tab) (string, error)

	Close() error
}

type Backend string

const (
	BackendChromedp Backend = "chromedp"
	BackendCDP      Backend = "cdp"
)

// Config tells a backend where the browser's DevTools endpoint lives.
type Config struct {
	Backend Backend

	// DevToolsURL is the remote debugging endpoint, e.g. http://127.0.0.1:9222.
	DevToolsURL string

	// EvalTimeout bounds a single DOM read. Zero means no bound.
	EvalTimeout time.Duration
}

// DefaultConfig targets a local Chrome started with --remote-debugging-port=9222.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendChromedp,
		DevToolsURL: "http://127.0.0.1:9222",
		EvalTimeout: 15 * time.Second,
	}
}

func withEvalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// tabAccess wraps err as a *model.TabAccessError for tab.
func tabAccess(tab *model.Tab, err error) error {
	u := ""
	if tab != nil {
		u = tab.URL
	}
	return &model.TabAccessError{TabURL: u, Err: err}
}

// ErrRestrictedPage is wrapped by TabAccessError for browser-internal pages.
var ErrRestrictedPage = errors.New("script injection is not allowed on this page")
