package cli

import (
	"flag"
	"fmt"
	"strings"
)

// Modes the capture command can run in.
const (
	ModeSubmit = "submit"
	ModeHealth = "health"
	ModePopup  = "popup"
)

// CLIArgs are the command-line arguments of a single capture run. Empty
// strings mean "use config default".
type CLIArgs struct {
	// URL is the page to fetch and submit; empty captures the active tab.
	URL string

	// Mode is one of submit, health or popup.
	Mode string

	CollectURL  string
	HealthURL   string
	DevToolsURL string
	Browser     string
	Listen      string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	var (
		pageURL  = fs.String("url", "", "Job page URL to fetch and save (blank = active tab)")
		mode     = fs.String("mode", ModeSubmit, "Mode: submit|health|popup")
		collect  = fs.String("collect", "", "Collection endpoint (POST)")
		health   = fs.String("health", "", "Health endpoint (GET)")
		devtools = fs.String("devtools", "", "Chrome DevTools endpoint, e.g. http://127.0.0.1:9222")
		browser  = fs.String("browser", "", "Browser backend: chromedp|cdp")
		listen   = fs.String("listen", "", "Popup listen address (popup mode)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(nil)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	m := strings.ToLower(strings.TrimSpace(*mode))
	switch m {
	case ModeSubmit, ModeHealth, ModePopup:
	default:
		return nil, fmt.Errorf("unknown -mode %q (want submit, health or popup)", *mode)
	}

	return &CLIArgs{
		URL:         strings.TrimSpace(*pageURL),
		Mode:        m,
		CollectURL:  strings.TrimSpace(*collect),
		HealthURL:   strings.TrimSpace(*health),
		DevToolsURL: strings.TrimSpace(*devtools),
		Browser:     strings.ToLower(strings.TrimSpace(*browser)),
		Listen:      strings.TrimSpace(*listen),
		RawArgs:     args,
	}, nil
}
