package model

import "strings"

// CaptureRequest is the payload submitted to the collection endpoint.
// PageHTML is always the HTML obtained for URL at capture time.
type CaptureRequest struct {
	URL      string `json:"url"`
	PageHTML string `json:"page_html"`
}

// CaptureResult is what the collection endpoint returns for a stored capture.
type CaptureResult struct {
	// PageID is the identifier as it appeared in the response (a JSON number
	// like 42 or a string), kept as text for display.
	PageID string `json:"page_id"`

	// URL and Message are echoed by services that follow the full response shape.
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

// Tab describes a browser tab as seen over the DevTools protocol.
type Tab struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// restrictedPrefixes lists URL prefixes whose documents a page script may not
// read: browser-internal pages and the extension gallery.
var restrictedPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"chrome-search://",
	"chrome-untrusted://",
	"devtools://",
	"edge://",
	"brave://",
	"about:",
	"view-source:",
	"https://chrome.google.com/webstore",
	"https://chromewebstore.google.com",
}

// Restricted reports whether the tab's document is off-limits to script injection.
func (t *Tab) Restricted() bool {
	if t == nil {
		return true
	}
	u := strings.ToLower(strings.TrimSpace(t.URL))
	if u == "" {
		return true
	}
	for _, p := range restrictedPrefixes {
		if strings.HasPrefix(u, p) {
			return true
		}
	}
	return false
}
