package browser_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/raysh454/hoarder-capture/internal/browser"
	"github.com/raysh454/hoarder-capture/internal/model"
	"github.com/raysh454/hoarder-capture/internal/testutil"
)

// cdpCall is one command a client sent to fakeChrome.
type cdpCall struct {
	Method    string
	SessionID string
	Params    json.RawMessage
}

// fakeChrome speaks just enough of the DevTools protocol for chromedp to
// attach to a tab and evaluate in it, and records every command.
type fakeChrome struct {
	srv  *httptest.Server
	html string

	mu    sync.Mutex
	calls []cdpCall
}

func newFakeChrome(t *testing.T, html string) *fakeChrome {
	t.Helper()
	f := &fakeChrome{html: html}
	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"Browser":"Chrome/140.0","webSocketDebuggerUrl":"ws://%s/devtools/browser/fake"}`, r.Host)
	})
	mux.HandleFunc("/devtools/browser/fake", f.serveWS)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeChrome) serveWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg struct {
			ID        int64           `json:"id"`
			SessionID string          `json:"sessionId"`
			Method    string          `json:"method"`
			Params    json.RawMessage `json:"params"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		f.mu.Lock()
		f.calls = append(f.calls, cdpCall{Method: msg.Method, SessionID: msg.SessionID, Params: msg.Params})
		f.mu.Unlock()

		reply := map[string]any{"id": msg.ID, "result": f.result(msg.Method, msg.Params)}
		if msg.SessionID != "" {
			reply["sessionId"] = msg.SessionID
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (f *fakeChrome) result(method string, params json.RawMessage) json.RawMessage {
	switch method {
	case "Target.getTargets":
		return json.RawMessage(`{"targetInfos":[
			{"targetId":"SW","type":"service_worker","title":"","url":"https://jobs.example.com/sw.js","attached":false,"canAccessOpener":false},
			{"targetId":"USERTAB","type":"page","title":"Go Engineer","url":"https://jobs.example.com/1","attached":false,"canAccessOpener":false}
		]}`)
	case "Target.attachToTarget":
		return json.RawMessage(`{"sessionId":"S1"}`)
	case "Page.getFrameTree":
		return json.RawMessage(`{"frameTree":{"frame":{"id":"USERTAB","loaderId":"L1","url":"https://jobs.example.com/1","securityOrigin":"https://jobs.example.com","mimeType":"text/html"}}}`)
	case "DOM.getDocument":
		return json.RawMessage(`{"root":{"nodeId":1,"backendNodeId":1,"nodeType":9,"nodeName":"#document","localName":"","nodeValue":""}}`)
	case "Runtime.evaluate":
		var p struct {
			Expression string `json:"expression"`
		}
		_ = json.Unmarshal(params, &p)
		if p.Expression != browser.SerializeDocument {
			return json.RawMessage(`{"result":{"type":"object","className":"Window"}}`)
		}
		value, _ := json.Marshal(f.html)
		return json.RawMessage(fmt.Sprintf(`{"result":{"type":"string","value":%s}}`, value))
	default:
		return json.RawMessage(`{}`)
	}
}

func (f *fakeChrome) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestChromedpSource_ActiveTabIsFirstPage(t *testing.T) {
	t.Parallel()
	chrome := newFakeChrome(t, "")

	src, err := browser.NewChromedpSource(browser.Config{DevToolsURL: chrome.srv.URL}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewChromedpSource: %v", err)
	}
	defer src.Close()

	tab, err := src.ActiveTab(context.Background())
	if err != nil {
		t.Fatalf("ActiveTab: %v", err)
	}
	if tab.ID != "USERTAB" || tab.URL != "https://jobs.example.com/1" || tab.Title != "Go Engineer" {
		t.Errorf("unexpected tab %+v", tab)
	}
	if contains(chrome.methods(), "Target.closeTarget") {
		t.Error("listing tabs closed a target")
	}
}

func TestChromedpSource_OuterHTMLLeavesTabOpen(t *testing.T) {
	t.Parallel()
	chrome := newFakeChrome(t, "<html>job</html>")

	src, err := browser.NewChromedpSource(browser.Config{DevToolsURL: chrome.srv.URL}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewChromedpSource: %v", err)
	}
	defer src.Close()

	html, err := src.OuterHTML(context.Background(), &model.Tab{ID: "USERTAB", URL: "https://jobs.example.com/1"})
	if err != nil {
		t.Fatalf("OuterHTML: %v", err)
	}
	if html != "<html>job</html>" {
		t.Errorf("unexpected html %q", html)
	}

	methods := chrome.methods()
	if !contains(methods, "Target.attachToTarget") {
		t.Errorf("expected an attach, got %v", methods)
	}
	if !contains(methods, "Target.detachFromTarget") {
		t.Errorf("expected a detach, got %v", methods)
	}
	if contains(methods, "Target.closeTarget") {
		t.Fatalf("reading the document closed the tab: %v", methods)
	}
}
