package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/raysh454/hoarder-capture/internal/cli"
	"github.com/raysh454/hoarder-capture/internal/testutil"
)

// fakeCollectionAPI records submissions and answers like the real service.
func fakeCollectionAPI(t *testing.T, status int) (*httptest.Server, func() []map[string]string) {
	t.Helper()
	var (
		mu  sync.Mutex
		got []map[string]string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/job-collection/page", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		got = append(got, body)
		mu.Unlock()
		w.WriteHeader(status)
		if status == http.StatusOK {
			fmt.Fprint(w, `{"page_id":7,"url":"x","message":"Job page saved successfully"}`)
			return
		}
		fmt.Fprint(w, `{"detail":"duplicate page"}`)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, func() []map[string]string {
		mu.Lock()
		defer mu.Unlock()
		return append([]map[string]string(nil), got...)
	}
}

func newTestApp(t *testing.T, args *cli.CLIArgs, api string, out *bytes.Buffer) *Application {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Collection.SubmitURL = api + "/job-collection/page"
	cfg.Collection.HealthURL = api + "/"
	cfg.Browser.DevToolsURL = "http://127.0.0.1:1"

	a, err := NewApplication(cfg, args, &testutil.DummyLogger{}, out)
	if err != nil {
		t.Fatalf("NewApplication: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestApplication_SubmitCustomURL(t *testing.T) {
	t.Parallel()
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><h1>Platform Engineer</h1></html>")
	}))
	defer page.Close()
	api, got := fakeCollectionAPI(t, http.StatusOK)

	var out bytes.Buffer
	a := newTestApp(t, &cli.CLIArgs{Mode: cli.ModeSubmit, URL: page.URL + "/job"}, api.URL, &out)

	code, err := a.Run(context.Background())
	if err != nil || code != 0 {
		t.Fatalf("Run: code=%d err=%v output=%q", code, err, out.String())
	}
	if !strings.Contains(out.String(), "✓ Saved! Page ID: 7") {
		t.Errorf("unexpected output %q", out.String())
	}
	subs := got()
	if len(subs) != 1 || subs[0]["url"] != page.URL+"/job" || subs[0]["page_html"] != "<html><h1>Platform Engineer</h1></html>" {
		t.Errorf("unexpected submission %+v", subs)
	}
}

func TestApplication_SubmitRejected(t *testing.T) {
	t.Parallel()
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html></html>")
	}))
	defer page.Close()
	api, _ := fakeCollectionAPI(t, http.StatusConflict)

	var out bytes.Buffer
	a := newTestApp(t, &cli.CLIArgs{Mode: cli.ModeSubmit, URL: page.URL}, api.URL, &out)

	code, err := a.Run(context.Background())
	if err != nil || code != 1 {
		t.Fatalf("expected exit 1, got code=%d err=%v", code, err)
	}
	if !strings.Contains(out.String(), "Error: duplicate page") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestApplication_Health(t *testing.T) {
	t.Parallel()
	api, _ := fakeCollectionAPI(t, http.StatusOK)

	var out bytes.Buffer
	a := newTestApp(t, &cli.CLIArgs{Mode: cli.ModeHealth}, api.URL, &out)
	if code, _ := a.Run(context.Background()); code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "API: Connected") {
		t.Errorf("unexpected output %q", out.String())
	}

	var down bytes.Buffer
	b := newTestApp(t, &cli.CLIArgs{Mode: cli.ModeHealth}, "http://127.0.0.1:1", &down)
	if code, _ := b.Run(context.Background()); code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(down.String(), "API: Failed to connect") {
		t.Errorf("unexpected output %q", down.String())
	}
}

func TestApplication_ServePopupRequiresPopupMode(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	a := newTestApp(t, &cli.CLIArgs{Mode: cli.ModeSubmit}, "http://127.0.0.1:1", &out)
	if err := a.ServePopup(context.Background()); err == nil {
		t.Error("expected error outside popup mode")
	}
}

func TestNewApplication_UnknownBrowser(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	if _, err := NewApplication(cfg, &cli.CLIArgs{Mode: cli.ModeSubmit, Browser: "firefox"}, nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown browser backend")
	}
}
