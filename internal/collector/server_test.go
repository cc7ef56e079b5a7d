package collector_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raysh454/hoarder-capture/internal/collection"
	"github.com/raysh454/hoarder-capture/internal/collector"
	"github.com/raysh454/hoarder-capture/internal/model"
	"github.com/raysh454/hoarder-capture/internal/testutil"
	"github.com/raysh454/hoarder-capture/internal/webclient"
)

func newTestServer(t *testing.T, store collector.Store) *collector.Server {
	t.Helper()
	if store == nil {
		store = collector.NewMemoryStore()
	}
	s, err := collector.NewServer(collector.Config{Logger: &testutil.DummyLogger{}}, store)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

// ─── Root & CORS ───────────────────────────────────────────────────────

func TestServer_Root(t *testing.T) {
	t.Parallel()
	rec := doJSON(t, newTestServer(t, nil), "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" || body["message"] != "Job Scraper API is running" {
		t.Errorf("unexpected body %v", body)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}
}

func TestServer_Preflight(t *testing.T) {
	t.Parallel()
	rec := doJSON(t, newTestServer(t, nil), "OPTIONS", "/job-collection/page", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

// ─── Pages ─────────────────────────────────────────────────────────────

func TestServer_CreateAndGetPage(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec := doJSON(t, s, "POST", "/job-collection/page", `{"url":"https://jobs.example.com/1","page_html":"<html></html>"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var created collector.PageResponse
	decodeJSON(t, rec, &created)
	if created.PageID != 1 || created.URL != "https://jobs.example.com/1" || created.Message != "Job page saved successfully" {
		t.Errorf("unexpected response %+v", created)
	}

	var got collector.PageResponse
	decodeJSON(t, doJSON(t, s, "GET", "/job-collection/page/1", ""), &got)
	if got.PageID != 1 || got.Message != "Job page retrieved successfully" {
		t.Errorf("unexpected lookup %+v", got)
	}
}

func TestServer_CreatePage_Validation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tests := []struct {
		name, body, wantDetail string
	}{
		{"invalid json", `{invalid}`, "invalid JSON body"},
		{"missing url", `{"page_html":"<p/>"}`, "field required: url"},
		{"missing both", `{}`, "field required: url, page_html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, "POST", "/job-collection/page", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
			var body map[string]string
			decodeJSON(t, rec, &body)
			if body["detail"] != tt.wantDetail {
				t.Errorf("expected detail %q, got %q", tt.wantDetail, body["detail"])
			}
		})
	}
}

func TestServer_CreatePage_StoreFailure(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, failingStore{})

	rec := doJSON(t, s, "POST", "/job-collection/page", `{"url":"u","page_html":"h"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["detail"] != "Error saving job page: disk full" {
		t.Errorf("unexpected detail %q", body["detail"])
	}
}

func TestServer_GetPage_NotFound(t *testing.T) {
	t.Parallel()
	rec := doJSON(t, newTestServer(t, nil), "GET", "/job-collection/page/77", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["detail"] != "Job page with ID 77 not found" {
		t.Errorf("unexpected detail %q", body["detail"])
	}
}

func TestServer_GetPage_BadID(t *testing.T) {
	t.Parallel()
	rec := doJSON(t, newTestServer(t, nil), "GET", "/job-collection/page/abc", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestServer_ListPages(t *testing.T) {
	t.Parallel()
	store, err := collector.NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()
	s := newTestServer(t, store)

	doJSON(t, s, "POST", "/job-collection/page", `{"url":"https://a.example/","page_html":"<html><head><title> Staff Engineer </title></head></html>"}`)
	doJSON(t, s, "POST", "/job-collection/page", `{"url":"https://b.example/","page_html":"<body><h1>Go  Developer</h1></body>"}`)

	var list collector.PageListResponse
	decodeJSON(t, doJSON(t, s, "GET", "/job-collection/pages", ""), &list)
	if list.Total != 2 || len(list.Pages) != 2 {
		t.Fatalf("unexpected listing %+v", list)
	}
	if list.Pages[0].Title != "Staff Engineer" || list.Pages[1].Title != "Go Developer" {
		t.Errorf("unexpected titles %q, %q", list.Pages[0].Title, list.Pages[1].Title)
	}
}

func TestPageTitle(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":                                  "",
		"<title>Jobs</title><h1>Other</h1>": "Jobs",
		"<h1>\n Backend\n Engineer </h1>":   "Backend Engineer",
		"<p>no headings at all</p>":         "",
	}
	for html, want := range tests {
		if got := collector.PageTitle(html); got != want {
			t.Errorf("PageTitle(%q) = %q, want %q", html, got, want)
		}
	}
}

// ─── Round trip with the capture client ────────────────────────────────

func TestServer_RoundTripWithCollectionClient(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()

	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, nil, ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	client, err := collection.New(collection.Config{SubmitURL: ts.URL + "/job-collection/page", HealthURL: ts.URL + "/"}, wc, nil)
	if err != nil {
		t.Fatalf("collection.New: %v", err)
	}
	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	res, err := client.Submit(ctx, model.CaptureRequest{URL: "https://jobs.example.com/9", PageHTML: "<html>&<>é</html>"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.PageID != "1" || res.URL != "https://jobs.example.com/9" {
		t.Errorf("unexpected result %+v", res)
	}
}

type failingStore struct{}

func (failingStore) Create(context.Context, string, string) (*collector.Page, error) {
	return nil, errors.New("disk full")
}
func (failingStore) Get(context.Context, int64) (*collector.Page, error) {
	return nil, errors.New("disk full")
}
func (failingStore) List(context.Context) ([]*collector.Page, error) {
	return nil, errors.New("disk full")
}
func (failingStore) Close() error { return nil }
