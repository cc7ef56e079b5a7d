package fetcher_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raysh454/hoarder-capture/internal/fetcher"
	"github.com/raysh454/hoarder-capture/internal/model"
	"github.com/raysh454/hoarder-capture/internal/testutil"
	"github.com/raysh454/hoarder-capture/internal/webclient"
)

func newFetcher(t *testing.T, ts *httptest.Server) *fetcher.Fetcher {
	t.Helper()
	var hc *http.Client
	if ts != nil {
		hc = ts.Client()
	}
	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, &testutil.DummyLogger{}, hc)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	f, err := fetcher.New(wc, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("fetcher.New: %v", err)
	}
	return f
}

func TestFetchHTML_ReturnsBodyVerbatim(t *testing.T) {
	t.Parallel()
	const page = "<html><body><h1>Staff Engineer</h1>é</body></html>"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		_, _ = io.WriteString(w, page)
	}))
	defer ts.Close()

	html, err := newFetcher(t, ts).FetchHTML(context.Background(), ts.URL+"/job/1")
	if err != nil {
		t.Fatalf("FetchHTML: %v", err)
	}
	if html != page {
		t.Errorf("expected %q, got %q", page, html)
	}
}

func TestFetchHTML_NonSuccessIsFetchError(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := newFetcher(t, ts).FetchHTML(context.Background(), ts.URL)
	var fe *model.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T %v", err, err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", fe.StatusCode)
	}
}

func TestFetchHTML_TransportFailureIsNetworkError(t *testing.T) {
	t.Parallel()
	_, err := newFetcher(t, nil).FetchHTML(context.Background(), "http://127.0.0.1:1/")
	var ne *model.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T %v", err, err)
	}
	if ne.Op != "fetch" {
		t.Errorf("expected op fetch, got %q", ne.Op)
	}
}

func TestNew_RejectsNilClient(t *testing.T) {
	t.Parallel()
	if _, err := fetcher.New(nil, nil); err == nil {
		t.Fatal("expected error for nil webclient")
	}
}

func TestFetchHTML_UsesGetOnTheGivenClient(t *testing.T) {
	t.Parallel()
	wc := &testutil.DummyWebClient{FailURLs: map[string]bool{"https://bad.example/": true}}
	f, err := fetcher.New(wc, nil)
	if err != nil {
		t.Fatalf("fetcher.New: %v", err)
	}

	html, err := f.FetchHTML(context.Background(), "https://jobs.example.com/3")
	if err != nil || html != "ok:https://jobs.example.com/3" {
		t.Fatalf("unexpected result %q (err=%v)", html, err)
	}
	if _, err := f.FetchHTML(context.Background(), "https://bad.example/"); err == nil {
		t.Fatal("expected error for failing url")
	}
	if len(wc.Requests) != 2 || wc.Requests[0].Method != "GET" {
		t.Errorf("unexpected requests %+v", wc.Requests)
	}
}
