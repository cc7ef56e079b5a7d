// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/model"
	"github.com/raysh454/hoarder-capture/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// By default it returns body "ok:<url>" with status 200.
// Set FailURLs[url] = true to force an error for a specific URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	return &webclient.Response{
		Request:    req,
		Body:       []byte("ok:" + req.URL),
		StatusCode: 200,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// ─── Tabs ──────────────────────────────────────────────────────────────

// FakeTabSource serves a fixed active tab.
type FakeTabSource struct {
	Tab       *model.Tab
	HTML      string
	ActiveErr error
	HTMLErr   error

	mu         sync.Mutex
	ActiveHits int
	HTMLHits   int
}

func (f *FakeTabSource) ActiveTab(context.Context) (*model.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ActiveHits++
	if f.ActiveErr != nil {
		return nil, f.ActiveErr
	}
	if f.Tab == nil {
		return nil, &model.TabAccessError{Err: model.ErrNoActiveTab}
	}
	cp := *f.Tab
	return &cp, nil
}

func (f *FakeTabSource) OuterHTML(context.Context, *model.Tab) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HTMLHits++
	if f.HTMLErr != nil {
		return "", f.HTMLErr
	}
	return f.HTML, nil
}

func (f *FakeTabSource) Close() error { return nil }

// Hits returns how often ActiveTab and OuterHTML were called.
func (f *FakeTabSource) Hits() (active, html int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ActiveHits, f.HTMLHits
}

// ─── Fetcher ───────────────────────────────────────────────────────────

// FakeFetcher returns Pages[url], or Err when set.
type FakeFetcher struct {
	Pages map[string]string
	Err   error

	mu   sync.Mutex
	URLs []string
}

func (f *FakeFetcher) FetchHTML(_ context.Context, pageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.URLs = append(f.URLs, pageURL)
	if f.Err != nil {
		return "", f.Err
	}
	if html, ok := f.Pages[pageURL]; ok {
		return html, nil
	}
	return "", &model.FetchError{URL: pageURL, StatusCode: 404}
}

// ─── Collector ─────────────────────────────────────────────────────────

// FakeCollector records submissions. Block, when non-nil, holds Submit
// until it is closed.
type FakeCollector struct {
	Result    *model.CaptureResult
	SubmitErr error
	HealthErr error
	Block     chan struct{}

	mu          sync.Mutex
	Submitted   []model.CaptureRequest
	HealthCalls int
}

func (f *FakeCollector) Submit(ctx context.Context, req model.CaptureRequest) (*model.CaptureResult, error) {
	f.mu.Lock()
	f.Submitted = append(f.Submitted, req)
	block := f.Block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, &model.NetworkError{Op: "submit", URL: req.URL, Err: ctx.Err()}
		}
	}
	if f.SubmitErr != nil {
		return nil, f.SubmitErr
	}
	if f.Result != nil {
		cp := *f.Result
		return &cp, nil
	}
	return &model.CaptureResult{PageID: "1"}, nil
}

func (f *FakeCollector) Health(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HealthCalls++
	return f.HealthErr
}

// Submissions returns a copy of what Submit received.
func (f *FakeCollector) Submissions() []model.CaptureRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CaptureRequest(nil), f.Submitted...)
}

// ─── Clock ─────────────────────────────────────────────────────────────

// ManualClock fires scheduled callbacks only when Advance moves past their
// deadline.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*manualTimer
}

type manualTimer struct {
	at time.Duration
	id int
	f  func()
}

func NewManualClock() *ManualClock {
	return &ManualClock{timers: make(map[int]*manualTimer)}
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.timers[id] = &manualTimer{at: c.now + d, id: id, f: f}
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.timers[id]; !ok {
			return false
		}
		delete(c.timers, id)
		return true
	}
}

// Advance moves the clock forward by d and runs every callback that came
// due, in deadline order, outside the clock's lock.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for id, t := range c.timers {
		if t.at <= c.now {
			due = append(due, t)
			delete(c.timers, id)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].id < due[j].id
		}
		return due[i].at < due[j].at
	})
	for _, t := range due {
		t.f()
	}
}

// Pending reports how many callbacks are scheduled.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
