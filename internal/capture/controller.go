// Package capture runs the capture-and-submit workflow: resolve a target
// page, submit it to the collection service, and keep the UI surface's text
// current, plus the independent liveness probe.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/model"
)

// UI text owned by the controller.
const (
	LabelIdle       = "Save Job Page"
	LabelBusy       = "Saving..."
	StatusFetching  = "Fetching page content..."
	Connected       = "Connected"
	FailedToConnect = "Failed to connect"

	// StatusClearDelay is how long a status message stays visible.
	StatusClearDelay = 5 * time.Second
)

// ErrBusy is returned by Run while another workflow is in flight.
var ErrBusy = errors.New("capture: a submission is already in progress")

// Source labels where a capture's HTML came from.
const (
	SourceTab = "tab"
	SourceURL = "url"
)

// Deps are the controller's collaborators. Tabs, Fetcher, Collector and
// Display are required.
type Deps struct {
	Tabs      TabSource
	Fetcher   PageFetcher
	Collector Collector
	Display   Display
	Clock     Clock
	Recorder  Recorder
	Logger    logging.Logger

	// StatusDelay overrides StatusClearDelay when positive.
	StatusDelay time.Duration
}

// Controller coordinates one capture workflow at a time.
type Controller struct {
	tabs      TabSource
	fetcher   PageFetcher
	collector Collector
	display   Display
	clock     Clock
	recorder  Recorder
	logger    logging.Logger
	delay     time.Duration

	busyMu sync.Mutex
	busy   bool

	// statusMu guards the status region and its pending clear.
	statusMu  sync.Mutex
	statusSeq uint64
	stopClear func() bool
}

// NewController validates deps and fills in defaults.
func NewController(d Deps) (*Controller, error) {
	switch {
	case d.Tabs == nil:
		return nil, fmt.Errorf("capture: tab source is required")
	case d.Fetcher == nil:
		return nil, fmt.Errorf("capture: page fetcher is required")
	case d.Collector == nil:
		return nil, fmt.Errorf("capture: collector is required")
	case d.Display == nil:
		return nil, fmt.Errorf("capture: display is required")
	}
	if d.Clock == nil {
		d.Clock = RealClock{}
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	if d.StatusDelay <= 0 {
		d.StatusDelay = StatusClearDelay
	}
	return &Controller{
		tabs:      d.Tabs,
		fetcher:   d.Fetcher,
		collector: d.Collector,
		display:   d.Display,
		clock:     d.Clock,
		recorder:  d.Recorder,
		logger:    d.Logger.With(logging.Field{Key: "component", Value: "capture"}),
		delay:     d.StatusDelay,
	}, nil
}

// ResolveTarget picks the page to capture. A non-blank customURL is fetched
// over HTTP and the active tab is left alone; a blank one means the active
// tab's URL and live document.
func (c *Controller) ResolveTarget(ctx context.Context, customURL string) (targetURL, html string, err error) {
	if u := strings.TrimSpace(customURL); u != "" {
		c.showStatus(StatusFetching, false)
		html, err := c.fetcher.FetchHTML(ctx, u)
		if err != nil {
			return "", "", err
		}
		return u, html, nil
	}

	tab, err := c.tabs.ActiveTab(ctx)
	if err != nil {
		return "", "", asTabAccess(nil, err)
	}
	html, err = c.tabs.OuterHTML(ctx, tab)
	if err != nil {
		return "", "", asTabAccess(tab, err)
	}
	return tab.URL, html, nil
}

// asTabAccess makes sure tab failures surface as *model.TabAccessError.
func asTabAccess(tab *model.Tab, err error) error {
	var tae *model.TabAccessError
	if errors.As(err, &tae) {
		return err
	}
	u := ""
	if tab != nil {
		u = tab.URL
	}
	return &model.TabAccessError{TabURL: u, Err: err}
}

// Submit sends the capture. html goes out exactly as given.
func (c *Controller) Submit(ctx context.Context, targetURL, html string) (*model.CaptureResult, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, &model.SubmissionError{Detail: "url is required"}
	}
	return c.collector.Submit(ctx, model.CaptureRequest{URL: targetURL, PageHTML: html})
}

// CheckHealth probes the liveness endpoint and returns the text to display.
// It never fails.
func (c *Controller) CheckHealth(ctx context.Context) (text string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("health probe panicked", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			text = FailedToConnect
		}
		c.recorder.ObserveHealth(text == Connected)
	}()

	if err := c.collector.Health(ctx); err != nil {
		c.logger.Info("collection service unreachable", logging.Err(err))
		return FailedToConnect
	}
	return Connected
}

// RefreshConnection runs CheckHealth and writes the result to the display.
func (c *Controller) RefreshConnection(ctx context.Context) string {
	text := c.CheckHealth(ctx)
	c.display.SetConnection(text)
	return text
}

// Prefill hints the active tab's URL in the input placeholder. Failures are
// logged and otherwise ignored.
func (c *Controller) Prefill(ctx context.Context) {
	tab, err := c.tabs.ActiveTab(ctx)
	if err != nil {
		c.logger.Warn("error getting current tab", logging.Err(err))
		return
	}
	c.display.SetURLPlaceholder("Leave blank to use: " + tab.URL)
}

// Load does what opening the popup does: placeholder prefill and the
// liveness probe, concurrently. It returns once both finished.
func (c *Controller) Load(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.Prefill(ctx)
	}()
	go func() {
		defer wg.Done()
		c.RefreshConnection(ctx)
	}()
	wg.Wait()
}

// Outcome is what a finished workflow displayed.
type Outcome struct {
	RunID   string
	Message string
	IsError bool
	Result  *model.CaptureResult
}

// Busy reports whether a workflow is in flight.
func (c *Controller) Busy() bool {
	c.busyMu.Lock()
	defer c.busyMu.Unlock()
	return c.busy
}

func (c *Controller) acquire() bool {
	c.busyMu.Lock()
	defer c.busyMu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Controller) release() {
	c.busyMu.Lock()
	c.busy = false
	c.busyMu.Unlock()
}

// Run is the submit-button handler. It returns ErrBusy without touching the
// display if a workflow is already running; otherwise every failure is
// turned into the displayed message and Run returns a nil error.
func (c *Controller) Run(ctx context.Context, customURL string) (Outcome, error) {
	if !c.acquire() {
		return Outcome{}, ErrBusy
	}
	defer c.release()
	return c.run(ctx, customURL), nil
}

// Start is Run in the background. The busy check happens before Start
// returns; the channel yields the outcome once and is then closed.
func (c *Controller) Start(ctx context.Context, customURL string) (<-chan Outcome, error) {
	if !c.acquire() {
		return nil, ErrBusy
	}
	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		defer c.release()
		done <- c.run(ctx, customURL)
	}()
	return done, nil
}

func (c *Controller) run(ctx context.Context, customURL string) Outcome {
	out := Outcome{RunID: uuid.NewString()}
	log := c.logger.With(logging.Field{Key: "run_id", Value: out.RunID})
	source := SourceTab
	if strings.TrimSpace(customURL) != "" {
		source = SourceURL
	}
	start := time.Now()

	c.display.SetSubmitEnabled(false)
	c.display.SetSubmitLabel(LabelBusy)
	defer func() {
		c.display.SetSubmitEnabled(true)
		c.display.SetSubmitLabel(LabelIdle)
	}()

	result, err := c.runSteps(ctx, customURL)
	if err != nil {
		out.Message, out.IsError = err.Error(), true
		log.Warn("capture failed", logging.Field{Key: "source", Value: source}, logging.Err(err))
		c.recorder.ObserveCapture(source, outcomeLabel(err), time.Since(start))
	} else {
		out.Result = result
		out.Message = fmt.Sprintf("✓ Saved! Page ID: %s", displayID(result.PageID))
		c.display.ClearURLInput()
		log.Info("capture saved", logging.Field{Key: "source", Value: source}, logging.Field{Key: "page_id", Value: result.PageID})
		c.recorder.ObserveCapture(source, "success", time.Since(start))
	}
	c.showStatus(out.Message, out.IsError)
	return out
}

// stepError carries the final user-facing text of a failed step.
type stepError struct {
	msg string
	err error
}

func (e *stepError) Error() string { return e.msg }
func (e *stepError) Unwrap() error { return e.err }

func (c *Controller) runSteps(ctx context.Context, customURL string) (result *model.CaptureResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &stepError{msg: fmt.Sprintf("Error: %v", r), err: fmt.Errorf("panic: %v", r)}
		}
	}()

	targetURL, html, err := c.ResolveTarget(ctx, customURL)
	if err != nil {
		return nil, &stepError{msg: resolveMessage(err), err: err}
	}
	result, err = c.Submit(ctx, targetURL, html)
	if err != nil {
		return nil, &stepError{msg: "Error: " + err.Error(), err: err}
	}
	return result, nil
}

func resolveMessage(err error) string {
	var fe *model.FetchError
	if errors.As(err, &fe) {
		return model.FetchFailedMessage
	}
	return err.Error()
}

func outcomeLabel(err error) string {
	var (
		tae *model.TabAccessError
		fe  *model.FetchError
		ne  *model.NetworkError
		se  *model.SubmissionError
	)
	switch {
	case errors.As(err, &tae):
		return "tab_access_error"
	case errors.As(err, &fe):
		return "fetch_error"
	case errors.As(err, &ne):
		return "network_error"
	case errors.As(err, &se):
		return "submission_error"
	default:
		return "error"
	}
}

func displayID(id string) string {
	if id == "" {
		return "unknown"
	}
	return id
}

// showStatus displays msg and schedules its removal. A newer message cancels
// the older message's pending removal.
func (c *Controller) showStatus(msg string, isError bool) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	if c.stopClear != nil {
		c.stopClear()
	}
	c.statusSeq++
	seq := c.statusSeq
	c.display.ShowStatus(msg, isError)
	c.stopClear = c.clock.AfterFunc(c.delay, func() {
		c.statusMu.Lock()
		defer c.statusMu.Unlock()
		if c.statusSeq == seq {
			c.display.HideStatus()
			c.stopClear = nil
		}
	})
}
