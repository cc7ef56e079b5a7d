package capture

import (
	"context"
	"time"

	"github.com/raysh454/hoarder-capture/internal/model"
)

// TabSource yields the active tab and its serialized document.
type TabSource interface {
	ActiveTab(ctx context.Context) (*model.Tab, error)
	OuterHTML(ctx context.Context, tab *model.Tab) (string, error)
}

// PageFetcher dereferences a user-supplied URL into HTML.
type PageFetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

// Collector is the remote collection service.
type Collector interface {
	Submit(ctx context.Context, req model.CaptureRequest) (*model.CaptureResult, error)
	Health(ctx context.Context) error
}

// Display is the UI surface the controller owns the text of. Implementations
// must not call back into the Controller.
type Display interface {
	SetSubmitEnabled(enabled bool)
	SetSubmitLabel(label string)
	ShowStatus(msg string, isError bool)
	HideStatus()
	SetConnection(text string)
	ClearURLInput()
	SetURLPlaceholder(text string)
}

// Clock schedules the status auto-clear.
type Clock interface {
	// AfterFunc runs f once d has elapsed; stop cancels it and reports
	// whether it did so before f ran.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// Recorder observes workflow outcomes, e.g. for metrics.
type Recorder interface {
	ObserveCapture(source, outcome string, elapsed time.Duration)
	ObserveHealth(connected bool)
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type nopRecorder struct{}

func (nopRecorder) ObserveCapture(string, string, time.Duration) {}
func (nopRecorder) ObserveHealth(bool)                           {}
