package fetcher

import (
	"context"
	"fmt"

	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/model"
	"github.com/raysh454/hoarder-capture/internal/webclient"
)

// Module: fetcher
// Dereferences a user-supplied URL into its HTML text, the way a browser
// fetch() followed by text() would.
type Fetcher struct {
	wc     webclient.WebClient
	logger logging.Logger
}

// New creates a Fetcher over the given webclient.
func New(wc webclient.WebClient, logger logging.Logger) (*Fetcher, error) {
	if wc == nil {
		return nil, fmt.Errorf("fetcher: webclient is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Fetcher{
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "fetcher"}),
	}, nil
}

// FetchHTML GETs pageURL. A transport failure is a *model.NetworkError and a
// non-2xx answer is a *model.FetchError; the body is returned untouched otherwise.
func (f *Fetcher) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	resp, err := f.wc.Get(ctx, pageURL)
	if err != nil {
		f.logger.Warn("error while fetching page",
			logging.Field{Key: "url", Value: pageURL},
			logging.Err(err))
		return "", &model.NetworkError{Op: "fetch", URL: pageURL, Err: err}
	}
	if !resp.OK() {
		f.logger.Warn("page fetch returned non-success status",
			logging.Field{Key: "url", Value: pageURL},
			logging.Field{Key: "status", Value: resp.StatusCode})
		return "", &model.FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	f.logger.Debug("fetched page",
		logging.Field{Key: "url", Value: pageURL},
		logging.Field{Key: "bytes", Value: len(resp.Body)})
	return string(resp.Body), nil
}
