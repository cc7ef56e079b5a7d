// Package collection talks to the remote collection service: it submits
// captures and probes the service's liveness endpoint.
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/model"
	"github.com/raysh454/hoarder-capture/internal/webclient"
)

// Config names the two endpoints of the collection service.
type Config struct {
	// SubmitURL receives POSTed captures.
	SubmitURL string

	// HealthURL answers 2xx while the service is reachable.
	HealthURL string
}

// DefaultConfig points at a collection service on localhost:8000.
func DefaultConfig() Config {
	return Config{
		SubmitURL: "http://localhost:8000/job-collection/page",
		HealthURL: "http://localhost:8000/",
	}
}

// Client submits captures to the collection service.
type Client struct {
	cfg    Config
	wc     webclient.WebClient
	logger logging.Logger
}

// New returns a Client using wc for transport.
func New(cfg Config, wc webclient.WebClient, logger logging.Logger) (*Client, error) {
	if wc == nil {
		return nil, fmt.Errorf("collection: webclient is nil")
	}
	if strings.TrimSpace(cfg.SubmitURL) == "" {
		return nil, fmt.Errorf("collection: submit url is required")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Client{
		cfg:    cfg,
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "collection"}),
	}, nil
}

func jsonHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return h
}

// encodeCapture renders exactly {"url":...,"page_html":...}. HTML escaping is
// off so the wire text matches what a browser's JSON.stringify produces.
func encodeCapture(req model.CaptureRequest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Submit POSTs req. A 2xx answer yields the parsed result. A non-2xx answer
// yields a *model.SubmissionError carrying the service's "detail" text when
// there is one. Transport failures are *model.NetworkError.
func (c *Client) Submit(ctx context.Context, req model.CaptureRequest) (*model.CaptureResult, error) {
	body, err := encodeCapture(req)
	if err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}

	c.logger.Info("submitting capture",
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "html_bytes", Value: len(req.PageHTML)})

	resp, err := c.wc.Do(ctx, &webclient.Request{
		Method:  http.MethodPost,
		URL:     c.cfg.SubmitURL,
		Headers: jsonHeaders(),
		Body:    body,
	})
	if err != nil {
		return nil, &model.NetworkError{Op: "submit", URL: c.cfg.SubmitURL, Err: err}
	}

	if !resp.OK() {
		detail := model.DefaultSubmissionDetail
		if gjson.ValidBytes(resp.Body) {
			if d := gjson.GetBytes(resp.Body, "detail"); d.Type == gjson.String && d.Str != "" {
				detail = d.Str
			}
		}
		c.logger.Warn("collection service rejected capture",
			logging.Field{Key: "status", Value: resp.StatusCode},
			logging.Field{Key: "detail", Value: detail})
		return nil, &model.SubmissionError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, &model.SubmissionError{
			StatusCode: resp.StatusCode,
			Detail:     "collection service returned an unreadable response",
		}
	}
	parsed := gjson.ParseBytes(resp.Body)
	result := &model.CaptureResult{
		PageID:  idText(parsed.Get("page_id")),
		URL:     parsed.Get("url").String(),
		Message: parsed.Get("message").String(),
	}
	c.logger.Info("capture saved", logging.Field{Key: "page_id", Value: result.PageID})
	return result, nil
}

// idText keeps numbers as written (42, not 42.000000) and strings unquoted.
func idText(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Null:
		return ""
	default:
		return r.Raw
	}
}

// Health GETs the liveness endpoint and reports nil for a 2xx answer.
// The body is never read.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.wc.Do(ctx, &webclient.Request{
		Method:  http.MethodGet,
		URL:     c.cfg.HealthURL,
		Headers: jsonHeaders(),
	})
	if err != nil {
		return &model.NetworkError{Op: "health", URL: c.cfg.HealthURL, Err: err}
	}
	if !resp.OK() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
