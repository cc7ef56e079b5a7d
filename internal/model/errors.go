package model

import (
	"errors"
	"fmt"
	"net/url"
)

// DefaultSubmissionDetail is used when a failed submission carries no detail.
const DefaultSubmissionDetail = "Failed to save job page"

// FetchFailedMessage is shown when a user-supplied URL answers with a non-2xx status.
const FetchFailedMessage = "Failed to fetch the specified URL"

// ErrNoActiveTab is wrapped by TabAccessError when the browser reports no page tab.
var ErrNoActiveTab = errors.New("no active tab")

// TabAccessError means the browser refused the tab query or the DOM read.
type TabAccessError struct {
	TabURL string
	Err    error
}

func (e *TabAccessError) Error() string {
	if e.TabURL != "" {
		return fmt.Sprintf("cannot access tab %s: %v", e.TabURL, e.Err)
	}
	return fmt.Sprintf("cannot access tab: %v", e.Err)
}

func (e *TabAccessError) Unwrap() error { return e.Err }

// FetchError means a GET of a user-supplied URL returned a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string { return FetchFailedMessage }

// NetworkError is a transport-level failure on any HTTP call.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

// Error is the transport failure itself, without the request wrapping
// layered on by the HTTP client.
func (e *NetworkError) Error() string {
	if e.Err == nil {
		return "network error"
	}
	var ue *url.Error
	if errors.As(e.Err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SubmissionError means the collection endpoint rejected a capture.
type SubmissionError struct {
	StatusCode int
	Detail     string
}

func (e *SubmissionError) Error() string {
	if e.Detail == "" {
		return DefaultSubmissionDetail
	}
	return e.Detail
}
