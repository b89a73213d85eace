package feed

import (
	"fmt"

	"busmap.mbtatools.org/internal/utils"
)

// FetchError reports a network failure or a non-2xx response from an upstream endpoint.
// StatusCode is zero when no response was received.
type FetchError struct {
	Endpoint   string
	URL        string
	StatusCode int
	Err        error
}

// NewFetchError builds a FetchError, removing secrets from requestURL.
func NewFetchError(endpoint, requestURL string, statusCode int, err error) *FetchError {
	return &FetchError{
		Endpoint:   endpoint,
		URL:        utils.RedactURL(requestURL),
		StatusCode: statusCode,
		Err:        err,
	}
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s from %s: unexpected status %d", e.Endpoint, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s from %s: %v", e.Endpoint, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a payload that could not be decoded or lacks a required field.
type ParseError struct {
	Endpoint string
	URL      string
	Err      error
}

// NewParseError builds a ParseError, removing secrets from requestURL.
func NewParseError(endpoint, requestURL string, err error) *ParseError {
	return &ParseError{
		Endpoint: endpoint,
		URL:      utils.RedactURL(requestURL),
		Err:      err,
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response from %s: %v", e.Endpoint, e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
