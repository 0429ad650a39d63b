// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrClientClosed is returned from any fetch after Shutdown has been
// called, including fetches that were in flight at the time.
var ErrClientClosed = errors.New("Directory client has been shut down")

// ErrNotFound is returned when a directory document does not exist
// (HTTP 404).
type ErrNotFound struct {
	Href string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("No directory at %v", e.Href)
}

// ErrHTTPStatus is returned for any other unsuccessful HTTP response.
type ErrHTTPStatus struct {
	Href string
	Code int
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Sprintf("Fetching %v: %d %s", e.Href, e.Code, http.StatusText(e.Code))
}

// ErrFetch is returned when a directory could not be retrieved at
// all: the connection failed, the request timed out, or the response
// body could not be read.
type ErrFetch struct {
	Href string
	Err  error
}

func (e ErrFetch) Error() string {
	return fmt.Sprintf("Fetching %v: %v", e.Href, e.Err)
}

// Unwrap returns the underlying transport error.
func (e ErrFetch) Unwrap() error {
	return e.Err
}

// ErrParse is returned when a successful response does not contain a
// valid directory document.
type ErrParse struct {
	Href string
	Err  error
}

func (e ErrParse) Error() string {
	return fmt.Sprintf("Invalid directory at %v: %v", e.Href, e.Err)
}

// Unwrap returns the underlying decoding error.
func (e ErrParse) Unwrap() error {
	return e.Err
}

// IsTransient returns true if err is the sort of failure that might
// succeed if the same fetch were tried again: a transport failure or
// a server-side (5xx) error.
func IsTransient(err error) bool {
	var fetchErr ErrFetch
	if errors.As(err, &fetchErr) {
		return true
	}
	var statusErr ErrHTTPStatus
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}
	return false
}
