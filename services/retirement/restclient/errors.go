// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package restclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for client construction.
var (
	// ErrTokenAcquisition is returned when the client-credentials grant
	// fails. Nothing else is attempted after this.
	ErrTokenAcquisition = errors.New("oauth2 token acquisition failed")

	// ErrInvalidBaseURL is returned for an empty or unparseable base URL.
	ErrInvalidBaseURL = errors.New("invalid base URL")
)

// HTTPError is a non-2xx response from a remote service. Body carries the
// UTF-8 decoded response text so callers can record it in the response log.
type HTTPError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// IsNotFound reports whether err is an HTTP 404. Optional subsystems (the
// forum service is the canonical case) convert this to success.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// IsForbidden reports whether err is an HTTP 403, meaning the caller token
// lacks the required scope.
func IsForbidden(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusForbidden
}

// IsGatewayTimeout reports whether err is an HTTP 504. Gateway timeouts
// get a separate, shorter, constant-delay retry policy because the
// downstream side effect may have succeeded and must not be hammered.
func IsGatewayTimeout(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusGatewayTimeout
}

// IsRetryable reports whether err is a transient failure: HTTP 429, or a
// 5xx other than 504. 4xx errors other than 404 surface immediately.
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	if httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return httpErr.StatusCode >= 500 && httpErr.StatusCode != http.StatusGatewayTimeout
}
