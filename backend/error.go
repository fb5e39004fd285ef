package backend

import (
	"errors"
	"fmt"
)

// APIError is a non-success answer from an HTTP backend.
type APIError struct {
	// Backend names the service, e.g. "minimax" or "embedding"
	Backend string `json:"-"`

	// StatusCode is the service status code, or the HTTP status when the
	// body carried none
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
	TraceID    string `json:"trace_id,omitempty"`

	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string {
	if e.TraceID != "" {
		return fmt.Sprintf("%s: %s (code=%d, trace=%s)", e.Backend, e.StatusMsg, e.StatusCode, e.TraceID)
	}
	return fmt.Sprintf("%s: %s (code=%d)", e.Backend, e.StatusMsg, e.StatusCode)
}

// IsRateLimit reports a throttled request
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == 1002 || e.HTTPStatus == 429
}

// IsInvalidAPIKey reports rejected credentials
func (e *APIError) IsInvalidAPIKey() bool {
	return e.StatusCode == 1001 || e.HTTPStatus == 401
}

// IsServerError reports a failure on the service side
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 5000 || e.HTTPStatus >= 500
}

// Retryable reports whether the same request may succeed later
func (e *APIError) Retryable() bool {
	return e.IsRateLimit() || e.IsServerError()
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
