package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SigNoz/storefront-go-client/internal/models"
)

// ErrClosed is returned for requests issued after Close
var ErrClosed = errors.New("api client closed")

// APIError is a failed backend call. Status is 0 when no HTTP response was received.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Body    []byte
	Message string // human-readable message the backend provided, if any
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newStatusError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{
		Method: method,
		Path:   path,
		Status: status,
		Body:   body,
	}
	var envelope models.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			apiErr.Message = envelope.Error
		} else {
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsTransient reports whether a query may retry err: no HTTP status at all, or 503.
// Caller cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == 0 || apiErr.Status == http.StatusServiceUnavailable
}

// UserMessage returns the message the backend provided for display, or fallback.
// Raw payloads are never returned.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
