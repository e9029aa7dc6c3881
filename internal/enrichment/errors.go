package enrichment

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error returned by an oracle API.
type APIError struct {
	// Provider is the oracle name ("openai" or "anthropic").
	Provider string
	// StatusCode is the HTTP status code; 0 means no response was received.
	StatusCode int
	Message    string
	Type       string
	Code       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsTransient reports whether a retry may succeed: network errors, 429 and 5xx.
func (e *APIError) IsTransient() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

func isTransientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsTransient()
}
