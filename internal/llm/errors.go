package llm

import (
	"fmt"
	"net/http"
)

// APIError represents an error returned by a completion provider API.
type APIError struct {
	// Provider is the name of the provider (e.g. "openai", "anthropic").
	Provider string
	// StatusCode is the HTTP status code, or 0 when no response arrived.
	StatusCode int
	// Message is the error message from the API.
	Message string
	// Type is the error type classification from the API.
	Type string
	// Code is the provider-specific error code, if any.
	Code string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsTransient returns true if the error may succeed on retry: rate
// limiting (429), server errors (5xx), and network errors (status 0).
func (e *APIError) IsTransient() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}
