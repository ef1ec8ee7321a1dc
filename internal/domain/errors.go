package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions surfaced to the application shell.
var (
	// ErrInvalidQuery indicates malformed or empty user input. The user
	// corrects it; it is never retried automatically.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNoResults indicates a search that matched nothing. This is a valid
	// empty outcome, distinct from a transport failure.
	ErrNoResults = errors.New("no results")

	// ErrAPIUnavailable indicates a PubMed transport or HTTP failure.
	ErrAPIUnavailable = errors.New("pubmed api unavailable")

	// ErrCompletionUnavailable indicates a completion service failure after
	// the automatic retry was exhausted.
	ErrCompletionUnavailable = errors.New("completion service unavailable")

	// ErrMissingCredential indicates a required credential was absent at
	// startup. Fatal; the process must not start without it.
	ErrMissingCredential = errors.New("missing credential")
)

// ValidationError reports an invalid search input field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidQuery
}

// ExternalAPIError provides details about a PubMed API failure.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ExternalAPIError) Unwrap() error {
	return ErrAPIUnavailable
}

// CompletionError provides details about a completion service failure.
type CompletionError struct {
	Provider string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion failed: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *CompletionError) Unwrap() error {
	return ErrCompletionUnavailable
}

// MissingCredentialError names the credential that was not provided.
type MissingCredentialError struct {
	Name string
}

// Error implements the error interface.
func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("required credential %s is not set", e.Name)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MissingCredentialError) Unwrap() error {
	return ErrMissingCredential
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// NewCompletionError creates a new CompletionError.
func NewCompletionError(provider, message string, cause error) *CompletionError {
	return &CompletionError{Provider: provider, Message: message, Cause: cause}
}

// NewMissingCredentialError creates a new MissingCredentialError.
func NewMissingCredentialError(name string) *MissingCredentialError {
	return &MissingCredentialError{Name: name}
}
