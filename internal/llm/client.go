// Package llm provides text-completion clients for the summarization
// pipeline. Each provider (OpenAI, Anthropic) implements the Completer
// interface over its raw HTTP API; prompt construction lives with the
// callers.
package llm

import (
	"context"
	"errors"
)

// Request is a single completion request: a system instruction, a user
// prompt, and generation bounds.
type Request struct {
	// System is the system-level instruction for the model.
	System string

	// User is the user prompt.
	User string

	// MaxTokens bounds the response length. Zero uses the provider default.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64
}

// Usage reports token consumption for one completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Result is the text returned by a completion call.
type Result struct {
	// Content is the generated text with surrounding whitespace trimmed.
	Content string

	// Model is the model that produced the completion.
	Model string

	// Usage reports token consumption.
	Usage Usage
}

// Completer is the interface all completion providers implement.
//
// Implementations must respect context cancellation, retry transient
// errors (429 and 5xx) up to their configured retry budget with backoff,
// and return *APIError for provider failures.
type Completer interface {
	// Complete sends one prompt to the provider and returns the generated
	// text.
	Complete(ctx context.Context, req Request) (*Result, error)

	// Provider returns the provider name (e.g. "openai", "anthropic").
	Provider() string

	// Model returns the model identifier in use.
	Model() string
}

// IsTransient reports whether err is an APIError worth retrying.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsTransient()
	}
	return false
}

// isTransientError is the internal alias used by the providers' retry
// loops.
func isTransientError(err error) bool {
	return IsTransient(err)
}
