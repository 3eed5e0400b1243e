package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown file format or normaliser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Configuration errors. Never retried.

	// ErrInvalidConfig indicates a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingAPIKey indicates the selected provider needs an API key.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrUnknownProvider indicates a provider name that is not supported.
	ErrUnknownProvider = errors.New("unknown provider")

	// Data errors.

	// ErrNoDocuments indicates no supported documents were found.
	ErrNoDocuments = errors.New("no supported documents found")

	// ErrIndexEmpty indicates the vector index holds no records.
	ErrIndexEmpty = errors.New("index is empty")

	// ErrNoResults indicates a query matched nothing.
	ErrNoResults = errors.New("no relevant documents found")

	// Provider and storage errors.

	// ErrLLMUnavailable indicates the LLM service failed or is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service failed or is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index cannot be reached.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ProviderError is a failed call to an external embedding or LLM provider.
// Transient marks failures worth retrying: network errors, timeouts,
// rate limiting and server-side errors.
type ProviderError struct {
	// Provider names the backend ("openai", "anthropic", "ollama").
	Provider string

	// StatusCode is the HTTP status, 0 for transport failures.
	StatusCode int

	// Transient reports whether a retry may succeed.
	Transient bool

	// RetryAfter is the server-requested wait, zero when absent.
	RetryAfter time.Duration

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches ErrRateLimited for 429 responses.
func (e *ProviderError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// NewStatusError classifies a non-2xx HTTP response.
func NewStatusError(provider string, status int, body string) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Transient:  status == http.StatusTooManyRequests || status >= http.StatusInternalServerError,
		Err:        errors.New(body),
	}
}

// NewTransportError wraps a failed HTTP round trip. Context cancellation is
// not transient; other network failures are.
func NewTransportError(provider string, err error) *ProviderError {
	transient := true
	if errors.Is(err, context.Canceled) {
		transient = false
	}
	return &ProviderError{Provider: provider, Transient: transient, Err: err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryAfter returns the server-requested wait carried by err, if any.
func RetryAfter(err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}
