package providers

import (
	"errors"
	"fmt"
	"time"
)

// ErrProviderUnavailable is matched by UnavailableError via errors.Is().
var ErrProviderUnavailable = errors.New("provider unavailable")

// UnavailableError is returned when a provider name is unknown to the
// registry or its construction failed.
type UnavailableError struct {
	// Provider is the requested provider name.
	Provider string

	// Cause is the construction error, if the provider failed to initialize.
	Cause error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q unavailable: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("provider %q unavailable", e.Provider)
}

// Is implements error matching for errors.Is().
func (e *UnavailableError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// Unwrap returns the construction error.
func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// ProviderError represents a general provider failure.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError is returned on HTTP 401 or 403.
type AuthError struct {
	Provider string
	Message  string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError is returned on HTTP 429.
type RateLimitError struct {
	Provider string

	// RetryAfter is the wait hinted by the provider, if any.
	RetryAfter time.Duration

	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError is returned when the request context ends before a response.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
	Cause    error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// Unwrap returns the context error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ParseError is returned when a response body cannot be decoded.
type ParseError struct {
	Provider string

	// RawResponse is the body that failed to parse.
	RawResponse string

	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// StreamError is delivered as the Err of a terminal stream chunk.
type StreamError struct {
	Provider string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ConfigError is returned when a provider cannot be built from its configuration.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}
