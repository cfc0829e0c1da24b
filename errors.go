package pollbase

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrSessionExpired is returned when the session could not be refreshed
	// and has been torn down. The caller must authenticate again.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAuthenticated is returned when a request is attempted with no
	// token in the session store.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrForbidden is returned for 403 responses.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for 422 responses.
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("server error")
)

// APIError is the base error type for non-2xx API responses. More specific
// error types (AuthError, ValidationError, RateLimitError) embed it.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Message is the server-provided error message from the envelope.
	Message string
	// RequestID echoes the X-Request-ID header of the failing request.
	RequestID string
	// Method and Path identify the failing call.
	Method string
	Path   string
}

// Error returns the error message.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("pollbase: %s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pollbase: %s %s: %d", e.Method, e.Path, e.StatusCode)
}

// Is reports whether this error matches the target sentinel.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrForbidden:
		return e.StatusCode == 403
	case ErrNotFound:
		return e.StatusCode == 404
	case ErrServer:
		return e.StatusCode >= 500
	}
	return false
}

// AuthError is returned when a session is terminally invalid: the refresh
// endpoint rejected the token, or a request still got 401 after one retry.
type AuthError struct {
	// Reason explains what invalidated the session.
	Reason string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a human-readable description of the auth failure.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pollbase: session expired: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("pollbase: session expired: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, ErrSessionExpired).
func (e *AuthError) Is(target error) bool { return target == ErrSessionExpired }

// ValidationError is returned for 422 responses. Fields maps field names to
// server-provided validation messages so form-level display can consume them.
type ValidationError struct {
	APIError
	// Fields holds per-field validation messages from the envelope errors.
	Fields map[string][]string
}

// Is supports errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RateLimitError is returned for 429 responses.
type RateLimitError struct {
	APIError
	// RetryAfter is the server-suggested wait, zero when the header is absent.
	// This layer never waits itself; backoff is the caller's decision.
	RetryAfter time.Duration
}

// Is supports errors.Is(err, ErrRateLimited).
func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// TransportError wraps network-level failures where no HTTP response was
// received (DNS, connection refused, TLS, timeouts).
type TransportError struct {
	Method string
	Path   string
	Cause  error
}

// Error returns a human-readable description of the transport failure.
func (e *TransportError) Error() string {
	return fmt.Sprintf("pollbase: %s %s: %v", e.Method, e.Path, e.Cause)
}

// Unwrap returns the underlying error cause.
func (e *TransportError) Unwrap() error { return e.Cause }
