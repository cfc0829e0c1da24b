package pollbase

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAPIErrorSentinelMapping(t *testing.T) {
	tests := []struct {
		status int
		target error
		want   bool
	}{
		{403, ErrForbidden, true},
		{403, ErrNotFound, false},
		{404, ErrNotFound, true},
		{500, ErrServer, true},
		{503, ErrServer, true},
		{422, ErrServer, false},
	}
	for _, tt := range tests {
		err := &APIError{StatusCode: tt.status, Method: "GET", Path: "/v1/forms"}
		if got := errors.Is(err, tt.target); got != tt.want {
			t.Errorf("status %d vs %v: got %v, want %v", tt.status, tt.target, got, tt.want)
		}
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "form not found", Method: "GET", Path: "/v1/forms/x"}
	want := "pollbase: GET /v1/forms/x: 404: form not found"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	bare := &APIError{StatusCode: 500, Method: "POST", Path: "/v1/forms"}
	if bare.Error() != "pollbase: POST /v1/forms: 500" {
		t.Errorf("got %q", bare.Error())
	}
}

func TestAuthErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("refresh token expired")
	err := &AuthError{Reason: "refresh rejected", Cause: cause}

	if !errors.Is(err, ErrSessionExpired) {
		t.Error("AuthError should match ErrSessionExpired")
	}
	if !errors.Is(err, cause) {
		t.Error("AuthError should unwrap to its cause")
	}
}

func TestWrappedErrorsStillMatch(t *testing.T) {
	// Callers commonly add their own context with %w; taxonomy matching
	// must survive the wrapping.
	err := fmt.Errorf("load dashboard: %w", &RateLimitError{
		APIError:   APIError{StatusCode: 429},
		RetryAfter: 10 * time.Second,
	})

	if !errors.Is(err, ErrRateLimited) {
		t.Error("wrapped RateLimitError should match ErrRateLimited")
	}
	var rerr *RateLimitError
	if !errors.As(err, &rerr) || rerr.RetryAfter != 10*time.Second {
		t.Errorf("errors.As failed or lost RetryAfter: %+v", rerr)
	}
}

func TestValidationErrorFields(t *testing.T) {
	err := &ValidationError{
		APIError: APIError{StatusCode: 422, Message: "validation failed"},
		Fields:   map[string][]string{"email": {"is invalid", "is taken"}},
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationError should match ErrValidation")
	}
	if len(err.Fields["email"]) != 2 {
		t.Errorf("unexpected fields: %v", err.Fields)
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Method: "GET", Path: "/v1/users", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("TransportError should unwrap to its cause")
	}
	if errors.Is(err, ErrServer) {
		t.Error("TransportError must not match HTTP sentinels")
	}
}
