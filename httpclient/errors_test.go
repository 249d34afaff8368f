package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/kbukum/audiopen/errors"
)

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeTimeout, "timeout"},
		{ErrCodeConnection, "connection"},
		{ErrCodeAuth, "auth"},
		{ErrCodeForbidden, "forbidden"},
		{ErrCodeNotFound, "not_found"},
		{ErrCodeConflict, "conflict"},
		{ErrCodeRateLimit, "rate_limit"},
		{ErrCodeValidation, "validation"},
		{ErrCodeServer, "server"},
		{ErrorCode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	e := &Error{StatusCode: 404, Code: ErrCodeNotFound, Message: "HTTP 404"}
	if got := e.Error(); got != "httpclient: not_found (HTTP 404): HTTP 404" {
		t.Errorf("unexpected message %q", got)
	}
	e2 := &Error{Code: ErrCodeConnection, Message: "connection refused"}
	if got := e2.Error(); got != "httpclient: connection: connection refused" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestClassifyStatusCode_Success(t *testing.T) {
	if err := ClassifyStatusCode(204, nil); err != nil {
		t.Errorf("expected nil for 204, got %v", err)
	}
}

func TestPredicates_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ClassifyStatusCode(http.StatusForbidden, nil))
	if !IsForbidden(wrapped) {
		t.Error("expected IsForbidden through wrapping")
	}
	if StatusCode(wrapped) != http.StatusForbidden {
		t.Errorf("expected 403, got %d", StatusCode(wrapped))
	}
	if StatusCode(errors.New("plain")) != 0 {
		t.Error("expected 0 for non-http error")
	}
	if IsUnavailable(wrapped) {
		t.Error("403 is not an availability failure")
	}
	if !IsUnavailable(ClassifyStatusCode(http.StatusBadGateway, nil)) {
		t.Error("502 should count as unavailable")
	}
	if !IsUnavailable(NewConnectionError(errors.New("refused"))) {
		t.Error("connection errors should count as unavailable")
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := parseRetryAfter("30", now); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}
	date := now.Add(2 * time.Minute).Format(http.TimeFormat)
	if got := parseRetryAfter(date, now); got != 2*time.Minute {
		t.Errorf("expected 2m, got %v", got)
	}
	if got := parseRetryAfter("soon", now); got != 0 {
		t.Errorf("expected 0 for garbage, got %v", got)
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		err  error
		code apperrors.ErrorCode
	}{
		{NewTimeoutError(errors.New("t")), apperrors.ErrCodeTimeout},
		{NewConnectionError(errors.New("c")), apperrors.ErrCodeServiceUnavailable},
		{ClassifyStatusCode(401, nil), apperrors.ErrCodeUnauthorized},
		{ClassifyStatusCode(403, nil), apperrors.ErrCodeForbidden},
		{ClassifyStatusCode(404, nil), apperrors.ErrCodeNotFound},
		{ClassifyStatusCode(409, nil), apperrors.ErrCodeAlreadyExists},
		{ClassifyStatusCode(429, nil), apperrors.ErrCodeRateLimited},
		{ClassifyStatusCode(422, []byte("bad")), apperrors.ErrCodeInvalidInput},
		{ClassifyStatusCode(500, nil), apperrors.ErrCodeExternalService},
	}
	for _, tt := range tests {
		got := ToAppError(tt.err, "supabase")
		if !apperrors.HasCode(got, tt.code) {
			t.Errorf("ToAppError(%v): expected code %s, got %v", tt.err, tt.code, got)
		}
	}

	plain := errors.New("plain")
	if ToAppError(plain, "x") != plain {
		t.Error("non-http errors should pass through")
	}
}

func TestSupabaseAuth_FallsBackToAnonKey(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	SupabaseAuth("anon", "").apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer anon" {
		t.Errorf("expected anon bearer, got %q", got)
	}

	req2, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	APIKeyAuthHeader("k", "").apply(req2)
	if got := req2.Header.Get("X-API-Key"); got != "k" {
		t.Errorf("expected default header name, got %q", got)
	}
}
