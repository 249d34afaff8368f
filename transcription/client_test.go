package transcription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{FunctionsURL: srv.URL + "/functions/v1"}, func() string { return "user-token" }, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClientSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/functions/v1/gemini-transcribe" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.AudioURL != "https://cdn.example.com/a.webm" || req.Prompt != "Summarize." || req.RecordingID != "rec-1" {
			t.Errorf("unexpected body %+v", req)
		}
		respond(w, http.StatusOK, `{"transcription":"Hello world","timestamp":"2026-05-01T08:00:00.000Z"}`)
	})

	reply, err := c.Transcribe(context.Background(), Request{AudioURL: "https://cdn.example.com/a.webm", Prompt: "Summarize.", RecordingID: "rec-1"})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if reply.Text != "Hello world" {
		t.Errorf("expected text, got %q", reply.Text)
	}
	if !reply.Timestamp.Equal(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", reply.Timestamp)
	}
}

func TestClientClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		header    string
		body      string
		wantCode  apperrors.ErrorCode
		wantWait  time.Duration
		wantMsg   string
		wantRetry bool
	}{
		{"overloaded with body hint", 503, "", `{"error":"Gemini API is currently overloaded.","retryAfter":60}`, apperrors.ErrCodeTranscriptionOverloaded, time.Minute, "Gemini API is currently overloaded.", true},
		{"overloaded with header", 503, "7", `{"error":"busy"}`, apperrors.ErrCodeTranscriptionOverloaded, 7 * time.Second, "busy", true},
		{"overloaded without hint", 503, "", `{}`, apperrors.ErrCodeTranscriptionOverloaded, DefaultRetryAfter, "", true},
		{"rate limited", 429, "", `{"error":"Rate limit exceeded."}`, apperrors.ErrCodeRateLimited, 0, "Rate limit exceeded.", true},
		{"expired url", 403, "", `{"error":"Access denied to audio file."}`, apperrors.ErrCodeURLExpired, 0, "Access denied to audio file.", true},
		{"bad request", 400, "", `{"error":"Audio URL is required"}`, apperrors.ErrCodeTranscriptionFailed, 0, "Audio URL is required", false},
		{"server error", 500, "", `{"error":"No transcription result returned"}`, apperrors.ErrCodeTranscriptionFailed, 0, "No transcription result returned", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if tc.header != "" {
					w.Header().Set("Retry-After", tc.header)
				}
				respond(w, tc.status, tc.body)
			})
			_, err := c.Transcribe(context.Background(), Request{AudioURL: "https://cdn.example.com/a.webm", Prompt: "p"})
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tc.wantCode {
				t.Errorf("expected %s, got %s", tc.wantCode, appErr.Code)
			}
			if appErr.Retryable != tc.wantRetry {
				t.Errorf("expected retryable=%v, got %v", tc.wantRetry, appErr.Retryable)
			}
			if tc.wantMsg != "" && appErr.Message != tc.wantMsg {
				t.Errorf("expected message %q, got %q", tc.wantMsg, appErr.Message)
			}
			if tc.wantWait > 0 {
				if got, _ := apperrors.RetryAfter(err); got != tc.wantWait {
					t.Errorf("expected retry after %v, got %v", tc.wantWait, got)
				}
			}
		})
	}
}

func TestClientCircuitOpensOnRepeatedOverload(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		respond(w, http.StatusServiceUnavailable, `{"error":"overloaded"}`)
	})

	for range 3 {
		_, _ = c.Transcribe(context.Background(), Request{AudioURL: "https://cdn.example.com/a.webm", Prompt: "p"})
	}
	if c.CircuitState() != resilience.StateOpen {
		t.Fatalf("expected open circuit, got %s", c.CircuitState())
	}

	_, err := c.Transcribe(context.Background(), Request{AudioURL: "https://cdn.example.com/a.webm", Prompt: "p"})
	if !apperrors.HasCode(err, apperrors.ErrCodeTranscriptionOverloaded) {
		t.Errorf("expected TRANSCRIPTION_OVERLOADED from the open circuit, got %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("expected the open circuit to skip the server, got %d hits", hits.Load())
	}
}

func TestClientRequiresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected call without a token")
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{FunctionsURL: srv.URL}, func() string { return "" }, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Transcribe(context.Background(), Request{}); !apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without functions_url")
	}
	cfg.FunctionsURL = "https://xyz.supabase.co/functions/v1"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.Timeout = "forever"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for a bad timeout")
	}
}
