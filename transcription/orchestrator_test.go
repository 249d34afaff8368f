package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/audiopen/artifact"
	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/catalog"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/prompt"
	"github.com/kbukum/audiopen/storage/memory"
)

type scriptedRPC struct {
	mu      sync.Mutex
	calls   []Request
	replies []error
}

func (r *scriptedRPC) Transcribe(_ context.Context, req Request) (Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req)
	if n := len(r.calls); n <= len(r.replies) && r.replies[n-1] != nil {
		return Reply{}, r.replies[n-1]
	}
	return Reply{Text: "transcribed text", Timestamp: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}, nil
}

func (r *scriptedRPC) Calls() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.calls...)
}

type fakeSigner struct {
	mu    sync.Mutex
	n     int
	fail  bool
	paths []string
}

func (s *fakeSigner) RefreshSignedURL(_ context.Context, path string, _ time.Duration) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	if s.fail {
		return "", false
	}
	s.n++
	return fmt.Sprintf("https://cdn.example.com/%s?token=fresh-%d", path, s.n), true
}

type countingUsage struct {
	mu  sync.Mutex
	ids []string
}

func (u *countingUsage) IncrementUsage(_ context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ids = append(u.ids, id)
	return nil
}

func storedRecording() catalog.Recording {
	return catalog.Recording{
		ID:          "rec-1",
		Title:       "Weekly sync",
		StoragePath: "user-1/recording_20260501_080000.webm",
		AudioURL:    "https://cdn.example.com/user-1/recording_20260501_080000.webm?token=old",
	}
}

func userPrompt() prompt.Prompt {
	return prompt.FromUser(prompt.UserPrompt{ID: "p-1", OwnerID: "user-1", Name: "Minutes", Text: "Write minutes."})
}

func TestTranscribeSucceeds(t *testing.T) {
	rpc := &scriptedRPC{}
	signer := &fakeSigner{}
	usage := &countingUsage{}
	var states []State
	o := NewOrchestrator(rpc, nil, WithSigner(signer), WithUsage(usage), OnState(func(_ string, s State) {
		states = append(states, s)
	}))

	res, err := o.Transcribe(context.Background(), storedRecording(), userPrompt())
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Text != "transcribed text" || res.PromptUsed != "Write minutes." || res.PromptID != "p-1" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.RecordingID != "rec-1" || res.Title != "Weekly sync" {
		t.Errorf("expected recording identity on the result, got %+v", res)
	}

	calls := rpc.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if !strings.HasSuffix(calls[0].AudioURL, "token=fresh-1") {
		t.Errorf("expected the refreshed url to be sent, got %q", calls[0].AudioURL)
	}
	if len(usage.ids) != 1 || usage.ids[0] != "p-1" {
		t.Errorf("expected usage incremented once for p-1, got %v", usage.ids)
	}
	if len(states) != 2 || states[0] != StateSubmitting || states[1] != StateSucceeded {
		t.Errorf("expected [submitting succeeded], got %v", states)
	}
}

func TestTranscribeBuiltinPromptSkipsUsage(t *testing.T) {
	usage := &countingUsage{}
	o := NewOrchestrator(&scriptedRPC{}, nil, WithUsage(usage))
	b, _ := prompt.BuiltinByID(prompt.BasicTranscriptionID)

	rec := storedRecording()
	rec.StoragePath = ""
	if _, err := o.Transcribe(context.Background(), rec, prompt.FromBuiltin(b)); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(usage.ids) != 0 {
		t.Errorf("expected no usage for a built-in prompt, got %v", usage.ids)
	}
}

func TestTranscribeRefusesUnfetchableURL(t *testing.T) {
	rpc := &scriptedRPC{}
	var states []State
	o := NewOrchestrator(rpc, nil, OnState(func(_ string, s State) { states = append(states, s) }))

	rec := storedRecording()
	rec.AudioURL = "blob:https://app.example.com/6f1c"
	_, err := o.Transcribe(context.Background(), rec, userPrompt())
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidArtifact) {
		t.Fatalf("expected INVALID_ARTIFACT, got %v", err)
	}
	if len(rpc.Calls()) != 0 {
		t.Error("expected no network call")
	}
	if len(states) != 2 || states[1] != StateFailed {
		t.Errorf("expected to end failed, got %v", states)
	}
}

func TestTranscribeRefusesEmptyPrompt(t *testing.T) {
	rpc := &scriptedRPC{}
	o := NewOrchestrator(rpc, nil)
	custom, _ := prompt.BuiltinByID(prompt.CustomPromptID)

	_, err := o.Transcribe(context.Background(), storedRecording(), prompt.FromBuiltin(custom))
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	if len(rpc.Calls()) != 0 {
		t.Error("expected no network call")
	}
}

func TestTranscribeRefreshFailureIsInvalidArtifact(t *testing.T) {
	rpc := &scriptedRPC{}
	o := NewOrchestrator(rpc, nil, WithSigner(&fakeSigner{fail: true}))

	_, err := o.Transcribe(context.Background(), storedRecording(), userPrompt())
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidArtifact) {
		t.Fatalf("expected INVALID_ARTIFACT, got %v", err)
	}
	if len(rpc.Calls()) != 0 {
		t.Error("expected no network call")
	}
}

func TestTranscribeRetriesOnceAfterExpiredURL(t *testing.T) {
	rpc := &scriptedRPC{replies: []error{apperrors.URLExpired("Access denied to audio file.")}}
	signer := &fakeSigner{}
	usage := &countingUsage{}
	o := NewOrchestrator(rpc, nil, WithSigner(signer), WithUsage(usage))

	if _, err := o.Transcribe(context.Background(), storedRecording(), userPrompt()); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	calls := rpc.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].AudioURL == calls[1].AudioURL {
		t.Error("expected the retry to use a newly signed url")
	}
	if !strings.HasSuffix(calls[1].AudioURL, "token=fresh-2") {
		t.Errorf("unexpected retry url %q", calls[1].AudioURL)
	}
	if len(usage.ids) != 1 {
		t.Errorf("expected usage incremented once, got %d", len(usage.ids))
	}
}

func TestTranscribeGivesUpAfterSecondExpiredURL(t *testing.T) {
	expired := apperrors.URLExpired("")
	rpc := &scriptedRPC{replies: []error{expired, expired, expired}}
	usage := &countingUsage{}
	o := NewOrchestrator(rpc, nil, WithSigner(&fakeSigner{}), WithUsage(usage))

	_, err := o.Transcribe(context.Background(), storedRecording(), userPrompt())
	if !apperrors.HasCode(err, apperrors.ErrCodeURLExpired) {
		t.Fatalf("expected URL_EXPIRED, got %v", err)
	}
	if n := len(rpc.Calls()); n != 2 {
		t.Errorf("expected exactly 2 calls, got %d", n)
	}
	if len(usage.ids) != 0 {
		t.Error("expected no usage after a failure")
	}
}

func TestTranscribeExpiredWithoutStoragePathIsTerminal(t *testing.T) {
	rpc := &scriptedRPC{replies: []error{apperrors.URLExpired("")}}
	signer := &fakeSigner{}
	o := NewOrchestrator(rpc, nil, WithSigner(signer))

	rec := storedRecording()
	rec.StoragePath = ""
	_, err := o.Transcribe(context.Background(), rec, userPrompt())
	if !apperrors.HasCode(err, apperrors.ErrCodeURLExpired) {
		t.Fatalf("expected URL_EXPIRED, got %v", err)
	}
	if n := len(rpc.Calls()); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
	if len(signer.paths) != 0 {
		t.Error("expected no refresh without a storage path")
	}
}

func TestTranscribeDoesNotRetryOverloadOrRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"overloaded", apperrors.Overloaded("busy", time.Minute), apperrors.ErrCodeTranscriptionOverloaded},
		{"rate limited", apperrors.RateLimited(), apperrors.ErrCodeRateLimited},
		{"failed", apperrors.TranscriptionFailed(400, "Audio URL is required"), apperrors.ErrCodeTranscriptionFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rpc := &scriptedRPC{replies: []error{tc.err}}
			usage := &countingUsage{}
			o := NewOrchestrator(rpc, nil, WithSigner(&fakeSigner{}), WithUsage(usage))

			_, err := o.Transcribe(context.Background(), storedRecording(), userPrompt())
			if !apperrors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if n := len(rpc.Calls()); n != 1 {
				t.Errorf("expected 1 call, got %d", n)
			}
			if len(usage.ids) != 0 {
				t.Error("expected no usage after a failure")
			}
		})
	}
}

func TestTranscribeOverloadKeepsRetryAfter(t *testing.T) {
	rpc := &scriptedRPC{replies: []error{apperrors.Overloaded("", 45 * time.Second)}}
	o := NewOrchestrator(rpc, nil)

	rec := storedRecording()
	rec.StoragePath = ""
	_, err := o.Transcribe(context.Background(), rec, userPrompt())
	if got, ok := apperrors.RetryAfter(err); !ok || got != 45*time.Second {
		t.Errorf("expected retry after 45s, got %v (%v)", got, ok)
	}
}

func TestTranscribeThroughGateway(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if hits.Add(1) == 1 {
			respond(w, http.StatusForbidden, `{"error":"Access denied to audio file."}`)
			return
		}
		if !strings.HasPrefix(req.AudioURL, memory.DefaultOrigin) {
			t.Errorf("expected a signed storage url, got %q", req.AudioURL)
		}
		respond(w, http.StatusOK, `{"transcription":"Hello from storage","timestamp":"2026-05-01T08:00:00Z"}`)
	}))
	t.Cleanup(srv.Close)

	store := memory.New("audio-recordings")
	gateway := artifact.NewGateway(store, artifact.Config{}, nil)
	blob := capture.NewBlob([]byte("opus-frames"), capture.DefaultMediaType, time.Now(), 2*time.Second)
	a, err := gateway.Upload(context.Background(), blob, "user-1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	client, err := NewClient(Config{FunctionsURL: srv.URL}, func() string { return "user-token" }, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	o := NewOrchestrator(client, nil, WithSigner(gateway))

	rec := catalog.Recording{ID: "rec-9", Title: "Standup", StoragePath: a.StoragePath, AudioURL: a.SignedURL}
	res, err := o.Transcribe(context.Background(), rec, userPrompt())
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Text != "Hello from storage" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", hits.Load())
	}
	// upload, refresh before the call, refresh after the 403
	if n := store.SignCount(a.StoragePath); n != 3 {
		t.Errorf("expected 3 signatures, got %d", n)
	}
}

func TestResultFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Weekly sync", "Weekly sync_transcription.txt"},
		{"Q3: plan/review?", "Q3_ plan_review__transcription.txt"},
		{"  ", "recording_transcription.txt"},
		{"..", "recording_transcription.txt"},
		{"line\nbreak", "linebreak_transcription.txt"},
	}
	for _, tc := range tests {
		if got := (Result{Title: tc.title}).Filename(); got != tc.want {
			t.Errorf("Filename(%q): expected %q, got %q", tc.title, tc.want, got)
		}
	}
}

func TestTranscribeEndToEnd(t *testing.T) {
	const instructions = "Please transcribe this voice content into clear, readable text format."

	t.Run("success carries the text and prompt", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			respond(w, http.StatusOK, `{"transcription":"Hello world","timestamp":"2024-01-01T00:00:00Z"}`)
		})
		o := NewOrchestrator(c, nil)
		p := prompt.FromUser(prompt.UserPrompt{ID: "p-2", Name: "Plain", Text: instructions})

		rec := storedRecording()
		rec.StoragePath = ""
		res, err := o.Transcribe(context.Background(), rec, p)
		if err != nil {
			t.Fatalf("transcribe: %v", err)
		}
		if res.Text != "Hello world" || res.PromptUsed != instructions {
			t.Errorf("unexpected result %+v", res)
		}
		if !res.ProducedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected timestamp %v", res.ProducedAt)
		}
	})

	t.Run("overload is surfaced once with its wait", func(t *testing.T) {
		var hits atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			respond(w, http.StatusServiceUnavailable, `{"error":"Gemini API is currently overloaded.","retryAfter":60}`)
		})
		o := NewOrchestrator(c, nil, WithSigner(&fakeSigner{}))

		_, err := o.Transcribe(context.Background(), storedRecording(), userPrompt())
		appErr, ok := apperrors.AsAppError(err)
		if !ok || appErr.Code != apperrors.ErrCodeTranscriptionOverloaded || !appErr.Retryable {
			t.Fatalf("expected retryable TRANSCRIPTION_OVERLOADED, got %v", err)
		}
		if wait, _ := apperrors.RetryAfter(err); wait != 60*time.Second {
			t.Errorf("expected a 60s wait, got %v", wait)
		}
		if hits.Load() != 1 {
			t.Errorf("expected no automatic retry, got %d calls", hits.Load())
		}
	})
}
