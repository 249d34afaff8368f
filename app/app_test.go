package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/audiopen/auth"
	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/catalog"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/prompt"
	"github.com/kbukum/audiopen/storage"
)

var testUser = auth.Static{User: auth.User{ID: "user-1", Email: "ada@example.com"}, AccessToken: "user-token"}

func memoryConfig() *Config {
	cfg := &Config{}
	cfg.Storage.Provider = storage.ProviderMemory
	cfg.Catalog.Backend = BackendMemory
	cfg.Capture.Device = capture.DeviceSynthetic
	return cfg
}

func newTestApp(t *testing.T, cfg *Config) *App {
	t.Helper()
	a, err := New(cfg,
		WithLogger(logger.NewNop()),
		WithSession(testUser),
		WithDevice(&capture.SyntheticDevice{Interval: 10 * time.Millisecond}),
	)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func TestConfigDefaults(t *testing.T) {
	t.Run("sqlite without a project", func(t *testing.T) {
		var cfg Config
		cfg.ApplyDefaults()
		if cfg.Catalog.Backend != BackendSQLite {
			t.Errorf("expected sqlite, got %q", cfg.Catalog.Backend)
		}
		if !cfg.Database.Enabled || !cfg.Database.AutoMigrate {
			t.Error("expected the database enabled with migrations")
		}
		if cfg.Transcription.FunctionsURL != "" {
			t.Errorf("expected no transcription endpoint, got %q", cfg.Transcription.FunctionsURL)
		}
	})

	t.Run("supabase project", func(t *testing.T) {
		cfg := Config{}
		cfg.Supabase.URL = "https://xyz.supabase.co/"
		cfg.Supabase.AnonKey = "anon"
		cfg.ApplyDefaults()
		if cfg.Catalog.Backend != BackendSupabase {
			t.Errorf("expected supabase, got %q", cfg.Catalog.Backend)
		}
		if cfg.Transcription.FunctionsURL != "https://xyz.supabase.co/functions/v1" {
			t.Errorf("unexpected functions url %q", cfg.Transcription.FunctionsURL)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Catalog.Backend = "mongo"
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error for an unknown backend")
		}
	})

	t.Run("supabase storage needs keys", func(t *testing.T) {
		cfg := Config{}
		cfg.Catalog.Backend = BackendMemory
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "supabase") {
			t.Errorf("expected a supabase error, got %v", err)
		}
	})
}

func TestRecordListRenameDelete(t *testing.T) {
	a := newTestApp(t, memoryConfig())

	err := a.RunTask(context.Background(), func(ctx context.Context, a *App) error {
		rec, err := a.Record(ctx, 30*time.Millisecond, "", nil)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(rec.Title, "Recording ") {
			t.Errorf("expected a default title, got %q", rec.Title)
		}
		if !catalog.IsFetchable(rec.AudioURL) || rec.StoragePath == "" {
			t.Errorf("expected an uploaded recording, got %+v", rec)
		}

		recs, err := a.Catalog.Load(ctx)
		if err != nil {
			return err
		}
		if len(recs) != 1 {
			t.Fatalf("expected 1 recording, got %d", len(recs))
		}

		if err := a.Catalog.Rename(ctx, rec.ID, "Kickoff"); err != nil {
			return err
		}
		got, err := a.Recording(ctx, rec.ID)
		if err != nil {
			return err
		}
		if got.Title != "Kickoff" {
			t.Errorf("expected renamed title, got %q", got.Title)
		}

		if err := a.Catalog.Delete(ctx, rec.ID); err != nil {
			return err
		}
		if ok, _ := a.Storage.Exists(ctx, rec.StoragePath); ok {
			t.Error("expected the audio deleted with the recording")
		}
		if _, err := a.Recording(ctx, rec.ID); !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("task: %v", err)
	}
}

func TestTranscribeWithoutEndpoint(t *testing.T) {
	a := newTestApp(t, memoryConfig())
	err := a.RunTask(context.Background(), func(ctx context.Context, a *App) error {
		_, err := a.Transcribe(ctx, "rec-1", prompt.BasicTranscriptionID, "")
		if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
			t.Errorf("expected INVALID_INPUT, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("task: %v", err)
	}
}

func TestTranscribeRecording(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/v1/gemini-transcribe" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcription":"Hello world","timestamp":"2024-01-01T00:00:00Z"}`))
	}))
	t.Cleanup(srv.Close)

	cfg := memoryConfig()
	cfg.Transcription.FunctionsURL = srv.URL + "/functions/v1"
	a := newTestApp(t, cfg)

	err := a.RunTask(context.Background(), func(ctx context.Context, a *App) error {
		rec, err := a.Record(ctx, 20*time.Millisecond, "Standup", nil)
		if err != nil {
			return err
		}
		res, err := a.Transcribe(ctx, rec.ID, prompt.BasicTranscriptionID, "")
		if err != nil {
			return err
		}
		if res.Text != "Hello world" {
			t.Errorf("unexpected text %q", res.Text)
		}
		if res.Filename() != "Standup_transcription.txt" {
			t.Errorf("unexpected filename %q", res.Filename())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("task: %v", err)
	}
}

func TestSQLiteBackendPersists(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "audiopen.db")
	newSQLiteApp := func() *App {
		cfg := memoryConfig()
		cfg.Catalog.Backend = BackendSQLite
		cfg.Database.DSN = dsn
		return newTestApp(t, cfg)
	}

	var id string
	err := newSQLiteApp().RunTask(context.Background(), func(ctx context.Context, a *App) error {
		rec, err := a.Record(ctx, 20*time.Millisecond, "Persisted", nil)
		id = rec.ID
		if err != nil {
			return err
		}
		_, err = a.Prompts.Create(ctx, prompt.Draft{Name: "Minutes", Text: "Write minutes."})
		return err
	})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	err = newSQLiteApp().RunTask(context.Background(), func(ctx context.Context, a *App) error {
		rec, err := a.Recording(ctx, id)
		if err != nil {
			return err
		}
		if rec.Title != "Persisted" {
			t.Errorf("unexpected title %q", rec.Title)
		}
		prompts, err := a.Prompts.List(ctx)
		if err != nil {
			return err
		}
		if len(prompts) != 1 || prompts[0].Name != "Minutes" {
			t.Errorf("expected the saved prompt, got %+v", prompts)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestSummary(t *testing.T) {
	a := newTestApp(t, memoryConfig())
	err := a.RunTask(context.Background(), func(ctx context.Context, a *App) error {
		s := a.Summarize(ctx)
		if s.User != "user-1 <ada@example.com>" {
			t.Errorf("unexpected user %q", s.User)
		}
		if s.Catalog != BackendMemory || s.Transcription != "disabled" || s.Project != "none" {
			t.Errorf("unexpected summary %+v", s)
		}
		if !s.Healthy() {
			t.Errorf("expected a healthy summary, got %+v", s)
		}
		var b strings.Builder
		s.Print(&b)
		if !strings.Contains(b.String(), "catalog: memory") {
			t.Errorf("unexpected output %q", b.String())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("task: %v", err)
	}
}
