package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/audiopen/database"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/storage/supabase"
)

// exerciseBackend runs the contract every Backend must honour.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	older := validRecording("", time.Hour)
	older.Title = "older"
	newer := validRecording("", time.Minute)
	newer.Title = "newer"
	foreign := validRecording("", time.Second)
	foreign.OwnerID = "user-2"

	var ids []string
	for _, r := range []Recording{older, newer, foreign} {
		got, err := b.Insert(ctx, r)
		if err != nil {
			t.Fatalf("insert %s: %v", r.Title, err)
		}
		if got.ID == "" {
			t.Fatalf("expected an id assigned on insert")
		}
		ids = append(ids, got.ID)
	}

	list, err := b.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows for user-1, got %d", len(list))
	}
	if list[0].Title != "newer" || list[1].Title != "older" {
		t.Errorf("expected newest first, got %q then %q", list[0].Title, list[1].Title)
	}
	if list[0].DurationMs != 4000 || list[0].AudioURL != newer.AudioURL {
		t.Errorf("round trip lost fields: %+v", list[0])
	}

	at := base.Add(time.Minute)
	updated, err := b.Update(ctx, ids[0], Fields{Title: "renamed", UpdatedAt: at})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "renamed" || !updated.UpdatedAt.Equal(at) {
		t.Errorf("unexpected updated row %+v", updated)
	}

	if _, err := b.Update(ctx, "00000000-0000-0000-0000-000000000000", Fields{Title: "x", UpdatedAt: at}); !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND updating a missing row, got %v", err)
	}

	if err := b.Delete(ctx, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := b.Delete(ctx, ids[0]); err != nil {
		t.Errorf("expected delete of a missing row to succeed, got %v", err)
	}
	list, err = b.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Title != "newer" {
		t.Errorf("expected only the newer row left, got %+v", list)
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestGormBackend(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Enabled:  true,
		DSN:      filepath.Join(t.TempDir(), "catalog.db"),
		LogLevel: "silent",
	}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.AutoMigrate(GormModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	exerciseBackend(t, NewGormBackend(db))
}

// fakePostgREST serves the recordings table the way PostgREST does.
type fakePostgREST struct {
	t    *testing.T
	mu   sync.Mutex
	rows map[string]Recording
	seq  int
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != "/rest/v1/recordings" {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("apikey") != "anon" {
		f.t.Errorf("missing apikey on %s", r.Method)
	}
	if r.Header.Get("Authorization") != "Bearer user-token" {
		f.t.Errorf("expected the user's bearer token, got %q", r.Header.Get("Authorization"))
	}
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		if q.Get("order") != "created_at.desc" || q.Get("select") != "*" {
			f.t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		owner := strings.TrimPrefix(q.Get("user_id"), "eq.")
		out := []Recording{}
		for _, row := range f.rows {
			if row.OwnerID == owner {
				out = append(out, row)
			}
		}
		sortNewestFirst(out)
		_ = json.NewEncoder(w).Encode(out)
	case http.MethodPost:
		if r.Header.Get("Prefer") != "return=representation" {
			f.t.Errorf("expected return=representation on insert")
		}
		var row Recording
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.seq++
		row.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", f.seq)
		f.rows[row.ID] = row
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]Recording{row})
	case http.MethodPatch:
		id := strings.TrimPrefix(q.Get("id"), "eq.")
		var body struct {
			Title     string    `json:"title"`
			UpdatedAt time.Time `json:"updated_at"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		row, ok := f.rows[id]
		if !ok {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		row.Title, row.UpdatedAt = body.Title, body.UpdatedAt
		f.rows[id] = row
		_ = json.NewEncoder(w).Encode([]Recording{row})
	case http.MethodDelete:
		delete(f.rows, strings.TrimPrefix(q.Get("id"), "eq."))
		w.WriteHeader(http.StatusNoContent)
	}
}

func newRESTBackend(t *testing.T, token string) *RESTBackend {
	t.Helper()
	srv := httptest.NewServer(&fakePostgREST{t: t, rows: map[string]Recording{}})
	t.Cleanup(srv.Close)
	b, err := NewRESTBackend(supabase.Config{
		URL:     srv.URL,
		AnonKey: "anon",
		Token:   func() string { return token },
	}, nil)
	if err != nil {
		t.Fatalf("new rest backend: %v", err)
	}
	return b
}

func TestRESTBackend(t *testing.T) {
	exerciseBackend(t, newRESTBackend(t, "user-token"))
}

func TestRESTBackendMapsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT expired"}`))
	}))
	t.Cleanup(srv.Close)
	b, err := NewRESTBackend(supabase.Config{URL: srv.URL, AnonKey: "anon"}, nil)
	if err != nil {
		t.Fatalf("new rest backend: %v", err)
	}

	if _, err := b.List(context.Background(), "user-1"); !apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
	if err := b.Delete(context.Background(), "x"); !apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED on delete, got %v", err)
	}
}
