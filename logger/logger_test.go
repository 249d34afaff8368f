package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: level, Format: FormatJSON}, "audiopen", &buf)
	return l, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	l, buf := newJSONLogger(t, "debug")
	l.WithComponent("artifact").Info("uploaded", Fields(FieldStoragePath, "u/a.webm", "bytes", 42))

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got["message"] != "uploaded" {
		t.Errorf("expected message 'uploaded', got %v", got["message"])
	}
	if got[FieldComponent] != "artifact" {
		t.Errorf("expected component=artifact, got %v", got[FieldComponent])
	}
	if got[FieldStoragePath] != "u/a.webm" {
		t.Errorf("expected storage_path, got %v", got[FieldStoragePath])
	}
	if got["service"] != "audiopen" {
		t.Errorf("expected service=audiopen, got %v", got["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newJSONLogger(t, "warn")
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	if n := len(decodeLines(t, buf)); n != 2 {
		t.Errorf("expected 2 lines at warn level, got %d", n)
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := newJSONLogger(t, "nonsense")
	l.Debug("hidden")
	l.Info("shown")
	if n := len(decodeLines(t, buf)); n != 1 {
		t.Errorf("expected 1 line, got %d", n)
	}
}

func TestWithContext(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	ctx := ContextWith(context.Background(), FieldRecordingID, "rec-1")
	l.WithContext(ctx).Info("transcribing")

	lines := decodeLines(t, buf)
	if lines[0][FieldRecordingID] != "rec-1" {
		t.Errorf("expected recording_id=rec-1, got %v", lines[0][FieldRecordingID])
	}
}

func TestWithError(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	l.WithError(errors.New("boom")).Error("failed")
	lines := decodeLines(t, buf)
	if lines[0]["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", lines[0]["error"])
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded", Fields("k", "v"))
	l.WithComponent("x").WithFields(map[string]interface{}{"a": 1}).Error("discarded")
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 {
		t.Errorf("expected 2 entries, got %d: %v", len(m), m)
	}
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("upload", errors.New("denied"))
	if ef[FieldOperation] != "upload" || ef[FieldError] != "denied" {
		t.Errorf("unexpected error fields %v", ef)
	}
	df := DurationFields("transcribe", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatConsole || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := Config{Level: "loud", Format: FormatJSON}
	if err := bad.Validate(); err == nil {
		t.Error("expected invalid level to fail")
	}
	bad = Config{Level: "info", Format: "xml"}
	if err := bad.Validate(); err == nil {
		t.Error("expected invalid format to fail")
	}
}
