package artifact

import (
	"testing"
	"time"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		mediaType string
		want      string
	}{
		{"audio/webm;codecs=opus", "webm"},
		{"audio/webm", "webm"},
		{"audio/ogg; codecs=opus", "ogg"},
		{"audio/mpeg", "mp3"},
		{"audio/mp4", "m4a"},
		{"audio/x-m4a", "m4a"},
		{"audio/wav", "wav"},
		{"audio/x-wav", "wav"},
		{"audio/vnd.wave", "wav"},
		{"audio/flac", "flac"},
		{"", "webm"},
		{"audio", "webm"},
		{"application/vnd.something+json", "webm"},
	}
	for _, tc := range tests {
		if got := Extension(tc.mediaType); got != tc.want {
			t.Errorf("Extension(%q): expected %q, got %q", tc.mediaType, tc.want, got)
		}
	}
}

func TestObjectPath(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	got := ObjectPath("7c0e", at, "audio/ogg")
	if got != "7c0e/recording_20250102_030405.ogg" {
		t.Errorf("unexpected path %q", got)
	}
}
