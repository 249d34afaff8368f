package util

import "testing"

func TestPtrAndDeref(t *testing.T) {
	p := Ptr(42)
	if *p != 42 {
		t.Errorf("expected *p=42, got %d", *p)
	}
	if Deref(p) != 42 {
		t.Error("expected Deref to return 42")
	}

	var sp *string
	if Deref(sp) != "" {
		t.Error("expected Deref of nil string pointer to return empty string")
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "dev", "1.0.0"); got != "dev" {
		t.Errorf("expected dev, got %q", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("expected zero, got %d", got)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input  string
		prefix int
		want   string
	}{
		{"eyJhbGciOiJIUzI1NiJ9.payload", 6, "eyJhbG***"},
		{"short", 10, "***"},
		{"exactly10!", 10, "***"},
		{"", 5, "***"},
		{"abcdef", 3, "abc***"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := MaskSecret(tc.input, tc.prefix); got != tc.want {
				t.Errorf("MaskSecret(%q, %d) = %q, want %q", tc.input, tc.prefix, got, tc.want)
			}
		})
	}
}
