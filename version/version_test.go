package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func stamp(t *testing.T, version, commit, date string, settings ...debug.BuildSetting) {
	t.Helper()
	oldV, oldC, oldD, oldRead := Version, Commit, Date, readBuildInfo
	t.Cleanup(func() { Version, Commit, Date, readBuildInfo = oldV, oldC, oldD, oldRead })
	Version, Commit, Date = version, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, true
	}
}

func TestGetStampedWins(t *testing.T) {
	stamp(t, "1.4.0", "abc1234", "2025-03-01T10:00:00Z",
		debug.BuildSetting{Key: "vcs.revision", Value: "ffffffffffffffff"},
		debug.BuildSetting{Key: "vcs.time", Value: "2020-01-01T00:00:00Z"},
	)
	info := Get()
	if info.Version != "1.4.0" || info.Commit != "abc1234" {
		t.Errorf("expected stamped values, got %+v", info)
	}
	if !info.Date.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("expected stamped date, got %v", info.Date)
	}
	if info.Go == "" {
		t.Error("expected go version")
	}
}

func TestGetFallsBackToVCS(t *testing.T) {
	stamp(t, "dev", "", "",
		debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef"},
		debug.BuildSetting{Key: "vcs.time", Value: "2025-02-03T04:05:06Z"},
		debug.BuildSetting{Key: "vcs.modified", Value: "true"},
	)
	info := Get()
	if info.Commit != "0123456" {
		t.Errorf("expected commit shortened to 7 chars, got %q", info.Commit)
	}
	if info.Date.IsZero() || !info.Dirty {
		t.Errorf("expected vcs date and dirty flag, got %+v", info)
	}
	if got := info.String(); got != "dev (0123456, dirty)" {
		t.Errorf("unexpected string %q", got)
	}
}

func TestShort(t *testing.T) {
	stamp(t, "dev", "", "")
	if got := Short(); got != "dev" {
		t.Errorf("expected dev, got %q", got)
	}
	stamp(t, "1.4.0", "abc1234", "")
	if got := Short(); got != "1.4.0+abc1234" {
		t.Errorf("expected 1.4.0+abc1234, got %q", got)
	}
}

func TestFull(t *testing.T) {
	stamp(t, "1.4.0", "abc1234", "2025-03-01T10:00:00Z")
	got := Full()
	for _, want := range []string{"audiopen 1.4.0 (abc1234)", "go", "built 2025-03-01"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
	stamp(t, "dev", "", "")
	if strings.Contains(Full(), "built") {
		t.Errorf("expected no build date, got %q", Full())
	}
}

func TestUserAgent(t *testing.T) {
	stamp(t, "1.4.0", "", "")
	if got := UserAgent(); !strings.HasPrefix(got, "audiopen/1.4.0 (") {
		t.Errorf("unexpected user agent %q", got)
	}
}
