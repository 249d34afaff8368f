package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Stamped by -ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = "" // RFC 3339
)

// Info describes the running binary.
type Info struct {
	Version string    `json:"version"`
	Commit  string    `json:"commit,omitempty"`
	Date    time.Time `json:"date,omitzero"`
	Go      string    `json:"go"`
	Dirty   bool      `json:"dirty,omitempty"`
}

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Get merges the stamped values with the embedded VCS settings. Stamped
// values win.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Go: runtime.Version()}
	if t, err := time.Parse(time.RFC3339, Date); err == nil {
		info.Date = t
	}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil && info.Date.IsZero() {
				info.Date = t
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// String renders "1.4.0 (a1b2c3d, dirty)".
func (i Info) String() string {
	s := i.Version
	switch {
	case i.Commit != "" && i.Dirty:
		s += fmt.Sprintf(" (%s, dirty)", i.Commit)
	case i.Commit != "":
		s += fmt.Sprintf(" (%s)", i.Commit)
	}
	return s
}

// Short is the version with the commit appended: "1.4.0+a1b2c3d".
func Short() string {
	i := Get()
	if i.Commit == "" {
		return i.Version
	}
	return i.Version + "+" + i.Commit
}

// Full is the line printed by "audiopen version".
func Full() string {
	i := Get()
	s := "audiopen " + i.String() + " " + i.Go + " " + runtime.GOOS + "/" + runtime.GOARCH
	if !i.Date.IsZero() {
		s += " built " + i.Date.UTC().Format("2006-01-02")
	}
	return s
}

// UserAgent identifies audiopen to Supabase and the transcription function.
func UserAgent() string {
	return "audiopen/" + Short() + " (" + runtime.GOOS + ")"
}
