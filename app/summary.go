package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/component"
	"github.com/kbukum/audiopen/util"
)

// Check is one line of the doctor report.
type Check struct {
	Name    string
	OK      bool
	Details string
}

// Summary describes the running configuration and its health.
type Summary struct {
	Name          string
	Version       string
	Environment   string
	User          string
	Project       string
	Catalog       string
	Transcription string
	Components    []component.Description
	Health        []component.Health
	Checks        []Check
}

// Summarize collects the summary of a started App. The ffmpeg device is
// probed when it is the configured capture device.
func (a *App) Summarize(ctx context.Context) Summary {
	s := Summary{
		Name:          a.Name,
		Version:       a.Version,
		Environment:   a.Cfg.Environment,
		User:          "signed out",
		Project:       "none",
		Catalog:       a.Cfg.Catalog.Backend,
		Transcription: "disabled",
		Components:    a.Components.Describe(),
		Health:        a.Components.HealthAll(ctx),
	}
	if u, ok := a.Session.CurrentUser(); ok {
		s.User = u.ID
		if u.Email != "" {
			s.User += " <" + u.Email + ">"
		}
	}
	if sb := a.Cfg.Supabase; sb.URL != "" {
		key := util.Coalesce(sb.AnonKey, sb.ServiceKey)
		s.Project = sb.URL + " (key " + util.MaskSecret(key, 6) + ")"
	}
	if a.RPC != nil {
		s.Transcription = a.Cfg.Transcription.FunctionsURL + "/" + a.Cfg.Transcription.Function + " (circuit " + a.RPC.CircuitState().String() + ")"
	}

	device := a.device
	if device == nil && a.Cfg.Capture.Device == capture.DeviceFFmpeg {
		device = capture.NewFFmpegDevice(a.Cfg.Capture, a.Logger)
	}
	if ff, ok := device.(*capture.FFmpegDevice); ok {
		line, err := ff.Probe(ctx)
		if err != nil {
			s.Checks = append(s.Checks, Check{Name: "ffmpeg", Details: err.Error()})
		} else {
			s.Checks = append(s.Checks, Check{Name: "ffmpeg", OK: true, Details: line})
		}
	}
	if a.Catalog != nil {
		if recs, err := a.Catalog.Load(ctx); err != nil {
			s.Checks = append(s.Checks, Check{Name: "catalog", Details: err.Error()})
		} else {
			s.Checks = append(s.Checks, Check{Name: "catalog", OK: true, Details: fmt.Sprintf("%d recordings", len(recs))})
		}
	}
	return s
}

// Healthy reports whether every component and check passed.
func (s Summary) Healthy() bool {
	if component.Overall(s.Health) == component.StatusUnhealthy {
		return false
	}
	for _, c := range s.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Print writes the summary as a tree.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "%s %s (%s)\n", s.Name, s.Version, s.Environment)
	fmt.Fprintf(w, "   ├── user: %s\n", s.User)
	fmt.Fprintf(w, "   ├── project: %s\n", s.Project)
	fmt.Fprintf(w, "   ├── catalog: %s\n", s.Catalog)
	fmt.Fprintf(w, "   └── transcription: %s\n", s.Transcription)

	if len(s.Components) > 0 {
		fmt.Fprintf(w, "\nComponents\n")
		for i, d := range s.Components {
			fmt.Fprintf(w, "   %s %s [%s] %s\n", treePrefix(i, len(s.Components)), d.Name, d.Type, d.Details)
		}
	}
	if len(s.Health) > 0 {
		fmt.Fprintf(w, "\nHealth\n")
		for i, h := range s.Health {
			msg := ""
			if h.Message != "" {
				msg = " - " + h.Message
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", treePrefix(i, len(s.Health)), healthIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
	}
	if len(s.Checks) > 0 {
		fmt.Fprintf(w, "\nChecks\n")
		for i, c := range s.Checks {
			icon := "✅"
			if !c.OK {
				icon = "❌"
			}
			fmt.Fprintf(w, "   %s %s %s: %s\n", treePrefix(i, len(s.Checks)), icon, c.Name, c.Details)
		}
	}
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
