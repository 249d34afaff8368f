package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/catalog"
	"github.com/kbukum/audiopen/prompt"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) RecordingStarted(d time.Duration) {
	if d > 0 {
		fmt.Fprintf(f.w, "🎙️  Recording for %s (Ctrl+C to stop early)\n", capture.FormatDuration(d))
		return
	}
	fmt.Fprintf(f.w, "🎙️  Recording... press Ctrl+C to stop\n")
}

func (f *Formatter) Tick(elapsed time.Duration) {
	fmt.Fprintf(f.w, "\r⏺  %s", capture.FormatDuration(elapsed))
}

func (f *Formatter) RecordingSaved(r catalog.Recording) {
	fmt.Fprintf(f.w, "\n✅ Saved %q (%s) as %s\n", r.Title, capture.FormatDuration(r.Duration()), r.ID)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) Recordings(recs []catalog.Recording) {
	if len(recs) == 0 {
		f.Info("No recordings found")
		return
	}
	tw := tabwriter.NewWriter(f.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLENGTH\tCREATED\tAUDIO")
	for _, r := range recs {
		audio := "ok"
		if err := catalog.Fetchable(r.AudioURL); err != nil {
			audio = err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Title, capture.FormatDuration(r.Duration()), r.CreatedAt.Local().Format("2006-01-02 15:04"), audio)
	}
	_ = tw.Flush()
}

func (f *Formatter) Prompts(builtins []prompt.Builtin, user []prompt.UserPrompt) {
	tw := tabwriter.NewWriter(f.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tUSES")
	for _, b := range builtins {
		fmt.Fprintf(tw, "%s\t%s\t%s\t-\n", b.ID, b.Name, b.Category)
	}
	for _, p := range user {
		name := p.Name
		if p.IsFavorite {
			name = "★ " + name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, name, p.Category, p.UsageCount)
	}
	_ = tw.Flush()
}
