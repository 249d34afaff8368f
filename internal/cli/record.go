package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/audiopen/app"
	"github.com/kbukum/audiopen/catalog"
	"github.com/kbukum/audiopen/resilience"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var duration time.Duration
	var title string
	var retries int

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record audio and save it to the catalog",
		Long:  "Record from the configured capture device until --duration elapses or Ctrl+C is pressed, then upload the audio and add it to the catalog.\nA failed save is retried from the step that failed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				f.RecordingStarted(duration)
				rec, err := a.Record(ctx, duration, title, f.Tick)
				if err != nil {
					rec, err = retrySave(ctx, a, f, err, retries)
				}
				if err != nil {
					return err
				}
				f.RecordingSaved(rec)
				return nil
			})
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (default: until Ctrl+C)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Recording title (default: Recording <date>)")
	cmd.Flags().IntVar(&retries, "save-retries", 3, "Attempts to finish a failed save")

	return cmd
}

// retrySave finishes a save that failed after the audio was captured.
// Nothing is retried when the failure happened before a save was pending.
func retrySave(ctx context.Context, a *app.App, f *Formatter, cause error, attempts int) (catalog.Recording, error) {
	if _, ok := a.Saver.Pending(); !ok || attempts <= 0 {
		return catalog.Recording{}, cause
	}
	saveCtx := context.WithoutCancel(ctx)
	return resilience.Retry(saveCtx, resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2,
		RetryIf: func(error) bool {
			_, ok := a.Saver.Pending()
			return ok
		},
	}, func(attempt int) (catalog.Recording, error) {
		p, _ := a.Saver.Pending()
		f.Warning(fmt.Sprintf("save failed at %s: %v (attempt %d/%d)", p.Step, p.Err, attempt, attempts))
		return a.Saver.Retry(saveCtx)
	})
}
