package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kbukum/audiopen/app"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/prompt"
)

func NewTranscribeCmd(deps *Dependencies) *cobra.Command {
	var promptID string
	var custom string
	var outDir string

	cmd := &cobra.Command{
		Use:   "transcribe <recording-id>",
		Short: "Transcribe a recording with a prompt",
		Long:  "Transcribe a saved recording. --prompt takes a built-in or saved prompt id; --custom sends one-off instructions instead.\nWith --out the text is written to <title>_transcription.txt in that directory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if custom != "" && !cmd.Flags().Changed("prompt") {
				promptID = prompt.CustomPromptID
			}
			f := NewFormatter(cmd.ErrOrStderr())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				f.Info("Transcribing " + args[0] + "...")
				res, err := a.Transcribe(ctx, args[0], promptID, custom)
				if err != nil {
					if wait, ok := apperrors.RetryAfter(err); ok {
						return fmt.Errorf("%w (try again in %s)", err, wait)
					}
					return err
				}
				if outDir == "" {
					fmt.Fprintln(cmd.OutOrStdout(), res.Text)
					return nil
				}
				path := filepath.Join(outDir, res.Filename())
				if err := os.WriteFile(path, []byte(res.Text), 0o644); err != nil {
					return fmt.Errorf("writing transcription: %w", err)
				}
				f.Success("Transcription saved: " + path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&promptID, "prompt", "p", prompt.BasicTranscriptionID, "Prompt id")
	cmd.Flags().StringVar(&custom, "custom", "", "Custom instructions for the custom-prompt built-in")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write the transcription file to")

	return cmd
}
