package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/audiopen/app"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, components and the capture device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				s := a.Summarize(ctx)
				s.Print(cmd.OutOrStdout())
				if !s.Healthy() {
					f.Warning("\nSome checks failed.")
					return fmt.Errorf("doctor: unhealthy")
				}
				f.Success("\nAll checks passed. Ready to record!")
				return nil
			})
		},
	}
}
