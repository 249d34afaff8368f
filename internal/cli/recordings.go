package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/audiopen/app"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved recordings, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				recs, err := a.Catalog.Load(ctx)
				if err != nil {
					return err
				}
				f.Recordings(recs)
				return nil
			})
		},
	}
}

func NewRenameCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <recording-id> <title>",
		Short: "Rename a recording",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				if _, err := a.Recording(ctx, args[0]); err != nil {
					return err
				}
				if err := a.Catalog.Rename(ctx, args[0], args[1]); err != nil {
					return err
				}
				f.Success("Renamed " + args[0])
				return nil
			})
		},
	}
}

func NewDeleteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <recording-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a recording and its stored audio",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				if _, err := a.Recording(ctx, args[0]); err != nil {
					return err
				}
				if err := a.Catalog.Delete(ctx, args[0]); err != nil {
					return err
				}
				f.Success("Deleted " + args[0])
				return nil
			})
		},
	}
}
