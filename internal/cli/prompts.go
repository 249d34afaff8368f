package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/audiopen/app"
	"github.com/kbukum/audiopen/prompt"
)

func NewPromptsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage transcription prompts",
	}
	cmd.AddCommand(newPromptsListCmd(deps))
	cmd.AddCommand(newPromptsAddCmd(deps))
	cmd.AddCommand(newPromptsFavoriteCmd(deps))
	cmd.AddCommand(newPromptsRemoveCmd(deps))
	return cmd
}

func newPromptsListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and saved prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Prompts.List(ctx)
				if err != nil {
					return err
				}
				f.Prompts(a.Prompts.Builtins(), user)
				return nil
			})
		},
	}
}

func newPromptsAddCmd(deps *Dependencies) *cobra.Command {
	var d prompt.Draft

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				p, err := a.Prompts.Create(ctx, d)
				if err != nil {
					return err
				}
				f.Success("Saved prompt " + p.Name + " as " + p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&d.Name, "name", "", "Prompt name")
	cmd.Flags().StringVar(&d.Text, "text", "", "Prompt instructions")
	cmd.Flags().StringVar(&d.Category, "category", "", "Prompt category")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func newPromptsFavoriteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <prompt-id>",
		Short: "Toggle the favorite mark on a saved prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				p, err := a.Prompts.ToggleFavorite(ctx, args[0])
				if err != nil {
					return err
				}
				if p.IsFavorite {
					f.Success(p.Name + " marked as favorite")
				} else {
					f.Success(p.Name + " unmarked")
				}
				return nil
			})
		},
	}
}

func newPromptsRemoveCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <prompt-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved prompt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			return deps.run(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Prompts.Delete(ctx, args[0]); err != nil {
					return err
				}
				f.Success("Removed prompt " + args[0])
				return nil
			})
		},
	}
}
