package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/audiopen/app"
	"github.com/kbukum/audiopen/config"
	"github.com/kbukum/audiopen/util"
	"github.com/kbukum/audiopen/version"
)

// EnvPrefix prefixes the environment variables that override config keys,
// for example AUDIOPEN_SUPABASE_URL.
const EnvPrefix = "AUDIOPEN"

// Dependencies is shared by every command. Config is loaded before the
// first command runs unless it is already set.
type Dependencies struct {
	Config  *app.Config
	Options []app.Option

	configFile string
	envFile    string
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "audiopen",
		Short:         "Record voice notes, keep them in a catalog and transcribe them",
		Long:          "audiopen records audio from the default input device, uploads it to object storage, keeps a per-user catalog of recordings and transcribes them with reusable prompts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return deps.load()
		},
	}

	rootCmd.Version = version.Short()
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.PersistentFlags().StringVar(&deps.configFile, "config", "", "Config file (default: ./config.yml or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&deps.envFile, "env-file", "", "Env file loaded before the environment")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewRenameCmd(deps))
	rootCmd.AddCommand(NewDeleteCmd(deps))
	rootCmd.AddCommand(NewTranscribeCmd(deps))
	rootCmd.AddCommand(NewPromptsCmd(deps))
	rootCmd.AddCommand(NewDebugCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

func (d *Dependencies) load() error {
	if d.Config != nil {
		return nil
	}
	var opts []config.LoaderOption
	if d.configFile != "" {
		opts = append(opts, config.WithConfigFile(d.configFile))
	}
	if d.envFile != "" {
		opts = append(opts, config.WithEnvFile(d.envFile))
	}
	opts = append(opts, config.WithEnvPrefix(EnvPrefix))

	var cfg app.Config
	if err := config.LoadConfig("audiopen", &cfg, opts...); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Version = util.Coalesce(cfg.Version, version.Short())
	d.Config = &cfg
	return nil
}

func (d *Dependencies) newApp() (*app.App, error) {
	a, err := app.New(d.Config, d.Options...)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// run builds the App, starts it for the length of task and shuts it down.
func (d *Dependencies) run(cmd *cobra.Command, task func(ctx context.Context, a *app.App) error) error {
	a, err := d.newApp()
	if err != nil {
		return err
	}
	return a.RunTask(cmd.Context(), task)
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		},
	}
}
