package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewDebugCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Diagnostics tools",
	}
	cmd.AddCommand(newDebugServeCmd(deps))
	return cmd
}

func newDebugServeCmd(deps *Dependencies) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagnostics panel until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				deps.Config.Diagnostics.Server.Port = port
			}
			a, err := deps.newApp()
			if err != nil {
				return err
			}
			srv, err := a.EnableDebugPanel()
			if err != nil {
				return err
			}
			a.OnReady(func(context.Context) error {
				NewFormatter(cmd.OutOrStdout()).Info(fmt.Sprintf("Diagnostics panel on http://%s", srv.Addr()))
				return nil
			})
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default: diagnostics.server.port)")

	return cmd
}
