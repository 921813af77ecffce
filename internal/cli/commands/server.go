package commands

import (
	"context"
	"fmt"

	"branchkit/internal/config"
	"branchkit/internal/constants"
	"branchkit/internal/validation"

	"github.com/spf13/cobra"
)

// ServeFunc runs the HTTP API until ctx is cancelled
type ServeFunc func(ctx context.Context, host string, port int) error

// ServerCommand creates the command that runs the HTTP API in the foreground
func ServerCommand(cfg *config.GlobalConfig, serve ServeFunc) *cobra.Command {
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API server",
		Long: `Run the branchkit HTTP API in the foreground until interrupted. The API
exposes the same repository, branch and credential operations as the CLI,
plus a WebSocket endpoint that streams clone progress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			if err := validation.PortNumber(port); err != nil {
				return err
			}
			if serve == nil {
				return fmt.Errorf("server is not available")
			}
			return serve(cmd.Context(), host, port)
		},
	}

	host, port := constants.DefaultServerHost, constants.DefaultServerPort
	if cfg != nil {
		host, port = cfg.Server.Host, cfg.Server.Port
	}
	serverCmd.Flags().String("host", host, "Address to bind")
	serverCmd.Flags().IntP("port", "p", port, "Port to run the server on")

	return serverCmd
}
