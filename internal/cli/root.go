package cli

import (
	"branchkit/internal/cli/commands"

	"github.com/spf13/cobra"
)

// createRootCommand creates the root command with global flags
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "branchkit",
		Short: "Git repository and branch automation",
		Long: `branchkit clones and inspects Git repositories, keeps their credentials in
the OS keyring, and creates branches whose names follow a configurable
pattern built from the workspace, your username and this machine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP(commands.OutputFlag, "o", commands.FormatText, "Output format: text, json or yaml")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	return rootCmd
}
