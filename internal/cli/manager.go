package cli

import (
	"context"
	"io"

	"branchkit/internal/cli/commands"
	"branchkit/internal/config"
	"branchkit/internal/logger"

	"github.com/spf13/cobra"
)

// Dependencies are the collaborators the commands drive
type Dependencies struct {
	Config      *config.GlobalConfig
	Service     commands.BranchService
	Credentials commands.CredentialStore
	Serve       commands.ServeFunc
}

// Manager handles CLI operations
type Manager struct {
	deps    Dependencies
	rootCmd *cobra.Command
}

// New creates a new CLI manager
func New(deps Dependencies) *Manager {
	m := &Manager{
		deps:    deps,
		rootCmd: createRootCommand(),
	}
	m.rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			logger.SetLevel(level)
		}
	}
	m.setupCommands()
	return m
}

// SetOutput redirects command output, mostly for tests
func (m *Manager) SetOutput(out, errOut io.Writer) {
	m.rootCmd.SetOut(out)
	m.rootCmd.SetErr(errOut)
}

// Execute executes the CLI with the given arguments
func (m *Manager) Execute(args []string) error {
	return m.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext executes the CLI with the given arguments and context
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	return commands.HandleError(m.rootCmd.ExecuteContext(ctx))
}

// setupCommands sets up all CLI commands
func (m *Manager) setupCommands() {
	repoCmd := &cobra.Command{
		Use:     "repo",
		Short:   "Repository commands",
		Aliases: []string{"repository"},
	}
	for _, cmd := range commands.RepoCommands(m.deps.Service) {
		repoCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(repoCmd)

	branchCmd := &cobra.Command{
		Use:     "branch",
		Short:   "Branch naming and creation commands",
		Aliases: []string{"br"},
	}
	for _, cmd := range commands.BranchCommands(m.deps.Service) {
		branchCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(branchCmd)

	credsCmd := &cobra.Command{
		Use:     "creds",
		Short:   "Credential vault commands",
		Aliases: []string{"credentials"},
	}
	for _, cmd := range commands.CredsCommands(m.deps.Credentials) {
		credsCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(credsCmd)

	configCmd := &cobra.Command{
		Use:     "config",
		Short:   "Configuration management commands",
		Aliases: []string{"cfg"},
	}
	for _, cmd := range commands.ConfigCommands(m.deps.Config, m.deps.Service) {
		configCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(configCmd)

	systemCmd := &cobra.Command{
		Use:   "system",
		Short: "System identity commands",
	}
	for _, cmd := range commands.SystemCommands(m.deps.Service) {
		systemCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(systemCmd)

	m.rootCmd.AddCommand(commands.ServerCommand(m.deps.Config, m.deps.Serve))
}
