package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"branchkit/internal/branch"
	"branchkit/internal/config"
	"branchkit/internal/logger"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// configView is what 'config show' prints in structured formats
type configView struct {
	Path         string               `json:"path" yaml:"path"`
	Config       *config.GlobalConfig `json:"config" yaml:"config"`
	ActiveBranch branch.Config        `json:"active_branch_config" yaml:"active_branch_config"`
}

// ConfigCommands creates configuration management commands
func ConfigCommands(cfg *config.GlobalConfig, svc BranchService) []*cobra.Command {
	commands := []*cobra.Command{}

	// branchkit config show
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Show the global configuration file and the branch config in effect.
The active branch config starts from the [branch] table and is replaced by
'branchkit config set-branch'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			path, err := config.Path()
			if err != nil {
				return err
			}
			view := configView{Path: path, Config: cfg, ActiveBranch: svc.BranchConfig()}
			return p.Print(view, func(w io.Writer) {
				fmt.Fprintln(w, Render(Dimmed, "# "+path))
				enc := toml.NewEncoder(w)
				enc.SetIndentTables(true)
				if err := enc.Encode(cfg); err != nil {
					logger.WithError(err).Warn("Failed to encode configuration")
				}
				fmt.Fprintln(w)
				fmt.Fprintln(w, Render(Bold, "Active branch config"))
				printBranchConfig(w, view.ActiveBranch)
			})
		},
	}
	commands = append(commands, showCmd)

	// branchkit config init
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			path, err := config.Path()
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}

			if err := config.DefaultGlobalConfig().SaveTo(path); err != nil {
				return err
			}
			return p.Outcome(map[string]string{"path": path}, true, fmt.Sprintf("Wrote default configuration to %s", path))
		},
	}
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	commands = append(commands, initCmd)

	// branchkit config set-branch
	setBranchCmd := &cobra.Command{
		Use:   "set-branch",
		Short: "Replace the active branch config",
		Long: `Update the branch config used for name generation. Flags left out keep
their current values. The result is validated before it replaces the
active config and is stored for later runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			next, err := branchConfigFlags(cmd, svc.BranchConfig())
			if err != nil {
				return err
			}
			if err := svc.UpdateConfig(cmd.Context(), next); err != nil {
				return err
			}
			active := svc.BranchConfig()
			return p.Print(active, func(w io.Writer) {
				fmt.Fprintln(w, Render(Success, "✓ ")+"Branch config updated")
				printBranchConfig(w, active)
			})
		},
	}
	setBranchCmd.Flags().String("pattern", "", "Prefix pattern using {workspace}, {username}, {machine} and {feature}")
	setBranchCmd.Flags().Int("max-length", 0, "Maximum branch name length")
	setBranchCmd.Flags().String("default-type", "", "Feature type used when none is given")
	setBranchCmd.Flags().StringSlice("allowed", nil, "Feature types offered as suggestions")
	setBranchCmd.Flags().Bool("auto-create", true, "Switch to branches after creating them")
	commands = append(commands, setBranchCmd)

	return commands
}

// branchConfigFlags applies the changed flags on top of current.
func branchConfigFlags(cmd *cobra.Command, current branch.Config) (branch.Config, error) {
	next := current
	flags := cmd.Flags()

	if flags.Changed("pattern") {
		next.BranchPrefixPattern, _ = flags.GetString("pattern")
	}
	if flags.Changed("max-length") {
		next.MaxBranchNameLength, _ = flags.GetInt("max-length")
	}
	if flags.Changed("default-type") {
		raw, _ := flags.GetString("default-type")
		ft, err := branch.ParseFeatureType(raw)
		if err != nil {
			return branch.Config{}, err
		}
		next.DefaultFeatureType = ft
	}
	if flags.Changed("allowed") {
		raw, _ := flags.GetStringSlice("allowed")
		allowed := make([]branch.FeatureType, 0, len(raw))
		for _, r := range raw {
			ft, err := branch.ParseFeatureType(r)
			if err != nil {
				return branch.Config{}, err
			}
			allowed = append(allowed, ft)
		}
		next.AllowedFeatureTypes = allowed
	}
	if flags.Changed("auto-create") {
		next.AutoCreateBranches, _ = flags.GetBool("auto-create")
	}
	return next, nil
}

func printBranchConfig(w io.Writer, c branch.Config) {
	fmt.Fprintf(w, "  Pattern:        %s\n", c.BranchPrefixPattern)
	fmt.Fprintf(w, "  Max length:     %d\n", c.MaxBranchNameLength)
	fmt.Fprintf(w, "  Default type:   %s\n", c.DefaultFeatureType)
	fmt.Fprintf(w, "  Allowed types:  %v\n", c.AllowedFeatureTypes)
	fmt.Fprintf(w, "  Auto switch:    %t\n", c.AutoCreateBranches)
}
