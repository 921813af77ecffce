package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"branchkit/internal/branch"
	"branchkit/internal/git"
	"branchkit/internal/service"

	"github.com/spf13/cobra"
)

// BranchCommands creates branch naming and automation commands
func BranchCommands(svc BranchService) []*cobra.Command {
	commands := []*cobra.Command{}

	// branchkit branch list [path]
	listCmd := &cobra.Command{
		Use:     "list [path]",
		Short:   "List local branches",
		Aliases: []string{"ls"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			branches, err := svc.ListBranches(cmd.Context(), pathArg(args))
			if err != nil {
				return err
			}
			return p.Print(branches, func(w io.Writer) { printBranches(w, branches) })
		},
	}
	commands = append(commands, listCmd)

	// branchkit branch create --workspace <name> [path]
	createCmd := &cobra.Command{
		Use:   "create [path]",
		Short: "Create a generated branch",
		Long: `Generate a branch name for the workspace and create it in the repository.
An existing branch with the same name is left untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			pattern, err := patternFlags(cmd, svc)
			if err != nil {
				return err
			}

			req := service.CreateBranchRequest{Pattern: pattern}
			if base, _ := cmd.Flags().GetString("base"); base != "" {
				req.BaseBranch = &base
			}
			req.AutoSwitch, _ = cmd.Flags().GetBool("switch")
			if !cmd.Flags().Changed("switch") {
				req.AutoSwitch = svc.BranchConfig().AutoCreateBranches
			}

			result, err := svc.CreateBranch(cmd.Context(), pathArg(args), req)
			if err != nil {
				return err
			}
			return p.Print(result, func(w io.Writer) {
				switch {
				case result.Created:
					fmt.Fprintln(w, Render(Success, "✓ ")+result.Message)
				case strings.HasSuffix(result.Message, "already exists"):
					fmt.Fprintln(w, Render(Warning, "• ")+result.Message)
				default:
					fmt.Fprintln(w, Render(Failure, "✗ ")+result.Message)
				}
			})
		},
	}
	addPatternFlags(createCmd)
	createCmd.Flags().String("base", "", "Branch to create from (default: current branch)")
	createCmd.Flags().Bool("switch", false, "Check out the new branch (default: the auto_create_branches setting)")
	commands = append(commands, createCmd)

	// branchkit branch generate --workspace <name>
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a generated branch name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			pattern, err := patternFlags(cmd, svc)
			if err != nil {
				return err
			}
			name, err := svc.GenerateBranchName(pattern)
			if err != nil {
				return err
			}
			return p.Print(map[string]string{"branch_name": name}, func(w io.Writer) {
				fmt.Fprintln(w, name)
			})
		},
	}
	addPatternFlags(generateCmd)
	commands = append(commands, generateCmd)

	// branchkit branch suggest --workspace <name>
	suggestCmd := &cobra.Command{
		Use:   "suggest",
		Short: "Show the pattern built from this machine's identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			workspace, _ := cmd.Flags().GetString("workspace")
			ft, err := featureTypeFlag(cmd)
			if err != nil {
				return err
			}
			pattern := svc.SuggestBranchPattern(workspace, ft)
			return p.Print(pattern, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "Workspace:\t%s\n", pattern.Workspace)
				fmt.Fprintf(tw, "Username:\t%s\n", pattern.Username)
				fmt.Fprintf(tw, "Machine:\t%s\n", pattern.Machine)
				fmt.Fprintf(tw, "Feature type:\t%s\n", pattern.FeatureType)
				tw.Flush()
			})
		},
	}
	suggestCmd.Flags().StringP("workspace", "w", "", "Workspace name")
	suggestCmd.Flags().StringP("type", "t", "", "Feature type (default: the configured default)")
	_ = suggestCmd.MarkFlagRequired("workspace")
	commands = append(commands, suggestCmd)

	// branchkit branch suggestions <workspace>
	suggestionsCmd := &cobra.Command{
		Use:   "suggestions <workspace>",
		Short: "Show a candidate name for every allowed feature type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			suggestions := svc.GetSuggestedBranches(args[0])
			return p.Print(suggestions, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				for _, s := range suggestions {
					fmt.Fprintf(tw, "%s\t%s\n", Render(Dimmed, string(s.FeatureType)), s.BranchName)
				}
				tw.Flush()
			})
		},
	}
	commands = append(commands, suggestionsCmd)

	// branchkit branch history
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show branches created by branchkit, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			entries, err := svc.GetBranchHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return p.Print(entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, Render(Dimmed, "No branches recorded yet"))
					return
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\n", Render(Dimmed, e.CreatedAt.Local().Format("2006-01-02 15:04")), e.BranchName)
				}
				tw.Flush()
			})
		},
	}
	historyCmd.Flags().IntP("limit", "n", 0, "Maximum entries to show (default 50)")
	commands = append(commands, historyCmd)

	return commands
}

func addPatternFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("workspace", "w", "", "Workspace name")
	cmd.Flags().StringP("type", "t", "", "Feature type (default: the configured default)")
	cmd.Flags().StringP("description", "d", "", "Short description appended to the name")
	cmd.Flags().String("username", "", "Override the detected username")
	cmd.Flags().String("machine", "", "Override the detected machine name")
	_ = cmd.MarkFlagRequired("workspace")
}

// patternFlags builds a pattern from the detected identity and the flags.
func patternFlags(cmd *cobra.Command, svc BranchService) (branch.Pattern, error) {
	workspace, _ := cmd.Flags().GetString("workspace")
	ft, err := featureTypeFlag(cmd)
	if err != nil {
		return branch.Pattern{}, err
	}

	pattern := svc.SuggestBranchPattern(workspace, ft)
	if username, _ := cmd.Flags().GetString("username"); username != "" {
		pattern.Username = username
	}
	if machine, _ := cmd.Flags().GetString("machine"); machine != "" {
		pattern.Machine = machine
	}
	if desc, _ := cmd.Flags().GetString("description"); desc != "" {
		pattern.Description = &desc
	}
	return pattern, nil
}

func featureTypeFlag(cmd *cobra.Command) (*branch.FeatureType, error) {
	raw, _ := cmd.Flags().GetString("type")
	if raw == "" {
		return nil, nil
	}
	ft, err := branch.ParseFeatureType(raw)
	if err != nil {
		return nil, err
	}
	return &ft, nil
}

func printBranches(w io.Writer, branches []git.Branch) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, b := range branches {
		marker := "  "
		name := b.Name
		if b.IsCurrent {
			marker = Render(Success, "* ")
			name = Render(Bold, name)
		}
		hash, message := "", ""
		if b.LastCommitHash != nil && len(*b.LastCommitHash) >= 7 {
			hash = (*b.LastCommitHash)[:7]
		}
		if b.LastCommitMessage != nil {
			message = *b.LastCommitMessage
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\n", marker, name, Render(Dimmed, hash), message)
	}
	tw.Flush()
}
