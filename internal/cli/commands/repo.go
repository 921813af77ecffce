package commands

import (
	"fmt"
	"io"
	"strings"

	"branchkit/internal/git"
	"branchkit/internal/validation"
	"branchkit/internal/vault"

	"github.com/spf13/cobra"
)

// RepoCommands creates repository commands
func RepoCommands(svc BranchService) []*cobra.Command {
	commands := []*cobra.Command{}

	// branchkit repo clone <url> <path>
	cloneCmd := &cobra.Command{
		Use:   "clone <url> <path>",
		Short: "Clone a repository",
		Long: `Clone a remote repository. SSH remotes are tried with the SSH agent,
then keys from the SSH directory, then any username and password given.
Credentials stored with 'branchkit creds store' for the remote are used
when none are passed on the command line.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			if err := validation.RemoteURL(args[0]); err != nil {
				return err
			}
			inline, err := credentialFlags(cmd)
			if err != nil {
				return err
			}

			var progress io.Writer
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet && !p.Structured() {
				progress = cmd.ErrOrStderr()
			}

			result, err := svc.CloneRepository(cmd.Context(), args[0], args[1], inline, progress)
			if err != nil {
				return err
			}
			return printResult(p, result)
		},
	}
	addCredentialFlags(cloneCmd)
	cloneCmd.Flags().BoolP("quiet", "q", false, "Do not print transfer progress")
	commands = append(commands, cloneCmd)

	// branchkit repo init <path>
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Initialize a repository on main",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			result, err := svc.InitializeRepository(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(p, result)
		},
	}
	commands = append(commands, initCmd)

	// branchkit repo status [path]
	statusCmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show working tree status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			status, err := svc.RepositoryStatus(cmd.Context(), pathArg(args))
			if err != nil {
				return err
			}
			return p.Print(status, func(w io.Writer) { printStatus(w, status) })
		},
	}
	commands = append(commands, statusCmd)

	// branchkit repo exists [path]
	existsCmd := &cobra.Command{
		Use:   "exists [path]",
		Short: "Check whether a path is a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			path := pathArg(args)
			exists, err := svc.RepositoryExists(cmd.Context(), path)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("%s is a git repository", path)
			if !exists {
				msg = fmt.Sprintf("%s is not a git repository", path)
			}
			if err := p.Outcome(map[string]bool{"exists": exists}, exists, msg); err != nil {
				return err
			}
			if !exists {
				return ErrOutcomeFailed
			}
			return nil
		},
	}
	commands = append(commands, existsCmd)

	// branchkit repo add [path]
	addCmd := &cobra.Command{
		Use:   "add [path]",
		Short: "Stage every change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			result, err := svc.AddAll(cmd.Context(), pathArg(args))
			if err != nil {
				return err
			}
			return printResult(p, result)
		},
	}
	commands = append(commands, addCmd)

	// branchkit repo commit [path] -m <message>
	commitCmd := &cobra.Command{
		Use:   "commit [path]",
		Short: "Commit the index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			message, _ := cmd.Flags().GetString("message")
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required")
			}
			result, err := svc.Commit(cmd.Context(), pathArg(args), message)
			if err != nil {
				return err
			}
			return printResult(p, result)
		},
	}
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	_ = commitCmd.MarkFlagRequired("message")
	commands = append(commands, commitCmd)

	return commands
}

func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("username", "", "Username for the remote")
	cmd.Flags().String("password", "", "Password or token for the remote")
	cmd.Flags().String("ssh-key", "", "Private key to offer before the conventional ones")
}

// credentialFlags returns nil when no credential flag was given.
func credentialFlags(cmd *cobra.Command) (*vault.Credentials, error) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	sshKey, _ := cmd.Flags().GetString("ssh-key")

	if username == "" && password == "" && sshKey == "" {
		return nil, nil
	}
	creds := &vault.Credentials{Username: username, Password: password}
	if sshKey != "" {
		creds.SSHKeyPath = &sshKey
	}
	return creds, nil
}

func printResult(p *Printer, result git.CloneResult) error {
	if err := p.Outcome(result, result.Success, result.Message); err != nil {
		return err
	}
	if !result.Success {
		return ErrOutcomeFailed
	}
	return nil
}

func printStatus(w io.Writer, s git.Status) {
	fmt.Fprintf(w, "On branch %s\n", Render(Bold, s.CurrentBranch))
	if s.IsClean {
		fmt.Fprintln(w, Render(Success, "Working tree clean"))
		return
	}
	section := func(title string, style func(string) string, files []string) {
		if len(files) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s\n", title)
		for _, f := range files {
			fmt.Fprintf(w, "  %s\n", style(f))
		}
	}
	section("Staged:", func(f string) string { return Render(Success, f) }, s.StagedFiles)
	section("Modified:", func(f string) string { return Render(Warning, f) }, s.ModifiedFiles)
	section("Untracked:", func(f string) string { return Render(Failure, f) }, s.UntrackedFiles)
}
