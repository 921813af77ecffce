package commands

import (
	"fmt"
	"io"
	"strings"

	"branchkit/internal/validation"
	"branchkit/internal/vault"

	"github.com/spf13/cobra"
)

// CredsCommands creates credential vault commands. Keys are normalised with
// vault.KeyForURL, so a remote URL and its host/path form name the same entry.
func CredsCommands(store CredentialStore) []*cobra.Command {
	commands := []*cobra.Command{}

	keyArg := func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return err
		}
		return validation.CredentialKey(args[0])
	}

	// branchkit creds store <key>
	storeCmd := &cobra.Command{
		Use:   "store <key-or-url>",
		Short: "Store credentials in the OS keyring",
		Args:  keyArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			creds, err := credentialFlags(cmd)
			if err != nil {
				return err
			}
			if creds == nil {
				return fmt.Errorf("at least one of --username, --password or --ssh-key is required")
			}

			key := vault.KeyForURL(args[0])
			if err := store.Store(key, *creds); err != nil {
				return err
			}
			return p.Outcome(map[string]string{"key": key}, true, fmt.Sprintf("Stored credentials for %s", key))
		},
	}
	addCredentialFlags(storeCmd)
	commands = append(commands, storeCmd)

	// branchkit creds get <key>
	getCmd := &cobra.Command{
		Use:   "get <key-or-url>",
		Short: "Show stored credentials",
		Args:  keyArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			key := vault.KeyForURL(args[0])
			creds, err := store.Get(key)
			if err != nil {
				return err
			}
			if show, _ := cmd.Flags().GetBool("show-secret"); !show && creds.Password != "" {
				creds.Password = strings.Repeat("*", 8)
			}
			return p.Print(creds, func(w io.Writer) {
				fmt.Fprintf(w, "Key:      %s\n", Render(Bold, key))
				fmt.Fprintf(w, "Username: %s\n", creds.Username)
				fmt.Fprintf(w, "Password: %s\n", creds.Password)
				if creds.SSHKeyPath != nil {
					fmt.Fprintf(w, "SSH key:  %s\n", *creds.SSHKeyPath)
				}
			})
		},
	}
	getCmd.Flags().Bool("show-secret", false, "Print the password instead of a mask")
	commands = append(commands, getCmd)

	// branchkit creds delete <key>
	deleteCmd := &cobra.Command{
		Use:     "delete <key-or-url>",
		Short:   "Delete stored credentials",
		Aliases: []string{"rm"},
		Args:    keyArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			key := vault.KeyForURL(args[0])
			if err := store.Delete(key); err != nil {
				return err
			}
			return p.Outcome(map[string]string{"key": key}, true, fmt.Sprintf("Deleted credentials for %s", key))
		},
	}
	commands = append(commands, deleteCmd)

	// branchkit creds exists <key>
	existsCmd := &cobra.Command{
		Use:   "exists <key-or-url>",
		Short: "Check whether credentials are stored",
		Args:  keyArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			key := vault.KeyForURL(args[0])
			exists := store.Exists(key)
			msg := fmt.Sprintf("Credentials stored for %s", key)
			if !exists {
				msg = fmt.Sprintf("No credentials stored for %s", key)
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

	return commands
}
