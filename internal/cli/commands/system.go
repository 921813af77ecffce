package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// SystemCommands creates system identity commands
func SystemCommands(svc BranchService) []*cobra.Command {
	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show the identity used in branch names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd)
			if err != nil {
				return err
			}
			info := svc.SystemInfo()
			return p.Print(info, func(w io.Writer) {
				fmt.Fprintf(w, "Username: %s\n", info.Username)
				fmt.Fprintf(w, "Machine:  %s\n", info.MachineName)
				fmt.Fprintf(w, "OS:       %s\n", info.OSType)
			})
		},
	}
	return []*cobra.Command{infoCmd}
}
