package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release version stamped into the binary
const Version = "0.3.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the eventcat version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "eventcat v%s\n", Version)
			return nil
		},
	}
}
