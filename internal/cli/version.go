package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wahlumfragen %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", Commit)
			fmt.Fprintf(out, "  built:  %s\n", Date)
		},
	}
}
