package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DocMAX/gamescope/internal/proctree"
)

func newTreeCmd() *cobra.Command {
	var pid int
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the live descendant set of a process",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid <= 0 {
				pid = os.Getpid()
			}
			scanner := proctree.NewScanner()
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", pid)
			for _, descendant := range scanner.Descendants(pid) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d\n", descendant)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pid, "pid", 0, "Root pid to inspect (defaults to this process)")
	return cmd
}
