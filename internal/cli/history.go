package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"codenav/internal/engine"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent go-to-definition jumps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := engine.Open(homeDir, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		jumps, err := e.History(historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(jumps) == 0 {
			fmt.Fprintln(out, "No jumps recorded.")
			return nil
		}
		for _, j := range jumps {
			marker := ""
			if j.Fallback {
				marker = " (declaration)"
			}
			fmt.Fprintf(out, "%s  %s:%d:%d -> %s:%d:%d  %s%s\n",
				j.CreatedAt.Format("2006-01-02 15:04:05"),
				j.FromFile, j.FromLine, j.FromColumn,
				j.ToFile, j.ToLine, j.ToColumn,
				j.Symbol, marker)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of jumps to show")
	rootCmd.AddCommand(historyCmd)
}
