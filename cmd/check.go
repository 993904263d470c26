package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <scenario>",
	Short: "Run a scenario and verify every node converged to shortest paths",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _, err := simulate(args[0])
		if err != nil {
			return err
		}
		mismatches := n.VerifyConvergence()
		for _, m := range mismatches {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		if len(mismatches) != 0 {
			return fmt.Errorf("%d routes did not converge", len(mismatches))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "all %d nodes converged\n", len(n.NodeIds()))
		return nil
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
