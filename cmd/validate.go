package cmd

import (
	"fmt"

	"github.com/encodeous/routesim/state"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var printExpanded bool

var validateCmd = &cobra.Command{
	Use:   "validate <scenario>",
	Short: "Checks a scenario without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readScenario(args[0])
		if err != nil {
			return err
		}
		if err := state.ExpandScenario(cfg); err != nil {
			return err
		}
		if err := state.ScenarioValidator(cfg); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "scenario is valid: %d nodes, %d links, %d events, %d probes\n",
			len(cfg.Nodes), len(cfg.Links), len(cfg.Events), len(cfg.Probes))
		if printExpanded {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
		}
		return nil
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&printExpanded, "print", false, "Print the scenario after defaults and graph expansion")
}
