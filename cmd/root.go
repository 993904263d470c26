package cmd

import (
	"os"
	"strings"

	"github.com/encodeous/routesim/state"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "routesim",
	Short: "Routing protocol simulator",
	Long: `routesim runs distance vector or link state routing engines over a simulated network.
Scenarios describe the nodes, weighted links, timed link failures and traceroute probes.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		state.DBG_log_router = viper.GetBool("lroute")
		state.DBG_log_route_table = viper.GetBool("ltable")
		state.DBG_log_probe = viper.GetBool("lprobe")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "sim",
		Title: "Simulation Commands",
	})

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.String("log-path", "", "Also write logs to this file")
	flags.StringP("engine", "e", "", "Override the scenario's routing engine (dv or ls)")
	flags.BoolP("lroute", "r", false, "Write router updates to the console")
	flags.BoolP("ltable", "t", false, "Write route tables to the console after every change")
	flags.BoolP("lprobe", "p", false, "Write every probe hop to the console")

	// every flag can also be set as ROUTESIM_<FLAG>, e.g. ROUTESIM_LOG_PATH
	viper.SetEnvPrefix("routesim")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}
