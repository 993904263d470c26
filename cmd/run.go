package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/encodeous/routesim/sim"
	"github.com/encodeous/routesim/state"
	"github.com/goccy/go-yaml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var (
	runYaml    bool
	runMetrics bool
)

type nodeReport struct {
	Node   state.NodeId  `yaml:"node"`
	Routes []state.Route `yaml:"routes"`
}

type runReport struct {
	Engine   state.EngineKind `yaml:"engine"`
	Duration state.Duration   `yaml:"duration"`
	Nodes    []nodeReport     `yaml:"nodes"`
	Probes   []*sim.Probe     `yaml:"probes,omitempty"`
}

func newRunReport(n *sim.Network, cfg *state.Scenario) runReport {
	r := runReport{
		Engine:   cfg.Engine,
		Duration: cfg.Duration,
		Probes:   n.Probes(),
	}
	routes := n.Routes()
	for _, id := range n.NodeIds() {
		r.Nodes = append(r.Nodes, nodeReport{Node: id, Routes: routes[id]})
	}
	return r
}

func (r runReport) WriteText(w io.Writer) {
	fmt.Fprintf(w, "engine: %s, ran for %s\n", r.Engine, r.Duration.Std())
	for _, node := range r.Nodes {
		fmt.Fprintf(w, "\n%s:\n", node.Node)
		for _, route := range node.Routes {
			fmt.Fprintf(w, "  %s\n", route)
		}
	}
	if len(r.Probes) != 0 {
		fmt.Fprintf(w, "\nprobes:\n")
		for _, p := range r.Probes {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
}

// writeMetrics dumps the engine counters in the prometheus text format
func writeMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "routesim_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <scenario>",
	Short: "Run a scenario and print every node's routing table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, cfg, err := simulate(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		report := newRunReport(n, cfg)
		if runYaml {
			data, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
		} else {
			report.WriteText(out)
		}
		if runMetrics {
			fmt.Fprintln(out)
			return writeMetrics(out)
		}
		return nil
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runYaml, "yaml", "y", false, "Print the result as yaml")
	runCmd.Flags().BoolVarP(&runMetrics, "metrics", "m", false, "Print engine counters in the prometheus text format")
}
