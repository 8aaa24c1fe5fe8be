// Command lapicque runs a leaky integrate-and-fire network, either as an
// HTTP service driven in real time or headless for a fixed number of ticks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lapicque",
		Short: "Integrate-and-fire neuron simulator",
		Long: `lapicque simulates a network of leaky integrate-and-fire neurons
connected by excitatory and inhibitory axons.

Configuration is read from the YAML file named by LAPICQUE_CONFIG and from
LAPICQUE_* environment variables.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newServeCmd(),
		newRunCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
