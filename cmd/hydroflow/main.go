// HydroFlow - Water distribution network simulation toolkit
// Runs hydraulic and quality simulations, loads leakage-detection
// benchmarks, and serves a REST API around both.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hydroflow",
	Short: "HydroFlow - Water network simulation and leakage benchmarks",
	Long: `HydroFlow simulates water distribution networks from EPANET .inp files,
loads leakage-detection benchmark datasets, and exposes both through a
REST API.

Examples:
  hydroflow simulate -i network.inp -o readings.hydro_scada
  hydroflow benchmark battledim --variant train
  hydroflow serve --port 8080`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}
