// Package cli provides the command-line interface for the simulator.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wiresim",
	Short: "A discrete-event simulator of a shared wireless medium",
	Long: `Wiresim simulates a fixed set of stationary nodes exchanging
variable-size frames over a shared wireless medium, under one of three
medium-access schemes (pure ALOHA, trivial carrier sensing, p-persistent
carrier sensing) and one of two propagation models.

Each run writes a CSV event log from which throughput, collision rate,
drop rate, and channel corruption rate can be computed per node.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}
