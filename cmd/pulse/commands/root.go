package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "IndexPulse - composite sell/hold/buy signals for market indices",
	Long: `IndexPulse Unified CLI

Produces a composite sell/hold/buy score for tracked market indices from
technical, macro and event signals, with resilient price-history
acquisition and a replay backtest engine.

Usage:
  go run ./cmd/pulse [command]

Examples:
  go run ./cmd/pulse api
  go run ./cmd/pulse snapshot --index SP500
  go run ./cmd/pulse backtest run --from 2019-01-01 --to 2024-01-01 --cash 1000000
  go run ./cmd/pulse scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
