// Package main is the entry point for the statustally CLI.
//
// Usage:
//
//	statustally run -c config.yaml      # Poll every server and write the report
//	statustally validate -c config.yaml # Validate configuration
//	statustally version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "statustally",
	Short: "Tally success counts from a fleet of /status endpoints",
	Long: `StatusTally polls the /status endpoint of every configured server once,
sums the reported success counts per application and version, and writes
a success-rate report.

Quick start:
  1. Create a config file (statustally.yaml)
  2. Run: statustally run -c statustally.yaml
  3. Read report.csv

Example config:
  servers:
    - billing-1.internal:8080
    - billing-2.internal:8080
  num_scrapers: 4
  num_aggregators: 1
  report_path: report.csv`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this statustally binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("statustally %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
