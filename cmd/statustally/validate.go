package main

import (
	"fmt"

	"github.com/jpalmerr/statustally/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without polling anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a StatusTally configuration file without polling any server.

This command parses the YAML, expands environment variables, validates
all fields, and reads the servers file if one is referenced. It's useful
for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  statustally validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	servers, err := config.ResolveServers(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	source := "inline"
	switch {
	case cfg.Servers.IsFile():
		source = cfg.Servers.Path
	case cfg.Servers.IsGrid():
		source = "grid"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Servers:      %d (%s)\n", len(servers), source)
	fmt.Printf("  Scrapers:     %d\n", cfg.NumScrapers)
	fmt.Printf("  Aggregators:  %d\n", cfg.NumAggregators)
	fmt.Printf("  Timeout:      %s\n", cfg.Timeout.Duration())
	fmt.Printf("  Max attempts: %d\n", cfg.MaxAttempts)
	fmt.Printf("  Report:       %s\n", cfg.ReportPath)

	return nil
}
