package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/statustally"
	"github.com/jpalmerr/statustally/config"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

// runCmd polls every configured server once and writes the report.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll all servers and write the report",
	Long: `Poll every configured server's /status endpoint once and report
per-application, per-version success rates.

The run will:
  - Load configuration from the specified YAML file
  - Poll every server, retrying failures up to max_attempts times
  - Print one line per application and version to stdout
  - Write the CSV report to report_path

Interrupting the run (Ctrl+C or SIGTERM) stops polling; no report file is
written for a cancelled run.

Example:
  statustally run -c config.yaml
  statustally run -c config.yaml --report /tmp/report.csv
  statustally run -c config.yaml --profile cpu --profile-dir /tmp/prof`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	runCmd.Flags().String("report", "", "override report_path from the config file")
	runCmd.Flags().String("profile", "", "write a pprof profile of the run: cpu, mem, or goroutine")
	runCmd.Flags().String("profile-dir", ".", "directory for the profile written by --profile")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		cfg.ReportPath = reportPath
	}

	logger := cfg.NewLogger(os.Stderr)

	stopProfile, err := startProfile(cmd)
	if err != nil {
		return err
	}
	defer stopProfile()

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts,
		statustally.WithLogger(logger),
		statustally.WithOutput(cmd.OutOrStdout()),
	)

	tally, err := statustally.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create tally: %w", err)
	}

	logger.Info("config loaded",
		"servers", len(tally.Servers()),
		"num_scrapers", cfg.NumScrapers,
		"num_aggregators", cfg.NumAggregators,
		"report_path", cfg.ReportPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := tally.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("run complete",
		"run_id", summary.RunID,
		"rows", len(summary.Rows),
	)
	return nil
}

// startProfile starts the profiler selected by --profile and returns its
// stop function.
func startProfile(cmd *cobra.Command) (func(), error) {
	mode, _ := cmd.Flags().GetString("profile")
	dir, _ := cmd.Flags().GetString("profile-dir")

	var kind func(*profile.Profile)
	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		kind = profile.CPUProfile
	case "mem":
		kind = profile.MemProfile
	case "goroutine":
		kind = profile.GoroutineProfile
	default:
		return nil, fmt.Errorf("unknown profile %q: must be cpu, mem, or goroutine", mode)
	}

	p := profile.Start(kind, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook)
	return p.Stop, nil
}
