package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/jpalmerr/statustally"
)

// BuildOptions converts parsed configuration into [statustally.Option]
// values. The servers file, if any, is read here.
func BuildOptions(cfg *Config) ([]statustally.Option, error) {
	servers, err := ResolveServers(cfg)
	if err != nil {
		return nil, err
	}

	return []statustally.Option{
		statustally.WithServers(servers...),
		statustally.WithScrapers(cfg.NumScrapers),
		statustally.WithAggregators(cfg.NumAggregators),
		statustally.WithTimeout(cfg.Timeout.Duration()),
		statustally.WithMaxAttempts(cfg.MaxAttempts),
		statustally.WithReportPath(cfg.ReportPath),
	}, nil
}

// Level returns the slog level for the configured log_level.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a JSON logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: c.Level(),
	}))
}
