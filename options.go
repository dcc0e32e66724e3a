package statustally

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

// tallyConfig holds mutable state during Tally construction.
type tallyConfig struct {
	servers          []string
	scrapers         int
	aggregators      int
	timeout          time.Duration
	maxAttempts      int
	reportPath       string
	output           io.Writer
	logger           *slog.Logger
	outcomeCallbacks []func(PollOutcome)
}

// Option is a function that configures a [Tally] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*tallyConfig) error

// WithServers adds server identifiers (host or host:port) to poll.
//
// Can be called multiple times; identifiers are polled in the order given.
// Duplicates are kept and polled independently.
//
// Example:
//
//	t, err := statustally.New(
//	    statustally.WithServers("app1:8080", "app2:8080"),
//	)
func WithServers(ids ...string) Option {
	return func(cfg *tallyConfig) error {
		cfg.servers = append(cfg.servers, ids...)
		return nil
	}
}

// WithScrapers sets the number of concurrent poller workers.
// Defaults to 2.
//
// Returns an error if n is less than 1.
func WithScrapers(n int) Option {
	return func(cfg *tallyConfig) error {
		if n < 1 {
			return errors.New("number of scrapers must be at least 1")
		}
		cfg.scrapers = n
		return nil
	}
}

// WithAggregators sets the number of concurrent aggregator workers.
// Defaults to 1.
//
// Returns an error if n is less than 1.
func WithAggregators(n int) Option {
	return func(cfg *tallyConfig) error {
		if n < 1 {
			return errors.New("number of aggregators must be at least 1")
		}
		cfg.aggregators = n
		return nil
	}
}

// WithTimeout sets the per-request timeout for every status poke.
// Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *tallyConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithMaxAttempts sets how many times a server returning a non-200, non-404
// status (or failing at the transport level) is polled before it is given up.
// Defaults to 5.
//
// Returns an error if n is less than 1.
func WithMaxAttempts(n int) Option {
	return func(cfg *tallyConfig) error {
		if n < 1 {
			return errors.New("max attempts must be at least 1")
		}
		cfg.maxAttempts = n
		return nil
	}
}

// WithReportPath sets the file the CSV report is saved to at the end of a
// run. An empty path disables saving.
func WithReportPath(path string) Option {
	return func(cfg *tallyConfig) error {
		cfg.reportPath = path
		return nil
	}
}

// WithOutput sets a writer that receives the human-readable success-rate
// lines at the end of a run. Nil disables printing.
func WithOutput(w io.Writer) Option {
	return func(cfg *tallyConfig) error {
		cfg.output = w
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Tally instance.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *tallyConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithOutcomeCallback registers a function called with every classified poll
// attempt, including retried failures.
//
// Callbacks are invoked from poller workers and may run concurrently with
// each other; they must be safe for concurrent use and non-blocking. Panics
// are recovered and logged. Nil callbacks are silently ignored.
//
// Example:
//
//	t, err := statustally.New(
//	    statustally.WithServers(ids...),
//	    statustally.WithOutcomeCallback(func(o statustally.PollOutcome) {
//	        if o.Kind == statustally.OutcomeGaveUp {
//	            alerts.Send(o.Server)
//	        }
//	    }),
//	)
func WithOutcomeCallback(cb func(PollOutcome)) Option {
	return func(cfg *tallyConfig) error {
		if cb == nil {
			return nil
		}
		cfg.outcomeCallbacks = append(cfg.outcomeCallbacks, cb)
		return nil
	}
}
