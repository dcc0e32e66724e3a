package statustally

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/statustally/internal/aggregator"
	"github.com/jpalmerr/statustally/internal/poller"
	"github.com/jpalmerr/statustally/internal/queue"
	"github.com/jpalmerr/statustally/internal/report"
)

const (
	defaultScrapers    = 2
	defaultAggregators = 1
	defaultMaxAttempts = 5
)

// Phase is a stage of a [Tally] run. Phases advance strictly in order.
type Phase string

const (
	PhaseSeeding   Phase = "seeding"
	PhasePolling   Phase = "polling"
	PhaseDraining  Phase = "draining"
	PhaseReporting Phase = "reporting"
)

// Tally polls a fixed set of servers once, aggregates their success counts,
// and reports per-version success rates.
//
// A Tally is created with [New] and executed with [Tally.Run]. Each Tally
// runs at most once.
type Tally struct {
	servers          []Server
	scrapers         int
	aggregators      int
	maxAttempts      int
	reportPath       string
	output           io.Writer
	logger           *slog.Logger
	outcomeCallbacks []func(PollOutcome)
	client           *poller.Client

	mu  sync.Mutex
	ran bool
}

// New creates a [Tally] with the given options.
//
// Defaults:
//   - Scrapers: 2
//   - Aggregators: 1
//   - Timeout: 10 seconds per request
//   - Max attempts: 5 per server
//
// An empty server list is valid; the run produces a header-only report.
// Returns an error if any option or server identifier is invalid.
func New(opts ...Option) (*Tally, error) {
	cfg := &tallyConfig{
		scrapers:    defaultScrapers,
		aggregators: defaultAggregators,
		timeout:     defaultServerTimeout,
		maxAttempts: defaultMaxAttempts,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	client := poller.NewClient()
	servers := make([]Server, 0, len(cfg.servers))
	for i, id := range cfg.servers {
		srv, err := NewServer(id)
		if err != nil {
			return nil, fmt.Errorf("servers[%d]: %w", i, err)
		}
		servers = append(servers, srv.withTransport(client, cfg.timeout))
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Tally{
		servers:          servers,
		scrapers:         cfg.scrapers,
		aggregators:      cfg.aggregators,
		maxAttempts:      cfg.maxAttempts,
		reportPath:       cfg.reportPath,
		output:           cfg.output,
		logger:           logger,
		outcomeCallbacks: cfg.outcomeCallbacks,
		client:           client,
	}, nil
}

// Servers returns a copy of the configured servers.
func (t *Tally) Servers() []Server {
	cp := make([]Server, len(t.servers))
	copy(cp, t.servers)
	return cp
}

// Run executes the pipeline to completion and returns the final [Summary].
//
// Run blocks through four phases:
//
//  1. Seeding: start the poller and aggregator pools, queue every server
//  2. Polling: wait until every queued poll, including retries, is acknowledged
//  3. Draining: stop the pollers, then wait for every result to be aggregated
//     and stop the aggregators
//  4. Reporting: log, print, and save the report
//
// The report is read only after both pools have exited. Per-server failures
// never fail the run. Cancelling ctx makes pending polls give up so the run
// drains quickly; the summary is still returned, the report is not saved, and
// the error wraps ctx.Err(). Returns an error if printing or saving fails, or
// if Run was already called.
func (t *Tally) Run(ctx context.Context) (*Summary, error) {
	t.mu.Lock()
	if t.ran {
		t.mu.Unlock()
		return nil, errors.New("tally has already run")
	}
	t.ran = true
	t.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	runID := uuid.NewString()
	logger := t.logger.With("run_id", runID)
	start := time.Now()

	counts := newOutcomeCounter()
	hook := func(o poller.Outcome) {
		public := pollerOutcomeToPublic(o)
		counts.add(public.Kind)
		for _, cb := range t.outcomeCallbacks {
			invokeCallbackSafe(cb, public, logger)
		}
	}

	logger.Info("tally phase", "phase", PhaseSeeding,
		"servers", len(t.servers),
		"scrapers", t.scrapers,
		"aggregators", t.aggregators,
	)

	jobs := queue.New[poller.Job]()
	results := queue.New[poller.Outcome]()
	rep := report.New()

	pollers := poller.NewPool(jobs, results, t.scrapers, t.maxAttempts, logger, hook)
	aggregators := aggregator.NewPool(results, rep, t.aggregators, logger)
	pollers.Start(ctx)
	aggregators.Start()

	for _, srv := range t.servers {
		logger.Debug("queued server", "server", srv.ID(), "url", srv.PollURL(), "timeout", srv.Timeout().String())
		if err := jobs.Put(poller.Job{Target: srv, Attempt: 1}); err != nil {
			// unreachable: the queue is only closed below
			logger.Error("failed to queue server", "server", srv.ID(), "error", err.Error())
		}
	}

	logger.Info("tally phase", "phase", PhasePolling, "queued", jobs.Len(), "pending", jobs.Pending())
	jobs.Join()

	logger.Info("tally phase", "phase", PhaseDraining, "results_pending", results.Pending())
	jobs.Close()
	pollers.Wait()
	results.Join()
	results.Close()
	aggregators.Wait()
	t.client.Close()

	logger.Info("tally phase", "phase", PhaseReporting, "duration_ms", time.Since(start).Milliseconds())

	summary := &Summary{
		RunID:    runID,
		Rows:     reportRowsToPublic(rep.Rows()),
		Outcomes: counts.snapshot(),
	}

	rep.Log(logger)

	if t.output != nil {
		if err := rep.Print(t.output); err != nil {
			return summary, err
		}
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("run cancelled, report not saved", "error", err.Error())
		return summary, fmt.Errorf("run cancelled: %w", err)
	}

	if t.reportPath != "" {
		if err := rep.Save(t.reportPath); err != nil {
			return summary, err
		}
		logger.Info("report saved", "path", t.reportPath, "rows", len(summary.Rows))
	}

	return summary, nil
}

// Summary is the result of a [Tally.Run].
type Summary struct {
	// RunID uniquely identifies the run in logs.
	RunID string

	// Rows holds one entry per (application, version), in the order each
	// pair was first aggregated.
	Rows []ReportRow

	// Outcomes counts poll attempts by classification.
	Outcomes map[OutcomeKind]int
}

// ReportRow is one (application, version) line of the report.
type ReportRow struct {
	App     string
	Version string

	// Count is the cumulative success count reported for this version.
	Count int64

	// Total is the cumulative success count across all versions of App.
	Total int64
}

// Rate returns Count/Total. ok is false when Total is zero.
func (r ReportRow) Rate() (rate float64, ok bool) {
	if r.Total == 0 {
		return 0, false
	}
	return float64(r.Count) / float64(r.Total), true
}

func reportRowsToPublic(rows []report.Row) []ReportRow {
	out := make([]ReportRow, len(rows))
	for i, r := range rows {
		out[i] = ReportRow{App: r.App, Version: r.Version, Count: r.Count, Total: r.Total}
	}
	return out
}

// outcomeCounter tallies outcome kinds across poller workers.
type outcomeCounter struct {
	mu     sync.Mutex
	counts map[OutcomeKind]int
}

func newOutcomeCounter() *outcomeCounter {
	return &outcomeCounter{counts: make(map[OutcomeKind]int)}
}

func (c *outcomeCounter) add(k OutcomeKind) {
	c.mu.Lock()
	c.counts[k]++
	c.mu.Unlock()
}

func (c *outcomeCounter) snapshot() map[OutcomeKind]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make(map[OutcomeKind]int, len(c.counts))
	for k, v := range c.counts {
		cp[k] = v
	}
	return cp
}

// invokeCallbackSafe calls an outcome callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(PollOutcome), o PollOutcome, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("outcome callback panicked",
				"panic", r,
				"server", o.Server,
			)
		}
	}()
	cb(o)
}
