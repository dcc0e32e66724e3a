// Package statustally polls the /status endpoint of a fleet of servers once
// and tallies the success counts they report per application and version.
//
// Each server answers GET http://<identifier>/status with a JSON record:
//
//	{"Application": "billing", "Version": "1.2.0", "Success_Count": 42}
//
// A run fans the servers out to a pool of pollers, funnels successful
// records through a pool of aggregators into a shared report, and renders
// the report once every server has been accounted for.
//
// # Quick Start
//
//	tally, err := statustally.New(
//	    statustally.WithServers("billing-1.internal:8080", "billing-2.internal:8080"),
//	    statustally.WithOutput(os.Stdout),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := tally.Run(ctx)
//
// # Configuration
//
// StatusTally uses the functional options pattern:
//
//	tally, err := statustally.New(
//	    statustally.WithServers(ids...),
//	    statustally.WithScrapers(8),
//	    statustally.WithAggregators(2),
//	    statustally.WithTimeout(5 * time.Second),
//	    statustally.WithMaxAttempts(3),
//	    statustally.WithReportPath("report.csv"),
//	)
//
// # Outcomes
//
// Every poll is classified as one of:
//
//   - [OutcomeSuccess]: 200 with a decodable record, fed to the report
//   - [OutcomeNotFound]: 404, the server has no status endpoint; not retried
//   - [OutcomeOtherError]: any other status or a transport failure; retried
//   - [OutcomeDecodeError]: 200 with a body that is not a status record
//   - [OutcomeGaveUp]: retries exhausted or the run was cancelled
//
// Register [WithOutcomeCallback] to observe outcomes as they happen.
//
// # Architecture
//
// StatusTally consists of several internal packages (under internal/):
//
//   - internal/queue: Unbounded work queue with a drain barrier and close broadcast
//   - internal/poller: HTTP polling worker pool with bounded retries
//   - internal/aggregator: Worker pool folding records into the report
//   - internal/report: Mutex-guarded totals with log, text and CSV rendering
//
// A run drains in two phases: the poll queue is joined and closed and the
// pollers exit, then the result queue is joined and closed and the
// aggregators exit. Only then is the report rendered.
package statustally
