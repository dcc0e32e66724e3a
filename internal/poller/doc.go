// Package poller fetches and classifies server status responses for
// StatusTally.
//
// This package is internal to StatusTally. It implements the poller stage of
// the pipeline: a fixed pool of workers takes jobs from the input queue, pokes
// the target's status endpoint, and routes the classified result.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeout and size limits
//   - [Pool]: worker pool consuming [Job] values and producing [Outcome] values
//   - [Record]: the decoded status body
//   - [Target]: anything that can be poked for a status response
//
// Users of the statustally package configure the pool through its options.
package poller
