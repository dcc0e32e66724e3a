// Package report holds the aggregate success counters produced by a
// StatusTally run and renders them.
//
// The main components are:
//
//   - [Report]: mutex-guarded counters keyed by (application, version) and by application
//   - [Row]: one rendered (application, version) line with its application total
//
// [Report.Update] is the only mutator and is safe for concurrent use by the
// aggregator workers. Both counter maps change under the same lock, so the
// per-application total always equals the sum of its version counts.
package report
