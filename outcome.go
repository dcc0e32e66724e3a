package statustally

import (
	"time"

	"github.com/jpalmerr/statustally/internal/poller"
)

// OutcomeKind classifies one poll attempt.
type OutcomeKind string

const (
	// OutcomeSuccess is a 200 response with a decodable status body.
	OutcomeSuccess OutcomeKind = "success"

	// OutcomeNotFound is a 404 response. The server is dropped and never
	// appears in the report.
	OutcomeNotFound OutcomeKind = "not_found"

	// OutcomeOtherError is any other status code or a transport failure.
	// The server is queued for another attempt.
	OutcomeOtherError OutcomeKind = "other_error"

	// OutcomeDecodeError is a 200 response whose body is not a status record.
	OutcomeDecodeError OutcomeKind = "decode_error"

	// OutcomeGaveUp is a server dropped after its final attempt failed, or
	// because the run was cancelled.
	OutcomeGaveUp OutcomeKind = "gave_up"
)

// String returns the string representation of the kind.
func (k OutcomeKind) String() string {
	return string(k)
}

// PollOutcome describes one classified poll attempt, as passed to callbacks
// registered with [WithOutcomeCallback].
type PollOutcome struct {
	// Server is the identifier of the polled server.
	Server string

	// Kind is the classification of the attempt.
	Kind OutcomeKind

	// Application, Version and SuccessCount are set for [OutcomeSuccess].
	// Application or Version may be empty if the server omitted them; such
	// records are discarded by the aggregators.
	Application  string
	Version      string
	SuccessCount int64

	// StatusCode is the HTTP status code, 0 for transport failures.
	StatusCode int

	// Attempt is the 1-based attempt number for this server.
	Attempt int

	// Final is true when no further attempt follows for this server.
	Final bool

	// CheckedAt is when the attempt finished.
	CheckedAt time.Time

	// Error describes why the attempt failed, nil on success and not-found.
	Error error
}

// pollerOutcomeToPublic converts an internal poller outcome to the public type.
func pollerOutcomeToPublic(o poller.Outcome) PollOutcome {
	return PollOutcome{
		Server:       o.Server,
		Kind:         OutcomeKind(o.Kind),
		Application:  o.Record.App(),
		Version:      o.Record.Ver(),
		SuccessCount: o.Record.Count(),
		StatusCode:   o.StatusCode,
		Attempt:      o.Attempt,
		Final:        o.Kind.Terminal(),
		CheckedAt:    o.CheckedAt,
		Error:        o.Error,
	}
}
