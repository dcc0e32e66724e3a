package poller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind classifies the result of one poll attempt.
type Kind string

const (
	// KindSuccess is a 200 response with a decodable body.
	KindSuccess Kind = "success"

	// KindNotFound is a 404 response; the server is dropped.
	KindNotFound Kind = "not_found"

	// KindOtherError is any other status or a transport failure; the job is
	// retried.
	KindOtherError Kind = "other_error"

	// KindDecodeError is a 200 response whose body is not a status record.
	KindDecodeError Kind = "decode_error"

	// KindGaveUp is a job dropped after exhausting its attempts or because
	// the run was cancelled.
	KindGaveUp Kind = "gave_up"
)

// Terminal reports whether no further attempt follows this outcome.
func (k Kind) Terminal() bool {
	return k != KindOtherError
}

// Record is the decoded body of a successful status response.
//
// Pointer fields distinguish absent or null values from zero values.
type Record struct {
	Application  *string `json:"Application"`
	Version      *string `json:"Version"`
	SuccessCount *int64  `json:"Success_Count"`
}

// App returns the application name, or "" if absent.
func (r Record) App() string {
	if r.Application == nil {
		return ""
	}
	return *r.Application
}

// Ver returns the version, or "" if absent.
func (r Record) Ver() string {
	if r.Version == nil {
		return ""
	}
	return *r.Version
}

// Count returns the success count, treating absent or null as 0.
func (r Record) Count() int64 {
	if r.SuccessCount == nil {
		return 0
	}
	return *r.SuccessCount
}

// Validate reports why the record cannot be aggregated, or nil.
func (r Record) Validate() error {
	var errs []error
	if r.App() == "" {
		errs = append(errs, errors.New("missing Application"))
	}
	if r.Ver() == "" {
		errs = append(errs, errors.New("missing Version"))
	}
	if r.Count() < 0 {
		errs = append(errs, fmt.Errorf("negative Success_Count %d", r.Count()))
	}
	return errors.Join(errs...)
}

// DecodeRecord parses a status body. The body must be a JSON object.
func DecodeRecord(body []byte) (Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, errors.New("status body is not a JSON object")
	}

	var rec Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode status body: %w", err)
	}
	return rec, nil
}

// Outcome is the classified result of one poll attempt.
type Outcome struct {
	// Server identifies the polled target.
	Server string

	// Kind is the classification of this attempt.
	Kind Kind

	// Record is set only for [KindSuccess].
	Record Record

	// StatusCode is the HTTP status observed, 0 for transport failures.
	StatusCode int

	// Attempt is the 1-based attempt number for this server.
	Attempt int

	// CheckedAt is when the attempt finished.
	CheckedAt time.Time

	// Error describes the failure for every kind except [KindSuccess] and
	// [KindNotFound].
	Error error
}
