package statustally

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/statustally/internal/poller"
)

const defaultServerTimeout = 10 * time.Second

// sharedClient serves every [Server] built with [NewServer].
var sharedClient = poller.NewClient()

// Server identifies one pollable status endpoint.
//
// Server is immutable after creation via [NewServer]. Its status URL is
// derived from the identifier as http://<identifier>/status.
type Server struct {
	id      string
	url     string
	timeout time.Duration
	client  *poller.Client
}

// NewServer creates a [Server] for an identifier such as "host:8080" or
// "billing.internal".
//
// Returns an error if the identifier is empty, contains whitespace, is a
// full URL rather than a host, or does not form a valid status URL.
func NewServer(id string) (Server, error) {
	if id == "" {
		return Server{}, errors.New("server identifier cannot be empty")
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return Server{}, fmt.Errorf("server identifier %q contains whitespace", id)
	}
	if strings.Contains(id, "://") || strings.Contains(id, "/") {
		return Server{}, fmt.Errorf("server identifier %q must be a host or host:port, not a URL", id)
	}

	statusURL := "http://" + id + "/status"
	parsed, err := url.Parse(statusURL)
	if err != nil {
		return Server{}, fmt.Errorf("server identifier %q: invalid status url: %w", id, err)
	}
	if parsed.Host == "" {
		return Server{}, fmt.Errorf("server identifier %q has no host", id)
	}

	return Server{
		id:      id,
		url:     statusURL,
		timeout: defaultServerTimeout,
		client:  sharedClient,
	}, nil
}

// ID returns the identifier the server was created with.
func (s Server) ID() string {
	return s.id
}

// PollURL returns the status endpoint URL.
func (s Server) PollURL() string {
	return s.url
}

// Timeout returns the per-request timeout used by [Server.Poke].
func (s Server) Timeout() time.Duration {
	return s.timeout
}

// String returns the identifier. This implements the fmt.Stringer interface.
func (s Server) String() string {
	return s.id
}

// Poke issues one GET to the status URL and returns the status code and raw
// body.
//
// Poke does not retry. A transport failure (timeout, refused connection,
// DNS error) returns a non-nil error and a zero status code.
func (s Server) Poke(ctx context.Context) (statusCode int, body []byte, err error) {
	client := s.client
	if client == nil {
		client = sharedClient
	}
	resp := client.Get(ctx, s.url, s.timeout)
	if resp.Error != nil {
		return resp.StatusCode, resp.Body, resp.Error
	}
	return resp.StatusCode, resp.Body, nil
}

// withTransport returns a copy of s bound to client and timeout.
func (s Server) withTransport(client *poller.Client, timeout time.Duration) Server {
	s.client = client
	s.timeout = timeout
	return s
}
