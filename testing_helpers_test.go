package statustally

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// statusServer starts a test server whose /status handler replies with the
// given status code and body. It returns the server identifier (host:port).
func statusServer(t *testing.T, code int, body string) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return hostOf(ts)
}

// scriptedServer replies with each response in turn, repeating the last.
type scriptedServer struct {
	mu        sync.Mutex
	responses []scripted
	hits      int
}

type scripted struct {
	code int
	body string
}

func (s *scriptedServer) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func newScriptedServer(t *testing.T, responses ...scripted) (*scriptedServer, string) {
	t.Helper()
	s := &scriptedServer{responses: responses}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		idx := s.hits
		s.hits++
		s.mu.Unlock()
		if idx >= len(s.responses) {
			idx = len(s.responses) - 1
		}
		w.WriteHeader(s.responses[idx].code)
		_, _ = io.WriteString(w, s.responses[idx].body)
	}))
	t.Cleanup(ts.Close)
	return s, hostOf(ts)
}

func hostOf(ts *httptest.Server) string {
	return strings.TrimPrefix(ts.URL, "http://")
}
