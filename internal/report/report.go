package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// csvHeader is the first row of every persisted report.
var csvHeader = []string{"App Name", "Version", "Count", "Total Count"}

// key identifies one (application, version) counter.
type key struct {
	app     string
	version string
}

// Row is a snapshot of one (application, version) counter.
type Row struct {
	App     string
	Version string

	// Count is the cumulative success count for this version.
	Count int64

	// Total is the cumulative success count across all versions of App.
	Total int64
}

// Rate returns Count/Total. ok is false when Total is zero and the rate is
// undefined.
func (r Row) Rate() (rate float64, ok bool) {
	if r.Total == 0 {
		return 0, false
	}
	return float64(r.Count) / float64(r.Total), true
}

// Report accumulates success counts per (application, version) and per
// application.
//
// Keys are kept in first-update order so repeated renders of an unchanged
// report are byte-identical.
type Report struct {
	mu         sync.RWMutex
	appVersion map[key]int64
	app        map[string]int64
	order      []key
}

// New creates an empty [Report].
func New() *Report {
	return &Report{
		appVersion: make(map[key]int64),
		app:        make(map[string]int64),
	}
}

// Update adds successCount to both the (app, version) counter and the app
// total. Callers validate app and version beforehand.
func (r *Report) Update(app, version string, successCount int64) {
	k := key{app: app, version: version}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.appVersion[k]; !exists {
		r.order = append(r.order, k)
	}
	r.appVersion[k] += successCount
	r.app[app] += successCount
}

// Rows returns a snapshot of every counter in first-update order.
//
// The returned slice is a copy; modifications do not affect the report.
func (r *Report) Rows() []Row {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]Row, 0, len(r.order))
	for _, k := range r.order {
		rows = append(rows, Row{
			App:     k.app,
			Version: k.version,
			Count:   r.appVersion[k],
			Total:   r.app[k.app],
		})
	}
	return rows
}

// Log writes one structured log line per row. Rows whose application total
// is zero are logged as a warning instead of a rate.
func (r *Report) Log(logger *slog.Logger) {
	for _, row := range r.Rows() {
		rate, ok := row.Rate()
		if !ok {
			logger.Warn("success rate undefined",
				"app", row.App,
				"version", row.Version,
				"reason", "application total is zero",
			)
			continue
		}
		logger.Info("success rate",
			"app", row.App,
			"version", row.Version,
			"count", row.Count,
			"total", row.Total,
			"rate", rate,
		)
	}
}

// Print writes a human-readable success-rate line per row to w, with the
// counts behind each rate in English digit grouping.
func (r *Report) Print(w io.Writer) error {
	p := message.NewPrinter(language.English)
	for _, row := range r.Rows() {
		var err error
		if rate, ok := row.Rate(); ok {
			_, err = p.Fprintf(w, "App: %s, Version: %s, Success Rate: %.4f (%d of %d)\n",
				row.App, row.Version, rate, row.Count, row.Total)
		} else {
			_, err = p.Fprintf(w, "App: %s, Version: %s, Success Rate: n/a (%d of %d)\n",
				row.App, row.Version, row.Count, row.Total)
		}
		if err != nil {
			return fmt.Errorf("failed to print report: %w", err)
		}
	}
	return nil
}

// WriteCSV writes the header row followed by one row per counter.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, row := range r.Rows() {
		record := []string{
			row.App,
			row.Version,
			strconv.FormatInt(row.Count, 10),
			strconv.FormatInt(row.Total, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes the CSV report to path, replacing any existing file.
func (r *Report) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()

	return r.WriteCSV(f)
}
