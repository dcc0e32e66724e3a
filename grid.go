package statustally

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// gridConfig holds configuration during server grid expansion.
type gridConfig struct {
	template   string
	dimensions map[string][]string
}

// GridOption configures server grid expansion.
// GridOption implements the functional options pattern for [NewServerGrid].
type GridOption func(*gridConfig) error

// WithIdentifierTemplate sets the template each server identifier is rendered
// from. The template uses Go's text/template syntax with dimension keys as
// variables.
//
// Example:
//
//	WithIdentifierTemplate("{{.app}}-{{.n}}.internal:8080")
//
// Returns an error if the template string is empty.
func WithIdentifierTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if strings.TrimSpace(tmpl) == "" {
			return errors.New("identifier template required")
		}
		cfg.template = tmpl
		return nil
	}
}

// WithDimensions sets the dimension values for cartesian product expansion.
//
// Example:
//
//	WithDimensions(map[string][]string{
//	    "app": {"billing", "search"},
//	    "n":   {"1", "2", "3"},
//	})
//
// Returns an error if the map is empty, any dimension has no values,
// or any value is an empty string.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}

// NewServerGrid expands an identifier template over the cartesian product of
// its dimensions and returns the resulting server identifiers, ready for
// [WithServers].
//
// Missing template keys cause an error. Every rendered identifier is checked
// with [NewServer] so a bad template fails before a run starts. Identifiers
// are ordered by the alphabetically sorted dimension keys, rightmost key
// varying fastest.
//
// Example:
//
//	ids, err := NewServerGrid(
//	    WithIdentifierTemplate("billing-{{.n}}.internal:8080"),
//	    WithDimensions(map[string][]string{"n": {"1", "2"}}),
//	)
//	// ids == ["billing-1.internal:8080", "billing-2.internal:8080"]
func NewServerGrid(opts ...GridOption) ([]string, error) {
	cfg := &gridConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.template == "" {
		return nil, errors.New("identifier template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	tmpl, err := template.New("server").Option("missingkey=error").Parse(cfg.template)
	if err != nil {
		return nil, fmt.Errorf("invalid identifier template: %w", err)
	}

	combinations := cartesianProduct(cfg.dimensions)
	ids := make([]string, 0, len(combinations))
	for _, combo := range combinations {
		id, err := executeTemplate(tmpl, combo)
		if err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}
		if _, err := NewServer(id); err != nil {
			return nil, fmt.Errorf("grid %v: %w", combo, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	total := 1
	for _, k := range keys {
		total *= len(dims[k])
	}
	result := make([]map[string]string, 0, total)

	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// rightmost first
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

// executeTemplate renders the template with the given data.
func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
