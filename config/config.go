// Package config provides YAML configuration parsing for StatusTally.
//
// Example configuration:
//
//	servers:
//	  - billing-1.internal:8080
//	  - billing-2.internal:8080
//	num_scrapers: 4
//	num_aggregators: 1
//	timeout: 5s
//	max_attempts: 5
//	report_path: report.csv
//
// The server list may instead name a newline-delimited file:
//
//	servers:
//	  path: /etc/statustally/servers.txt
//
// or expand a template over dimensions:
//
//	servers:
//	  template: "{{.app}}-{{.n}}.internal:8080"
//	  dimensions:
//	    app: [billing, search]
//	    n: ["1", "2", "3"]
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultScrapers    = 2
	defaultAggregators = 1
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 5
	defaultReportPath  = "report.csv"
	defaultLogLevel    = "info"

	// minTimeout keeps a typo like "5ms" from turning every server into a
	// transport failure.
	minTimeout = 100 * time.Millisecond
)

// Config is the root configuration structure for StatusTally.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Servers is either an inline list of identifiers or a path to a file.
	Servers ServerSource `yaml:"servers"`

	// NumScrapers is the number of poller workers. Defaults to 2.
	NumScrapers int `yaml:"num_scrapers"`

	// NumAggregators is the number of aggregator workers. Defaults to 1.
	NumAggregators int `yaml:"num_aggregators"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// MaxAttempts bounds how often a failing server is polled. Defaults to 5.
	MaxAttempts int `yaml:"max_attempts"`

	// ReportPath is where the CSV report is written. Defaults to report.csv.
	ReportPath string `yaml:"report_path"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`
}

// ServerSource is the "servers" config value.
//
// It supports two formats in YAML:
//
// Inline list:
//
//	servers: [app1:8080, app2:8080]
//
// File reference:
//
//	servers:
//	  path: servers.txt
//
// Grid:
//
//	servers:
//	  template: "app-{{.n}}:8080"
//	  dimensions:
//	    n: ["1", "2"]
type ServerSource struct {
	// List holds inline identifiers.
	List []string

	// Path names a newline-delimited file of identifiers.
	Path string

	// Template and Dimensions describe a server grid.
	Template   string
	Dimensions map[string][]string

	set bool
}

// IsFile reports whether the source refers to a file.
func (s ServerSource) IsFile() bool {
	return s.Path != ""
}

// IsGrid reports whether the source is a template grid.
func (s ServerSource) IsGrid() bool {
	return s.Template != ""
}

// UnmarshalYAML implements yaml.Unmarshaler for ServerSource.
func (s *ServerSource) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("servers list: %w", err)
		}
		s.List = list
		s.set = true
		return nil

	case yaml.MappingNode:
		// temporary struct to avoid infinite recursion
		var raw struct {
			Path       string              `yaml:"path"`
			Template   string              `yaml:"template"`
			Dimensions map[string][]string `yaml:"dimensions"`
		}
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("servers object: %w", err)
		}
		switch {
		case raw.Path != "" && raw.Template != "":
			return errors.New("servers object cannot have both path and template")
		case raw.Path == "" && raw.Template == "":
			return errors.New("servers object must have a non-empty path or template")
		case raw.Template != "" && len(raw.Dimensions) == 0:
			return errors.New("servers template requires at least one dimension")
		}
		s.Path = raw.Path
		s.Template = raw.Template
		s.Dimensions = raw.Dimensions
		s.set = true
		return nil
	}

	return fmt.Errorf("servers must be a list of identifiers or an object with a path, got %s", kindName(node.Kind))
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return fmt.Sprintf("kind %d", k)
	}
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in server identifiers and the servers
// file path. Defaults are applied for every optional field.
func Parse(data []byte) (*Config, error) {
	// numeric defaults are set before decoding so an explicit 0 survives
	// and fails validation
	cfg := Config{
		NumScrapers:    defaultScrapers,
		NumAggregators: defaultAggregators,
		Timeout:        Duration(defaultTimeout),
		MaxAttempts:    defaultMaxAttempts,
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.ReportPath == "" {
		cfg.ReportPath = defaultReportPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if !c.Servers.set {
		return errors.New("servers is required: a list of identifiers or an object with a path")
	}

	if c.Servers.IsFile() {
		expanded, err := expandEnvVars(c.Servers.Path)
		if err != nil {
			return fmt.Errorf("servers.path: %w", err)
		}
		c.Servers.Path = expanded
	}

	if c.Servers.IsGrid() {
		expanded, err := expandEnvVars(c.Servers.Template)
		if err != nil {
			return fmt.Errorf("servers.template: %w", err)
		}
		c.Servers.Template = expanded
	}

	for i, id := range c.Servers.List {
		expanded, err := expandEnvVars(strings.TrimSpace(id))
		if err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}
		if expanded == "" {
			return fmt.Errorf("servers[%d]: identifier is empty", i)
		}
		c.Servers.List[i] = expanded
	}

	if c.NumScrapers < 1 {
		return fmt.Errorf("num_scrapers must be at least 1, got %d", c.NumScrapers)
	}
	if c.NumAggregators < 1 {
		return fmt.Errorf("num_aggregators must be at least 1, got %d", c.NumAggregators)
	}
	if c.Timeout.Duration() < minTimeout {
		return fmt.Errorf("timeout must be at least %s, got %s", minTimeout, c.Timeout.Duration())
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}
