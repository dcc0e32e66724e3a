package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
servers:
  - app1:8080
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.NumScrapers != 2 {
		t.Errorf("NumScrapers = %d, want 2", cfg.NumScrapers)
	}
	if cfg.NumAggregators != 1 {
		t.Errorf("NumAggregators = %d, want 1", cfg.NumAggregators)
	}
	if cfg.Timeout.Duration() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout.Duration())
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.MaxAttempts)
	}
	if cfg.ReportPath != "report.csv" {
		t.Errorf("ReportPath = %q, want report.csv", cfg.ReportPath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Servers.IsFile() || len(cfg.Servers.List) != 1 || cfg.Servers.List[0] != "app1:8080" {
		t.Errorf("Servers = %+v, want inline [app1:8080]", cfg.Servers)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
servers: [a:1, b:2, c:3]
num_scrapers: 6
num_aggregators: 2
timeout: 3s
max_attempts: 8
report_path: /tmp/out.csv
log_level: debug
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.Servers.List) != 3 {
		t.Errorf("len(Servers.List) = %d, want 3", len(cfg.Servers.List))
	}
	if cfg.NumScrapers != 6 || cfg.NumAggregators != 2 {
		t.Errorf("pools = (%d, %d), want (6, 2)", cfg.NumScrapers, cfg.NumAggregators)
	}
	if cfg.Timeout.Duration() != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout.Duration())
	}
	if cfg.MaxAttempts != 8 {
		t.Errorf("MaxAttempts = %d, want 8", cfg.MaxAttempts)
	}
	if cfg.ReportPath != "/tmp/out.csv" {
		t.Errorf("ReportPath = %q", cfg.ReportPath)
	}
}

func TestParse_ServersPathObject(t *testing.T) {
	cfg, err := Parse([]byte("servers:\n  path: servers.txt\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !cfg.Servers.IsFile() || cfg.Servers.Path != "servers.txt" {
		t.Errorf("Servers = %+v, want path servers.txt", cfg.Servers)
	}
}

func TestParse_EmptyServerList(t *testing.T) {
	cfg, err := Parse([]byte("servers: []\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cfg.Servers.List) != 0 {
		t.Errorf("len(Servers.List) = %d, want 0", len(cfg.Servers.List))
	}
}

func TestParse_EnvVarExpansion(t *testing.T) {
	t.Setenv("STATUS_HOST", "billing.internal")

	yaml := `
servers:
  - ${STATUS_HOST}:8080
  - ${MISSING_HOST:-fallback}:9090
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"billing.internal:8080", "fallback:9090"}
	for i, w := range want {
		if cfg.Servers.List[i] != w {
			t.Errorf("Servers.List[%d] = %q, want %q", i, cfg.Servers.List[i], w)
		}
	}
}

func TestParse_EnvVarInPath(t *testing.T) {
	t.Setenv("SERVERS_DIR", "/etc/tally")

	cfg, err := Parse([]byte("servers:\n  path: ${SERVERS_DIR}/servers.txt\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Servers.Path != "/etc/tally/servers.txt" {
		t.Errorf("Servers.Path = %q, want /etc/tally/servers.txt", cfg.Servers.Path)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "missing servers", yaml: "num_scrapers: 2\n", wantErr: "servers is required"},
		{name: "null servers", yaml: "servers:\n", wantErr: "servers is required"},
		{name: "scalar servers", yaml: "servers: app1:8080\n", wantErr: "list of identifiers or an object with a path"},
		{name: "object without path", yaml: "servers:\n  file: x.txt\n", wantErr: "non-empty path"},
		{name: "zero scrapers", yaml: "servers: []\nnum_scrapers: 0\n", wantErr: "num_scrapers must be at least 1, got 0"},
		{name: "zero aggregators", yaml: "servers: []\nnum_aggregators: 0\n", wantErr: "num_aggregators must be at least 1, got 0"},
		{name: "zero attempts", yaml: "servers: []\nmax_attempts: 0\n", wantErr: "max_attempts must be at least 1, got 0"},
		{name: "zero timeout", yaml: "servers: []\ntimeout: 0s\n", wantErr: "timeout must be at least"},
		{name: "negative scrapers", yaml: "servers: []\nnum_scrapers: -1\n", wantErr: "num_scrapers must be at least 1"},
		{name: "negative aggregators", yaml: "servers: []\nnum_aggregators: -3\n", wantErr: "num_aggregators must be at least 1"},
		{name: "tiny timeout", yaml: "servers: []\ntimeout: 5ms\n", wantErr: "timeout must be at least"},
		{name: "bad duration", yaml: "servers: []\ntimeout: soon\n", wantErr: "invalid duration"},
		{name: "negative attempts", yaml: "servers: []\nmax_attempts: -1\n", wantErr: "max_attempts must be at least 1"},
		{name: "bad log level", yaml: "servers: []\nlog_level: loud\n", wantErr: "log_level"},
		{name: "unset env var", yaml: "servers: [\"${NOPE_NOT_SET}:80\"]\n", wantErr: "NOPE_NOT_SET"},
		{name: "empty identifier", yaml: "servers: [\"  \"]\n", wantErr: "identifier is empty"},
		{name: "invalid yaml", yaml: "servers: [a\n", wantErr: "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v, want 'failed to read config file'", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("servers: [a:80]\nnum_scrapers: 3\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NumScrapers != 3 {
		t.Errorf("NumScrapers = %d, want 3", cfg.NumScrapers)
	}
}

func TestConfig_Level(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"info":    "INFO",
		"WARN":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
	}
	for level, want := range tests {
		cfg := &Config{LogLevel: level}
		if got := cfg.Level().String(); got != want {
			t.Errorf("Level(%q) = %s, want %s", level, got, want)
		}
	}
}

func TestParse_ServersGrid(t *testing.T) {
	t.Setenv("GRID_DOMAIN", "internal")

	yaml := `
servers:
  template: "{{.app}}-{{.n}}.${GRID_DOMAIN}:8080"
  dimensions:
    app: [billing]
    n: ["1", "2"]
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !cfg.Servers.IsGrid() || cfg.Servers.IsFile() {
		t.Fatalf("Servers = %+v, want grid", cfg.Servers)
	}
	if cfg.Servers.Template != "{{.app}}-{{.n}}.internal:8080" {
		t.Errorf("Servers.Template = %q", cfg.Servers.Template)
	}
	if len(cfg.Servers.Dimensions["n"]) != 2 {
		t.Errorf("Servers.Dimensions = %v", cfg.Servers.Dimensions)
	}
}

func TestParse_ServersObjectErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "path and template",
			yaml:    "servers:\n  path: a.txt\n  template: \"x{{.n}}\"\n  dimensions: {n: [\"1\"]}\n",
			wantErr: "both path and template",
		},
		{
			name:    "template without dimensions",
			yaml:    "servers:\n  template: \"x{{.n}}\"\n",
			wantErr: "at least one dimension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}
