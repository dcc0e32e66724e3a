package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadServers(t *testing.T) {
	path := writeFile(t, "servers.txt", "app1:8080\n  app2:8080  \n\n# decommissioned\napp3:8080\r\n")

	servers, err := LoadServers(path)
	if err != nil {
		t.Fatalf("LoadServers() error = %v", err)
	}

	want := []string{"app1:8080", "app2:8080", "app3:8080"}
	if len(servers) != len(want) {
		t.Fatalf("LoadServers() = %v, want %v", servers, want)
	}
	for i := range want {
		if servers[i] != want[i] {
			t.Errorf("servers[%d] = %q, want %q", i, servers[i], want[i])
		}
	}
}

func TestLoadServers_Empty(t *testing.T) {
	servers, err := LoadServers(writeFile(t, "servers.txt", ""))
	if err != nil {
		t.Fatalf("LoadServers() error = %v", err)
	}
	if len(servers) != 0 {
		t.Errorf("LoadServers() = %v, want empty", servers)
	}
}

func TestLoadServers_MissingFile(t *testing.T) {
	_, err := LoadServers("/nonexistent/servers.txt")
	if err == nil || !strings.Contains(err.Error(), "failed to open servers file") {
		t.Errorf("LoadServers() error = %v, want 'failed to open servers file'", err)
	}
}

func TestResolveServers_Inline(t *testing.T) {
	cfg, err := Parse([]byte("servers: [a:1, b:2]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	servers, err := ResolveServers(cfg)
	if err != nil {
		t.Fatalf("ResolveServers() error = %v", err)
	}
	servers[0] = "mutated"
	if cfg.Servers.List[0] != "a:1" {
		t.Error("ResolveServers() returned the config's backing slice")
	}
}

func TestResolveServers_File(t *testing.T) {
	path := writeFile(t, "servers.txt", "x:1\ny:2\n")
	cfg, err := Parse([]byte("servers:\n  path: " + path + "\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	servers, err := ResolveServers(cfg)
	if err != nil {
		t.Fatalf("ResolveServers() error = %v", err)
	}
	if len(servers) != 2 || servers[1] != "y:2" {
		t.Errorf("ResolveServers() = %v, want [x:1 y:2]", servers)
	}
}

func TestBuildOptions(t *testing.T) {
	cfg, err := Parse([]byte("servers: [a:1, b:2]\nnum_scrapers: 3\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	if len(opts) == 0 {
		t.Fatal("BuildOptions() returned no options")
	}
}

func TestBuildOptions_MissingServersFile(t *testing.T) {
	cfg, err := Parse([]byte("servers:\n  path: /nonexistent/servers.txt\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if _, err := BuildOptions(cfg); err == nil {
		t.Error("BuildOptions() error = nil, want error for missing servers file")
	}
}

func TestResolveServers_Grid(t *testing.T) {
	cfg, err := Parse([]byte("servers:\n  template: \"app{{.n}}:8080\"\n  dimensions:\n    n: [\"1\", \"2\", \"3\"]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	servers, err := ResolveServers(cfg)
	if err != nil {
		t.Fatalf("ResolveServers() error = %v", err)
	}
	want := []string{"app1:8080", "app2:8080", "app3:8080"}
	if len(servers) != len(want) {
		t.Fatalf("ResolveServers() = %v, want %v", servers, want)
	}
	for i := range want {
		if servers[i] != want[i] {
			t.Errorf("servers[%d] = %q, want %q", i, servers[i], want[i])
		}
	}
}

func TestResolveServers_GridMissingKey(t *testing.T) {
	cfg, err := Parse([]byte("servers:\n  template: \"{{.region}}:8080\"\n  dimensions:\n    n: [\"1\"]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if _, err := ResolveServers(cfg); err == nil || !strings.Contains(err.Error(), "servers grid") {
		t.Errorf("ResolveServers() error = %v, want servers grid error", err)
	}
}
