package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jpalmerr/statustally"
)

// LoadServers reads a newline-delimited file of server identifiers.
//
// Surrounding whitespace is trimmed; blank lines and lines starting with
// '#' are skipped. Identifiers are returned in file order.
func LoadServers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open servers file: %w", err)
	}
	defer func() { _ = f.Close() }()

	servers, err := parseServers(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read servers file %s: %w", path, err)
	}
	return servers, nil
}

func parseServers(r io.Reader) ([]string, error) {
	var servers []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		servers = append(servers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return servers, nil
}

// ResolveServers returns the configured identifiers, reading the servers
// file or expanding the grid when the config refers to one.
func ResolveServers(cfg *Config) ([]string, error) {
	switch {
	case cfg.Servers.IsFile():
		return LoadServers(cfg.Servers.Path)
	case cfg.Servers.IsGrid():
		ids, err := statustally.NewServerGrid(
			statustally.WithIdentifierTemplate(cfg.Servers.Template),
			statustally.WithDimensions(cfg.Servers.Dimensions),
		)
		if err != nil {
			return nil, fmt.Errorf("servers grid: %w", err)
		}
		return ids, nil
	}

	out := make([]string, len(cfg.Servers.List))
	copy(out, cfg.Servers.List)
	return out, nil
}
