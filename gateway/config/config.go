// Package config loads the gateway routing configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is used when no config file argument is given.
const DefaultPath = "servers.toml"

// Config is the parsed configuration file. One table is recognized:
// backends, mapping hostnames to "host:port" backend addresses.
type Config struct {
	Backends map[string]string `toml:"backends"`
}

// Load reads and parses the TOML configuration at path. Any parse or
// validation failure is fatal to startup; there is no partial load and
// no default backend.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Backends) == 0 {
		return fmt.Errorf("no backends configured")
	}
	seen := make(map[string]string, len(c.Backends))
	for host, addr := range c.Backends {
		if strings.TrimSpace(host) == "" {
			return fmt.Errorf("empty hostname key")
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("backend for %q: %w", host, err)
		}
		norm := strings.TrimSuffix(strings.ToLower(host), ".")
		if prev, dup := seen[norm]; dup && prev != host {
			return fmt.Errorf("hostnames %q and %q collide after normalization", prev, host)
		}
		seen[norm] = host
	}
	return nil
}
