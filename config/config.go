// Package config loads duckserver's ambient server configuration from
// YAML and, optionally, watches the file for changes.
package config

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the settings that shape a running duckserver host:
// endpoint prefix, response compression, and logging level. It is decoded
// from YAML with gopkg.in/yaml.v3.
type ServerConfig struct {
	Prefix        string            `yaml:"prefix"`
	GzipEnabled   bool              `yaml:"gzip_enabled"`
	LogLevel      string            `yaml:"log_level"`
	DescribeRoute bool              `yaml:"describe_route"`
	MaxBodyBytes  int64             `yaml:"max_body_bytes"`
	Headers       map[string]string `yaml:"headers"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Prefix:        "/rpc",
		GzipEnabled:   true,
		LogLevel:      "info",
		DescribeRoute: true,
		MaxBodyBytes:  1 << 20,
	}
}

// Load reads and parses a ServerConfig from path.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Store holds the live configuration value, safe for concurrent reads from
// request-handling goroutines while Watch (see watch.go) swaps it on
// every file change.
type Store struct {
	current atomic.Pointer[ServerConfig]
}

// NewStore seeds a Store with an initial value.
func NewStore(initial ServerConfig) *Store {
	s := &Store{}
	s.current.Store(&initial)
	return s
}

// Get returns the current configuration snapshot.
func (s *Store) Get() ServerConfig {
	return *s.current.Load()
}

// set installs a new configuration snapshot, called by Watch on reload.
func (s *Store) set(cfg ServerConfig) {
	s.current.Store(&cfg)
}
