// Package config loads the typed server configuration from built-in
// defaults, an optional YAML file, and environment variable overrides,
// in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/r8k/webgraph/crawler"
)

// Paths is the primary/mirror document pair the publisher writes.
type Paths struct {
	Primary string `yaml:"primary"`
	Mirror  string `yaml:"mirror"`
}

// SubprocessEngine is the path/timeout configuration for one external
// engine binary.
type SubprocessEngine struct {
	Path    string `yaml:"path"`
	WorkDir string `yaml:"work_dir"`
	Timeout int    `yaml:"timeout_seconds"` // 0 means supervisor.DefaultSubprocessTimeout
}

// Tor is the Tor SOCKS5 proxy endpoint subprocess engines are routed
// through.
type Tor struct {
	SocksHost string `yaml:"socks_host"`
	SocksPort int    `yaml:"socks_port"`
}

// Config is the complete typed server configuration.
type Config struct {
	BindAddress string                      `yaml:"bind_address"`
	BindPort    int                         `yaml:"bind_port"`
	Paths       Paths                       `yaml:"paths"`
	Crawl       crawler.Config              `yaml:"-"`
	Engines     map[string]SubprocessEngine `yaml:"engines"`
	Tor         Tor                         `yaml:"tor"`
}

// Default returns the built-in configuration used when no file or
// environment override is present.
func Default() Config {
	return Config{
		BindAddress: "127.0.0.1",
		BindPort:    8080,
		Paths: Paths{
			Primary: "data/tree.json",
			Mirror:  "visualizer/data/tree.json",
		},
		Crawl: crawler.DefaultConfig(),
		Engines: map[string]SubprocessEngine{
			"toc":         {Path: "toc", WorkDir: "."},
			"onionsearch": {Path: "onionsearch", WorkDir: "."},
			"torbot":      {Path: "torbot", WorkDir: "."},
		},
		Tor: Tor{SocksHost: "127.0.0.1", SocksPort: 9050},
	}
}

// Load builds a Config starting from Default, applying path's YAML
// contents if path is non-empty and the file exists, then applying
// WEBGRAPH_*-prefixed environment variable overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEBGRAPH_BIND_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}
	if v := os.Getenv("WEBGRAPH_BIND_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.BindPort = port
		}
	}
	if v := os.Getenv("WEBGRAPH_PRIMARY_PATH"); v != "" {
		cfg.Paths.Primary = v
	}
	if v := os.Getenv("WEBGRAPH_MIRROR_PATH"); v != "" {
		cfg.Paths.Mirror = v
	}
	if v := os.Getenv("WEBGRAPH_TOR_SOCKS_HOST"); v != "" {
		cfg.Tor.SocksHost = v
	}
	if v := os.Getenv("WEBGRAPH_TOR_SOCKS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Tor.SocksPort = port
		}
	}
}

// Addr returns the "host:port" listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.BindPort)
}
