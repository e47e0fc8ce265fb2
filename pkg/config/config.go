package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the application
type Config struct {
	Name      string `koanf:"name"`      // graph display name
	Records   string `koanf:"records"`   // directory of extraction record files
	GraphFile string `koanf:"graph"`     // saved graph to load at startup
	Format    string `koanf:"format"`    // graphml, gexf or json
	Output    string `koanf:"output"`    // path to save the graph to on exit
	Serve     bool   `koanf:"serve"`     // start the HTTP API
	Port      int    `koanf:"port"`      // HTTP API port
	Watch     bool   `koanf:"watch"`     // reload records on change (with serve)
	Verbosity string `koanf:"verbosity"` // debug, info, warn, error
	JSONLogs  bool   `koanf:"json-logs"` // switch log output to JSON
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"name":      "knowledge_graph",
		"records":   "",
		"graph":     "",
		"format":    "json",
		"output":    "",
		"serve":     false,
		"port":      8080,
		"watch":     false,
		"verbosity": "info",
		"json-logs": false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - kgraph.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider("kgraph.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: KGRAPH_ (e.g., KGRAPH_PORT=9090)
	if err := k.Load(env.Provider("KGRAPH_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "KGRAPH_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
