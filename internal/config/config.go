// Package config loads the optional YAML layer that supplies run
// configuration under the CLI's flag defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors the CLI's flag surface, so a YAML file can supply any
// subset of it as a base layer; explicit flags always override a loaded
// value.
type Config struct {
	Map        string  `yaml:"map"`
	Agents     int     `yaml:"agents"`
	Seed       uint64  `yaml:"seed"`
	Drop       float64 `yaml:"drop"`
	LatencyMs  float64 `yaml:"latency_ms"`
	JitterMs   float64 `yaml:"jitter_ms"`
	MaxSteps   uint64  `yaml:"max_steps"`
	OutTrace   string  `yaml:"out_trace"`
	OutMetrics string  `yaml:"out_metrics"`
	Verbose    bool    `yaml:"verbose"`
	Quiet      bool    `yaml:"quiet"`
	WatchAddr  string  `yaml:"watch"`
	LogFile    string  `yaml:"log_file"`
}

// Default returns the run defaults recovered from the original binary's
// flag handling.
func Default() Config {
	return Config{
		Agents:     8,
		Seed:       1337,
		Drop:       0.05,
		LatencyMs:  40,
		JitterMs:   10,
		MaxSteps:   300,
		OutTrace:   "trace.csv",
		OutMetrics: "metrics.json",
	}
}

// Load reads a YAML file and returns the Config it describes. Missing
// fields keep their zero value; callers are expected to layer this over
// Default() before applying flag overrides.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
