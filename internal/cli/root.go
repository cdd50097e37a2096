// Package cli defines the swarmgrid command-line surface: flag parsing,
// config-file layering, and the end-to-end run of load -> simulate ->
// write outputs.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"swarmgrid/internal/config"
)

var (
	mapFlag        string
	agentsFlag     int
	seedFlag       uint64
	dropFlag       float64
	latencyFlag    float64
	jitterFlag     float64
	maxStepsFlag   uint64
	outTraceFlag   string
	outMetricsFlag string
	verboseFlag    bool
	quietFlag      bool
	configFlag     string
	watchFlag      string
	logFileFlag    string
)

// exitCode carries the process exit status out of RunE, since a
// successfully completed run that detects a collision must still exit
// non-zero without printing a cobra error.
var exitCode int

var rootCmd = &cobra.Command{
	Use:           "swarmgrid",
	Short:         "Deterministic multi-agent cooperative pathfinding simulator",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runSimulate,
}

func init() {
	defaults := config.Default()
	rootCmd.Flags().StringVar(&mapFlag, "map", "", "path to a text grid map file (required)")
	rootCmd.Flags().IntVar(&agentsFlag, "agents", defaults.Agents, "number of agents to place")
	rootCmd.Flags().Uint64Var(&seedFlag, "seed", defaults.Seed, "deterministic placement and network seed")
	rootCmd.Flags().Float64Var(&dropFlag, "drop", defaults.Drop, "per-send message drop probability")
	rootCmd.Flags().Float64Var(&latencyFlag, "latency", defaults.LatencyMs, "mean network latency in milliseconds")
	rootCmd.Flags().Float64Var(&jitterFlag, "jitter", defaults.JitterMs, "network latency jitter (stddev) in milliseconds")
	rootCmd.Flags().Uint64Var(&maxStepsFlag, "max-steps", defaults.MaxSteps, "maximum ticks before forced termination")
	rootCmd.Flags().StringVar(&outTraceFlag, "out-trace", defaults.OutTrace, "trace CSV output path")
	rootCmd.Flags().StringVar(&outMetricsFlag, "out-metrics", defaults.OutMetrics, "metrics JSON output path")
	rootCmd.Flags().BoolVar(&verboseFlag, "verbose", false, "log every event to stdout, down to debug severity")
	rootCmd.Flags().BoolVar(&quietFlag, "quiet", false, "suppress the human-readable run summary")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "optional YAML file supplying defaults these flags override")
	rootCmd.Flags().StringVar(&watchFlag, "watch", "", "optional host:port to serve a live spectator websocket")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", defaults.LogFile, "optional path to write newline-delimited JSON events to, independent of --verbose")
}

// Execute runs the CLI and returns the process exit code: 0 on a
// completed run with no detected collision, 1 on initialization failure,
// invalid input, or a detected collision.
func Execute() int {
	exitCode = 0
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}

// resolveConfig layers an optional --config file under config.Default(),
// then applies every flag the user actually set on top, so an explicit
// flag always wins over the file and the file always wins over the
// built-in default.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configFlag != "" {
		loaded, err := config.Load(configFlag)
		if err != nil {
			return config.Config{}, err
		}
		cfg = mergeConfig(cfg, loaded)
	}
	applyFlagOverrides(cmd, &cfg)
	return cfg, nil
}

// mergeConfig overlays every non-zero field of override onto base.
func mergeConfig(base, override config.Config) config.Config {
	merged := base
	if override.Map != "" {
		merged.Map = override.Map
	}
	if override.Agents != 0 {
		merged.Agents = override.Agents
	}
	if override.Seed != 0 {
		merged.Seed = override.Seed
	}
	if override.Drop != 0 {
		merged.Drop = override.Drop
	}
	if override.LatencyMs != 0 {
		merged.LatencyMs = override.LatencyMs
	}
	if override.JitterMs != 0 {
		merged.JitterMs = override.JitterMs
	}
	if override.MaxSteps != 0 {
		merged.MaxSteps = override.MaxSteps
	}
	if override.OutTrace != "" {
		merged.OutTrace = override.OutTrace
	}
	if override.OutMetrics != "" {
		merged.OutMetrics = override.OutMetrics
	}
	if override.WatchAddr != "" {
		merged.WatchAddr = override.WatchAddr
	}
	if override.LogFile != "" {
		merged.LogFile = override.LogFile
	}
	merged.Verbose = merged.Verbose || override.Verbose
	merged.Quiet = merged.Quiet || override.Quiet
	return merged
}

// applyFlagOverrides writes every explicitly-set flag into cfg, leaving
// values sourced from the config file alone otherwise.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("map") || cfg.Map == "" {
		cfg.Map = mapFlag
	}
	if flags.Changed("agents") {
		cfg.Agents = agentsFlag
	}
	if flags.Changed("seed") {
		cfg.Seed = seedFlag
	}
	if flags.Changed("drop") {
		cfg.Drop = dropFlag
	}
	if flags.Changed("latency") {
		cfg.LatencyMs = latencyFlag
	}
	if flags.Changed("jitter") {
		cfg.JitterMs = jitterFlag
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxStepsFlag
	}
	if flags.Changed("out-trace") {
		cfg.OutTrace = outTraceFlag
	}
	if flags.Changed("out-metrics") {
		cfg.OutMetrics = outMetricsFlag
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verboseFlag
	}
	if flags.Changed("quiet") {
		cfg.Quiet = quietFlag
	}
	if flags.Changed("watch") {
		cfg.WatchAddr = watchFlag
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFileFlag
	}
}
