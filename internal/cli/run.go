package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"swarmgrid/internal/config"
	"swarmgrid/internal/metrics"
	"swarmgrid/internal/network"
	"swarmgrid/internal/simulator"
	"swarmgrid/internal/swarmerr"
	"swarmgrid/internal/wsstream"
	"swarmgrid/internal/world"
	"swarmgrid/logging"
	"swarmgrid/logging/sinks"
)

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		exitCode = 1
		return err
	}
	if err := validateConfig(cfg); err != nil {
		exitCode = 1
		return err
	}

	w, err := world.Load(cfg.Map, cfg.Agents, cfg.Seed)
	if err != nil {
		exitCode = 1
		return fmt.Errorf("loading map: %w", err)
	}

	publisher, closeLogging := buildLogger(cfg)
	defer closeLogging()

	net := network.New(w.AgentIDs(), network.Params{
		DropProbability: cfg.Drop,
		MeanLatencyMs:   int(cfg.LatencyMs),
		JitterMs:        int(cfg.JitterMs),
	}, int64(cfg.Seed))
	collector := metrics.New()

	sim := simulator.New(w, net, collector, cfg.MaxSteps, publisher)

	if cfg.WatchAddr != "" {
		stopWatch := startSpectatorStream(sim, cfg.WatchAddr)
		defer stopWatch()
	}

	snapshot := sim.Run(context.Background())

	if err := metrics.WriteMetricsJSON(cfg.OutMetrics, snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "%v: writing metrics: %v\n", swarmerr.Fatal, err)
	}
	if err := metrics.WriteTraceCSV(cfg.OutTrace, collector.Traces()); err != nil {
		fmt.Fprintf(os.Stderr, "%v: writing trace: %v\n", swarmerr.Fatal, err)
	}

	if !cfg.Quiet {
		printSummary(snapshot)
	}
	if snapshot.CollisionDetected {
		exitCode = 1
	}
	return nil
}

func validateConfig(cfg config.Config) error {
	if cfg.Map == "" {
		return fmt.Errorf("%w: --map is required", swarmerr.InputInvalid)
	}
	if cfg.Agents <= 0 {
		return fmt.Errorf("%w: --agents must be positive, got %d", swarmerr.InputInvalid, cfg.Agents)
	}
	if cfg.Drop < 0 || cfg.Drop > 1 {
		return fmt.Errorf("%w: --drop must be within [0, 1], got %v", swarmerr.InputInvalid, cfg.Drop)
	}
	return nil
}

// buildLogger wires the structured event bus with a console sink when
// running verbosely and/or a JSON sink when --log-file is set. Either
// flag on its own starts the bus; with neither set it returns a no-op
// publisher with nothing to close.
func buildLogger(cfg config.Config) (logging.Publisher, func()) {
	if !cfg.Verbose && cfg.LogFile == "" {
		return logging.NopPublisher(), func() {}
	}

	logConfig := logging.DefaultConfig()
	if cfg.Verbose {
		logConfig.MinimumSeverity = logging.SeverityDebug
	}

	var namedSinks []logging.NamedSink
	if cfg.Verbose {
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "console",
			Sink: sinks.NewConsoleSink(os.Stdout, logging.ConsoleConfig{}),
		})
	}

	var logFile *os.File
	if cfg.LogFile != "" {
		f, err := os.Create(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open --log-file %s: %v\n", cfg.LogFile, err)
		} else {
			logFile = f
			namedSinks = append(namedSinks, logging.NamedSink{Name: "json", Sink: sinks.NewJSON(f, 0)})
		}
	}

	bus, err := logging.NewEventBus(nil, logConfig, namedSinks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to construct logging event bus: %v\n", err)
		if logFile != nil {
			logFile.Close()
		}
		return logging.NopPublisher(), func() {}
	}
	publisher := logging.WithFields(bus, map[string]any{"seed": cfg.Seed})
	return publisher, func() {
		if err := bus.Close(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close logging event bus: %v\n", err)
		}
		if logFile != nil {
			logFile.Close()
		}
	}
}

// startSpectatorStream serves the live tick-trace websocket in the
// background and returns a function that shuts it down.
func startSpectatorStream(sim *simulator.Simulator, addr string) func() {
	broadcaster := wsstream.New(nil)
	sim.SetTraceObserver(broadcaster.Publish)

	mux := http.NewServeMux()
	mux.HandleFunc("/", broadcaster.Handle)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "spectator stream stopped: %v\n", err)
		}
	}()

	return func() {
		broadcaster.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func printSummary(snapshot metrics.Snapshot) {
	fmt.Printf("makespan=%d messages=%d dropped=%d drop_rate=%.3f replans=%d collision_detected=%t wall_time=%s\n",
		snapshot.Makespan,
		snapshot.TotalMessages,
		snapshot.DroppedMessages,
		snapshot.DropRate(),
		snapshot.TotalReplans,
		snapshot.CollisionDetected,
		snapshot.WallTime,
	)
}
