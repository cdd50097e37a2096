package simulator

import (
	"context"
	"testing"

	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
	"swarmgrid/internal/metrics"
	"swarmgrid/internal/network"
	"swarmgrid/internal/world"
	"swarmgrid/logging"
	netevents "swarmgrid/logging/network"
	"swarmgrid/logging/planning"
	"swarmgrid/logging/sinks"
)

// fixedAgent builds an AgentState with a stable, non-random identifier so
// determinism tests can compare two independent runs of the same
// configuration.
func fixedAgent(t *testing.T, uuidStr string, start, goal [2]int) *world.AgentState {
	t.Helper()
	id, err := ids.AgentIDFromString(uuidStr)
	if err != nil {
		t.Fatalf("bad fixed uuid %q: %v", uuidStr, err)
	}
	return world.NewAgentState(id, cell(start), cell(goal))
}

func cell(c [2]int) grid.Cell {
	return grid.Cell{X: c[0], Y: c[1]}
}

func buildWorld(t *testing.T, lines []string, agents []*world.AgentState) *world.World {
	t.Helper()
	g, err := world.ParseGrid(lines)
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	return world.New(g, agents)
}

func TestSingleAgentEmptyGrid(t *testing.T) {
	agents := []*world.AgentState{
		fixedAgent(t, "11111111-1111-1111-1111-111111111111", [2]int{0, 0}, [2]int{2, 2}),
	}
	w := buildWorld(t, []string{"...", "...", "..."}, agents)
	net := network.New(w.AgentIDs(), network.Params{}, 1)
	collector := metrics.New()

	sim := New(w, net, collector, 20, nil)
	snap := sim.Run(context.Background())

	if !w.AllAtGoal() {
		t.Fatalf("expected agent to reach goal, world: %+v", w.Snapshot())
	}
	if snap.CollisionDetected {
		t.Fatalf("expected no collision")
	}
	if snap.Makespan > 10 {
		t.Fatalf("expected a short makespan on an empty 3x3 grid, got %d", snap.Makespan)
	}
}

func TestHeadOnCorridor(t *testing.T) {
	agents := []*world.AgentState{
		fixedAgent(t, "22222222-2222-2222-2222-222222222222", [2]int{0, 0}, [2]int{4, 0}),
		fixedAgent(t, "33333333-3333-3333-3333-333333333333", [2]int{4, 0}, [2]int{0, 0}),
	}
	w := buildWorld(t, []string{"....."}, agents)
	net := network.New(w.AgentIDs(), network.Params{}, 2)
	collector := metrics.New()

	sim := New(w, net, collector, 40, nil)
	snap := sim.Run(context.Background())

	if !w.AllAtGoal() {
		t.Fatalf("expected both agents to reach goal, world: %+v", w.Snapshot())
	}
	if snap.CollisionDetected {
		t.Fatalf("expected no collision in the corridor scenario")
	}
}

func TestBottleneckForcesReplan(t *testing.T) {
	lines := []string{
		".....",
		"..#..",
		"..#..",
		"..#..",
		".....",
	}
	agents := []*world.AgentState{
		fixedAgent(t, "44444444-4444-4444-4444-444444444444", [2]int{0, 2}, [2]int{4, 2}),
		fixedAgent(t, "55555555-5555-5555-5555-555555555555", [2]int{4, 2}, [2]int{0, 2}),
	}
	w := buildWorld(t, lines, agents)
	net := network.New(w.AgentIDs(), network.Params{}, 3)
	collector := metrics.New()

	sim := New(w, net, collector, 60, nil)
	snap := sim.Run(context.Background())

	if !w.AllAtGoal() {
		t.Fatalf("expected both agents to reach goal, world: %+v", w.Snapshot())
	}
	if snap.TotalReplans == 0 {
		t.Fatalf("expected at least one replan at the bottleneck")
	}
}

// TestMemorySinkCapturesReplanAndNetworkEvents runs the bottleneck
// scenario with a real event bus backed by a MemorySink instead of nil,
// and asserts on the events it captured — the assertion SPEC_FULL.md's
// description of sinks.MemorySink promises but the teacher's equivalent
// package left untested.
func TestMemorySinkCapturesReplanAndNetworkEvents(t *testing.T) {
	mem := sinks.NewMemorySink()
	logConfig := logging.DefaultConfig()
	logConfig.MinimumSeverity = logging.SeverityDebug
	bus, err := logging.NewEventBus(nil, logConfig, []logging.NamedSink{{Name: "memory", Sink: mem}})
	if err != nil {
		t.Fatalf("failed to construct event bus: %v", err)
	}

	lines := []string{
		".....",
		"..#..",
		"..#..",
		"..#..",
		".....",
	}
	agents := []*world.AgentState{
		fixedAgent(t, "99999999-9999-9999-9999-999999999999", [2]int{0, 2}, [2]int{4, 2}),
		fixedAgent(t, "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", [2]int{4, 2}, [2]int{0, 2}),
	}
	w := buildWorld(t, lines, agents)
	net := network.New(w.AgentIDs(), network.Params{}, 3)
	collector := metrics.New()

	sim := New(w, net, collector, 60, bus)
	sim.Run(context.Background())

	if err := bus.Close(context.Background()); err != nil {
		t.Fatalf("failed to close event bus: %v", err)
	}

	var sawReplanForced, sawMessageSent bool
	for _, event := range mem.Events() {
		switch event.Type {
		case planning.EventReplanForced:
			sawReplanForced = true
		case netevents.EventMessageSent:
			sawMessageSent = true
		}
	}
	if !sawReplanForced {
		t.Fatalf("expected a replan_forced event to reach the memory sink at the bottleneck")
	}
	if !sawMessageSent {
		t.Fatalf("expected a message_sent event to reach the memory sink")
	}
}

func TestLossyNetworkStillCompletesWithoutCollision(t *testing.T) {
	lines := []string{
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	}
	agents := []*world.AgentState{
		fixedAgent(t, "66666666-6666-6666-6666-666666666666", [2]int{0, 0}, [2]int{7, 5}),
		fixedAgent(t, "77777777-7777-7777-7777-777777777777", [2]int{7, 0}, [2]int{0, 5}),
		fixedAgent(t, "88888888-8888-8888-8888-888888888888", [2]int{3, 5}, [2]int{4, 0}),
	}
	w := buildWorld(t, lines, agents)
	net := network.New(w.AgentIDs(), network.Params{DropProbability: 0.2, MeanLatencyMs: 50, JitterMs: 20}, 42)
	collector := metrics.New()

	sim := New(w, net, collector, 200, nil)
	snap := sim.Run(context.Background())

	if snap.CollisionDetected {
		t.Fatalf("expected no collision even under a lossy network")
	}
	if snap.TotalMessages == 0 {
		t.Fatalf("expected some messages to have been sent")
	}
}

func TestDeterminismAcrossIdenticalRuns(t *testing.T) {
	lines := []string{
		".....",
		"..#..",
		"..#..",
		"..#..",
		".....",
	}
	run := func() metrics.Snapshot {
		agents := []*world.AgentState{
			fixedAgent(t, "44444444-4444-4444-4444-444444444444", [2]int{0, 2}, [2]int{4, 2}),
			fixedAgent(t, "55555555-5555-5555-5555-555555555555", [2]int{4, 2}, [2]int{0, 2}),
		}
		w := buildWorld(t, lines, agents)
		net := network.New(w.AgentIDs(), network.Params{DropProbability: 0.1, MeanLatencyMs: 30}, 7)
		collector := metrics.New()
		sim := New(w, net, collector, 60, nil)
		return sim.Run(context.Background())
	}

	first := run()
	second := run()

	if first.Makespan != second.Makespan {
		t.Fatalf("makespan diverged: %d vs %d", first.Makespan, second.Makespan)
	}
	if first.DroppedMessages != second.DroppedMessages {
		t.Fatalf("dropped message count diverged: %d vs %d", first.DroppedMessages, second.DroppedMessages)
	}
	if first.CollisionDetected != second.CollisionDetected {
		t.Fatalf("collision flag diverged")
	}
}

// TestCollisionAuditOrderIsDeterministic exercises a tick with two
// spatially-adjacent collision groups converging on an empty grid at once.
// auditCollisions must resolve them in the same order every run regardless
// of Go's randomized map iteration order over PositionsByCell, so the exact
// per-tick position trace — not just the aggregate snapshot — must match
// across independent runs.
func TestCollisionAuditOrderIsDeterministic(t *testing.T) {
	lines := []string{
		".......",
		".......",
		".......",
		".......",
		".......",
	}
	run := func() []metrics.TickTrace {
		agents := []*world.AgentState{
			fixedAgent(t, "11111111-1111-1111-1111-111111111111", [2]int{0, 1}, [2]int{6, 1}),
			fixedAgent(t, "22222222-2222-2222-2222-222222222222", [2]int{6, 1}, [2]int{0, 1}),
			fixedAgent(t, "33333333-3333-3333-3333-333333333333", [2]int{0, 3}, [2]int{6, 3}),
			fixedAgent(t, "44444444-4444-4444-4444-444444444444", [2]int{6, 3}, [2]int{0, 3}),
		}
		w := buildWorld(t, lines, agents)
		net := network.New(w.AgentIDs(), network.Params{DropProbability: 0.2, MeanLatencyMs: 20}, 3)
		collector := metrics.New()
		sim := New(w, net, collector, 40, nil)
		sim.Run(context.Background())
		return collector.Traces()
	}

	first := run()
	second := run()

	if len(first) != len(second) {
		t.Fatalf("trace length diverged: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if len(first[i].AgentPositions) != len(second[i].AgentPositions) {
			t.Fatalf("tick %d: position count diverged", i)
		}
		for j := range first[i].AgentPositions {
			a, b := first[i].AgentPositions[j], second[i].AgentPositions[j]
			if a.AgentID != b.AgentID || a.Pos != b.Pos || a.CollisionStopped != b.CollisionStopped {
				t.Fatalf("tick %d position %d diverged: %+v vs %+v", i, j, a, b)
			}
		}
	}
}
