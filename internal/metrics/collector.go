// Package metrics collects run-wide counters and per-tick traces for a
// simulation and emits them in the fixed JSON and CSV output formats.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
)

// Snapshot is a point-in-time copy of the run's cumulative counters.
type Snapshot struct {
	TotalMessages     uint64
	DroppedMessages   uint64
	TotalReplans      uint64
	Makespan          uint64
	CollisionDetected bool
	WallTime          time.Duration
}

// DropRate returns dropped/total, or 0 when no messages were sent.
func (s Snapshot) DropRate() float64 {
	if s.TotalMessages == 0 {
		return 0
	}
	return float64(s.DroppedMessages) / float64(s.TotalMessages)
}

// AgentPosition pairs an agent identifier with its position at the tick
// a TickTrace records.
type AgentPosition struct {
	AgentID          ids.AgentID
	Pos              grid.Cell
	CollisionStopped bool
}

// TickTrace is one tick's recorded snapshot of every agent's position.
type TickTrace struct {
	Tick           uint64
	AgentPositions []AgentPosition
	ActiveAgents   int
	MessagesSent   int
}

// Collector accumulates counters and traces across a run. Counters are
// atomic so they can be incremented from the parallel planning phase;
// trace appends are serialized by a dedicated mutex, matching the
// concurrency model's "atomic counters, mutex-guarded traces" split.
type Collector struct {
	totalMessages     atomic.Uint64
	droppedMessages   atomic.Uint64
	totalReplans      atomic.Uint64
	collisionDetected atomic.Bool
	makespan          atomic.Uint64

	traceMu sync.Mutex
	traces  []TickTrace

	startTime time.Time
	wallTime  time.Duration
}

// New constructs an empty collector.
func New() *Collector {
	return &Collector{}
}

// RecordMessageSent increments the cumulative sent-message counter.
func (c *Collector) RecordMessageSent() {
	c.totalMessages.Add(1)
}

// RecordMessageDropped increments the cumulative dropped-message counter.
func (c *Collector) RecordMessageDropped() {
	c.droppedMessages.Add(1)
}

// RecordReplan increments the cumulative forced-replan counter.
func (c *Collector) RecordReplan() {
	c.totalReplans.Add(1)
}

// RecordCollision latches the run-wide collision flag. Once set it is
// never cleared short of Reset.
func (c *Collector) RecordCollision() {
	c.collisionDetected.Store(true)
}

// SetMakespan records the tick at which the run terminated.
func (c *Collector) SetMakespan(tick uint64) {
	c.makespan.Store(tick)
}

// RecordTickTrace appends one tick's trace under the trace mutex.
func (c *Collector) RecordTickTrace(trace TickTrace) {
	c.traceMu.Lock()
	defer c.traceMu.Unlock()
	c.traces = append(c.traces, trace)
}

// StartTimer marks the beginning of the run's wall-clock measurement.
func (c *Collector) StartTimer() {
	c.startTime = time.Now()
}

// StopTimer records the elapsed wall-clock duration since StartTimer.
func (c *Collector) StopTimer() {
	if c.startTime.IsZero() {
		return
	}
	c.wallTime = time.Since(c.startTime)
}

// Snapshot returns a consistent copy of every cumulative counter.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		TotalMessages:     c.totalMessages.Load(),
		DroppedMessages:   c.droppedMessages.Load(),
		TotalReplans:      c.totalReplans.Load(),
		Makespan:          c.makespan.Load(),
		CollisionDetected: c.collisionDetected.Load(),
		WallTime:          c.wallTime,
	}
}

// Traces returns a copy of every recorded tick trace, in recording
// order.
func (c *Collector) Traces() []TickTrace {
	c.traceMu.Lock()
	defer c.traceMu.Unlock()
	out := make([]TickTrace, len(c.traces))
	copy(out, c.traces)
	return out
}

// Reset clears every counter and trace, for reuse across successive
// runs in the same process.
func (c *Collector) Reset() {
	c.totalMessages.Store(0)
	c.droppedMessages.Store(0)
	c.totalReplans.Store(0)
	c.collisionDetected.Store(false)
	c.makespan.Store(0)
	c.startTime = time.Time{}
	c.wallTime = 0

	c.traceMu.Lock()
	c.traces = nil
	c.traceMu.Unlock()
}
