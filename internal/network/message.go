// Package network implements the simulated lossy, delayed broadcast
// channel agents use to coordinate: every Message a controller sends is
// independently subject to drop and to a delivery-tick delay model.
package network

import (
	"swarmgrid/internal/grid"
	"swarmgrid/internal/ids"
	"swarmgrid/internal/reservation"
)

// Type identifies the three message variants an agent can broadcast.
type Type string

const (
	// PathAnnouncement carries the sender's remaining planned path.
	PathAnnouncement Type = "PATH_ANNOUNCEMENT"
	// StateSync carries a snapshot of the sender's local reservation
	// table for causal reconciliation.
	StateSync Type = "STATE_SYNC"
	// GoalReached announces that the sender has latched at its goal.
	GoalReached Type = "GOAL_REACHED"
)

// Message is the wire format broadcast over the network.
type Message struct {
	From ids.AgentID
	Type Type
	// Next is the sender's immediate intended cell for the following
	// tick.
	Next grid.Cell
	// Timestamp is the tick at which this message was sent.
	Timestamp uint64
	// PlannedPath is the remaining path from the sender's current
	// position (or a long constant-cell padding for a stopped/at-goal
	// sender).
	PlannedPath []grid.Cell
	// SequenceNumber is a monotonically increasing per-sender counter,
	// used to detect and discard stale STATE_SYNC deliveries.
	SequenceNumber uint64
	// FullState is populated only for STATE_SYNC messages. It may be
	// shared by reference across every queued delivery of this message.
	FullState *reservation.Table
	// VectorClock is the sender's causal clock at send time.
	VectorClock map[ids.AgentID]uint64
}

// CloneVectorClock returns an independent copy of a vector clock map,
// used whenever a clock is stamped onto an outgoing message so later
// local mutation cannot retroactively alter an already-sent message.
func CloneVectorClock(clock map[ids.AgentID]uint64) map[ids.AgentID]uint64 {
	cloned := make(map[ids.AgentID]uint64, len(clock))
	for k, v := range clock {
		cloned[k] = v
	}
	return cloned
}
