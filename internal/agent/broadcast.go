package agent

import (
	"swarmgrid/internal/grid"
	"swarmgrid/internal/network"
	"swarmgrid/internal/world"
)

// BuildAnnouncement constructs this tick's PATH_ANNOUNCEMENT (or
// GOAL_REACHED, for an agent latched at goal, or the same stopped-padding
// form for a collision-stopped agent). The sequence number is the current
// tick: a single controller's sequence numbers are then trivially
// monotonic, and cross-controller ties on the same tick are broken by
// agent_id wherever they matter (state-sync conflict resolution).
func (c *Controller) BuildAnnouncement(state *world.AgentState, tick uint64) network.Message {
	msgType := network.PathAnnouncement
	var path []grid.Cell

	switch {
	case state.AtGoal:
		msgType = network.GoalReached
		path = repeatCell(state.Pos, StoppedPaddingLength)
	case c.State == StateCollisionStopped:
		path = repeatCell(state.Pos, StoppedPaddingLength)
	default:
		path = state.RemainingPath()
	}

	next := state.Pos
	if n, ok := state.NextIntent(); ok {
		next = n
	}

	return network.Message{
		From:           c.ID,
		Type:           msgType,
		Next:           next,
		Timestamp:      tick,
		PlannedPath:    path,
		SequenceNumber: tick,
		VectorClock:    c.stampOutgoingClock(),
	}
}

// ShouldSendStateSync reports whether a STATE_SYNC is due this tick: on
// the fixed broadcast interval, or when no peer state has been received
// recently enough.
func (c *Controller) ShouldSendStateSync(tick uint64) bool {
	if tick-c.LastStateBroadcast >= StateBroadcastInterval {
		return true
	}
	return tick-c.LastStateReceived >= StaleStateThreshold
}

// BuildStateSync constructs a STATE_SYNC carrying a deep copy of this
// controller's local reservation view.
func (c *Controller) BuildStateSync(tick uint64) network.Message {
	c.LastStateBroadcast = tick
	return network.Message{
		From:           c.ID,
		Type:           network.StateSync,
		Timestamp:      tick,
		SequenceNumber: tick,
		FullState:      c.LocalReservations.Clone(),
		VectorClock:    c.stampOutgoingClock(),
	}
}

func repeatCell(cell grid.Cell, n int) []grid.Cell {
	out := make([]grid.Cell, n)
	for i := range out {
		out[i] = cell
	}
	return out
}
